package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/platform/middleware"
	"hearth/internal/token"
	"hearth/internal/transport/http/shared"
	dErrors "hearth/pkg/domain-errors"
)

// SessionService defines the session operations the HTTP layer needs.
type SessionService interface {
	Login(ctx context.Context, assertion, rawUserAgent string) (token.Token, string, error)
	Logout(ctx context.Context, sessionWire string) error
	RevokeToken(ctx context.Context, sessionWire, targetWire string) error
}

// SessionHandler handles session lifecycle endpoints.
type SessionHandler struct {
	sessions SessionService
	checker  middleware.SessionChecker
	logger   *slog.Logger
}

func NewSessionHandler(sessions SessionService, checker middleware.SessionChecker, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, checker: checker, logger: logger}
}

// Register registers the session routes with the chi router.
func (h *SessionHandler) Register(r chi.Router) {
	r.Post("/session", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.checker, h.logger))
		r.Post("/session/logout", h.handleLogout)
		r.Post("/tokens/revoke", h.handleRevokeToken)
	})
}

type loginRequest struct {
	Assertion string `json:"assertion"`
}

type loginResponse struct {
	SessionToken string `json:"session_token"`
	SubjectID    string `json:"subject_id"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (h *SessionHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Assertion == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	tok, wire, err := h.sessions.Login(ctx, req.Assertion, r.UserAgent())
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, loginResponse{
		SessionToken: wire,
		SubjectID:    tok.SubjectID,
		ExpiresAt:    tok.ExpiresAt,
	})
}

func (h *SessionHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.sessions.Logout(ctx, middleware.GetSessionCredential(ctx)); err != nil {
		h.logger.WarnContext(ctx, "logout failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type revokeTokenRequest struct {
	Token string `json:"token"`
}

func (h *SessionHandler) handleRevokeToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req revokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.sessions.RevokeToken(ctx, middleware.GetSessionCredential(ctx), req.Token); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
