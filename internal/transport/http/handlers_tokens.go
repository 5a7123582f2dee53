package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hearth/internal/consent"
	"hearth/internal/platform/middleware"
	"hearth/internal/scope"
	"hearth/internal/token"
	"hearth/internal/transport/http/shared"
	dErrors "hearth/pkg/domain-errors"
)

// TokenIssuer defines the issuance operation the HTTP layer needs.
type TokenIssuer interface {
	Issue(ctx context.Context, subjectID, agentID string, sc scope.Scope, lifetime time.Duration, callerCredential string) (token.Token, string, error)
}

// TokenChecker validates wire tokens against a required scope.
type TokenChecker interface {
	Validate(ctx context.Context, wireToken string, required scope.Scope) consent.Result
}

// TokenHandler handles direct token issuance and validation.
type TokenHandler struct {
	issuer  TokenIssuer
	checker TokenChecker
	logger  *slog.Logger
}

func NewTokenHandler(issuer TokenIssuer, checker TokenChecker, logger *slog.Logger) *TokenHandler {
	return &TokenHandler{issuer: issuer, checker: checker, logger: logger}
}

// Register registers the token routes with the chi router. Validation is
// open to resource servers holding a token; issuance demands an owner
// session.
func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/tokens/validate", h.handleValidate)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.checker, h.logger))
		r.Post("/tokens", h.handleIssue)
	})
}

type issueRequest struct {
	AgentID    string `json:"agent_id"`
	Scope      string `json:"scope"`
	LifetimeMS int64  `json:"lifetime_ms"`
}

type issueResponse struct {
	Token     string `json:"token"`
	TokenID   string `json:"token_id"`
	ExpiresAt int64  `json:"expires_at"`
}

func (h *TokenHandler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.AgentID == "" || req.Scope == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "agent_id and scope are required"))
		return
	}

	tok, wire, err := h.issuer.Issue(
		ctx,
		middleware.GetSubjectID(ctx),
		req.AgentID,
		scope.Scope(req.Scope),
		time.Duration(req.LifetimeMS)*time.Millisecond,
		middleware.GetSessionCredential(ctx),
	)
	if err != nil {
		h.logger.WarnContext(ctx, "token issuance rejected",
			"request_id", middleware.GetRequestID(ctx),
			"agent_id", req.AgentID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, issueResponse{
		Token:     wire,
		TokenID:   tok.TokenID,
		ExpiresAt: tok.ExpiresAt,
	})
}

type validateRequest struct {
	Token string `json:"token"`
	Scope string `json:"scope"`
}

type validateResponse struct {
	Valid     bool   `json:"valid"`
	SubjectID string `json:"subject_id,omitempty"`
	AgentID   string `json:"agent_id,omitempty"`
	Scope     string `json:"scope,omitempty"`
}

// handleValidate reports only the verdict. Failure reasons stay in logs and
// the audit trail so callers cannot probe why a token was refused.
func (h *TokenHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" || req.Scope == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	res := h.checker.Validate(ctx, req.Token, scope.Scope(req.Scope))
	if !res.Valid {
		h.logger.WarnContext(ctx, "token validation failed",
			"request_id", middleware.GetRequestID(ctx),
			"reason", string(res.Reason),
		)
		shared.WriteJSON(w, http.StatusOK, validateResponse{Valid: false})
		return
	}

	shared.WriteJSON(w, http.StatusOK, validateResponse{
		Valid:     true,
		SubjectID: res.SubjectID,
		AgentID:   res.AgentID,
		Scope:     res.Scope.String(),
	})
}
