package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/pending"
	"hearth/internal/platform/middleware"
	"hearth/internal/scope"
	"hearth/internal/transport/http/shared"
	dErrors "hearth/pkg/domain-errors"
)

// PendingService defines the consent request workflow operations.
type PendingService interface {
	Create(ctx context.Context, subjectID, agentID string, requested scope.Scope) (*pending.Request, error)
	Get(ctx context.Context, requestID string) (*pending.Request, error)
	ListBySubject(ctx context.Context, subjectID string) ([]*pending.Request, error)
	Approve(ctx context.Context, requestID string, payload pending.ApprovalPayload, callerSessionCredential string) (*pending.Request, string, error)
	Deny(ctx context.Context, requestID string, callerSessionCredential string) (*pending.Request, error)
	Cancel(ctx context.Context, requestID, callerAgentID string) (*pending.Request, error)
}

// PendingHandler handles consent request endpoints. Agents create and
// cancel requests; owners list and decide them with a session.
type PendingHandler struct {
	requests PendingService
	checker  middleware.SessionChecker
	logger   *slog.Logger
}

func NewPendingHandler(requests PendingService, checker middleware.SessionChecker, logger *slog.Logger) *PendingHandler {
	return &PendingHandler{requests: requests, checker: checker, logger: logger}
}

// Register registers the consent request routes with the chi router.
func (h *PendingHandler) Register(r chi.Router) {
	r.Post("/consents/requests", h.handleCreate)
	r.Post("/consents/requests/{requestID}/cancel", h.handleCancel)
	r.Get("/consents/requests/{requestID}", h.handleGet)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.checker, h.logger))
		r.Get("/consents/requests", h.handleList)
		r.Post("/consents/requests/{requestID}/approve", h.handleApprove)
		r.Post("/consents/requests/{requestID}/deny", h.handleDeny)
	})
}

type requestView struct {
	RequestID string `json:"request_id"`
	SubjectID string `json:"subject_id"`
	AgentID   string `json:"agent_id"`
	Scope     string `json:"scope"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
	DecidedAt *int64 `json:"decided_at,omitempty"`
}

func toView(req *pending.Request) requestView {
	view := requestView{
		RequestID: req.RequestID,
		SubjectID: req.SubjectID,
		AgentID:   req.AgentID,
		Scope:     req.RequestedScope.String(),
		Status:    string(req.Status),
		CreatedAt: req.CreatedAt.UnixMilli(),
	}
	if req.DecidedAt != nil {
		decided := req.DecidedAt.UnixMilli()
		view.DecidedAt = &decided
	}
	return view
}

type createRequest struct {
	SubjectID string `json:"subject_id"`
	AgentID   string `json:"agent_id"`
	Scope     string `json:"scope"`
}

func (h *PendingHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.SubjectID == "" || req.AgentID == "" || req.Scope == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "subject_id, agent_id and scope are required"))
		return
	}

	created, err := h.requests.Create(ctx, req.SubjectID, req.AgentID, scope.Scope(req.Scope))
	if err != nil {
		h.logger.WarnContext(ctx, "consent request rejected",
			"request_id", middleware.GetRequestID(ctx),
			"agent_id", req.AgentID,
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, toView(created))
}

func (h *PendingHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := h.requests.Get(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(req))
}

// handleList returns the authenticated owner's requests. The subject comes
// from the session, never from a query parameter, so owners cannot browse
// each other's queues.
func (h *PendingHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reqs, err := h.requests.ListBySubject(ctx, middleware.GetSubjectID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	views := make([]requestView, 0, len(reqs))
	for _, req := range reqs {
		views = append(views, toView(req))
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"requests": views})
}

type approveRequest struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	AuthTag    []byte `json:"auth_tag"`
}

type approveResponse struct {
	Request requestView `json:"request"`
	Token   string      `json:"token"`
}

func (h *PendingHandler) handleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	payload := pending.ApprovalPayload{Ciphertext: req.Ciphertext, IV: req.IV, AuthTag: req.AuthTag}
	decided, wire, err := h.requests.Approve(ctx, chi.URLParam(r, "requestID"), payload, middleware.GetSessionCredential(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "approval rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusOK, approveResponse{Request: toView(decided), Token: wire})
}

func (h *PendingHandler) handleDeny(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	decided, err := h.requests.Deny(ctx, chi.URLParam(r, "requestID"), middleware.GetSessionCredential(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(decided))
}

type cancelRequest struct {
	AgentID string `json:"agent_id"`
}

// The agent ID is asserted, not authenticated: agents hold no credential
// until an owner approves a request, so there is nothing for them to
// present here. Cancel can only end an undecided request belonging to the
// named agent; a forged cancel obtains no token and cannot touch a
// decided request.
func (h *PendingHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AgentID == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	decided, err := h.requests.Cancel(ctx, chi.URLParam(r, "requestID"), req.AgentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, toView(decided))
}
