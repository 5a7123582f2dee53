package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hearth/internal/pending"
	"hearth/internal/scope"
	"hearth/internal/transport/http/mocks"
	dErrors "hearth/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_pending.go -destination=mocks/pending-mocks.go -package=mocks PendingService

func newPendingHandler(t *testing.T) (*PendingHandler, *mocks.MockPendingService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	requests := mocks.NewMockPendingService(ctrl)
	return NewPendingHandler(requests, nil, discardLogger()), requests
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func sampleRequest(status pending.Status) *pending.Request {
	return &pending.Request{
		RequestID:      "req-1",
		SubjectID:      "user-1",
		AgentID:        "kai",
		RequestedScope: scope.ScopeVaultReadFood,
		Status:         status,
		CreatedAt:      time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandleCreateRequest(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		Create(gomock.Any(), "user-1", "kai", scope.ScopeVaultReadFood).
		Return(sampleRequest(pending.StatusPending), nil)

	body, _ := json.Marshal(createRequest{SubjectID: "user-1", AgentID: "kai", Scope: "vault.read.food"})
	req := httptest.NewRequest(http.MethodPost, "/consents/requests", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.handleCreate(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var view requestView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "req-1", view.RequestID)
	assert.Equal(t, "pending", view.Status)
	assert.Nil(t, view.DecidedAt)
}

func TestHandleCreateRequest_UnknownScope(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnknownScope, "unknown scope"))

	body, _ := json.Marshal(createRequest{SubjectID: "user-1", AgentID: "kai", Scope: "vault.read.everything"})
	req := httptest.NewRequest(http.MethodPost, "/consents/requests", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.handleCreate(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unknown_scope", resp["error"])
}

func TestHandleListRequests_UsesSessionSubject(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		ListBySubject(gomock.Any(), "user-1").
		Return([]*pending.Request{sampleRequest(pending.StatusPending)}, nil)

	// A subject query parameter must be ignored in favor of the session.
	req := httptest.NewRequest(http.MethodGet, "/consents/requests?subject=victim", nil)
	req = req.WithContext(authedContext(req.Context(), "user-1", "HCT:session.sig"))
	w := httptest.NewRecorder()

	handler.handleList(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string][]requestView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp["requests"], 1)
	assert.Equal(t, "user-1", resp["requests"][0].SubjectID)
}

func TestHandleApprove(t *testing.T) {
	handler, requests := newPendingHandler(t)

	decided := sampleRequest(pending.StatusApproved)
	decidedAt := decided.CreatedAt.Add(time.Minute)
	decided.DecidedAt = &decidedAt

	requests.EXPECT().
		Approve(gomock.Any(), "req-1", pending.ApprovalPayload{
			Ciphertext: []byte("sealed"),
			IV:         []byte("iv"),
			AuthTag:    []byte("tag"),
		}, "HCT:session.sig").
		Return(decided, "HCT:minted.sig", nil)

	body, _ := json.Marshal(approveRequest{Ciphertext: []byte("sealed"), IV: []byte("iv"), AuthTag: []byte("tag")})
	req := httptest.NewRequest(http.MethodPost, "/consents/requests/req-1/approve", bytes.NewReader(body))
	req = withURLParam(req, "requestID", "req-1")
	req = req.WithContext(authedContext(req.Context(), "user-1", "HCT:session.sig"))
	w := httptest.NewRecorder()

	handler.handleApprove(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp approveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "HCT:minted.sig", resp.Token)
	assert.Equal(t, "approved", resp.Request.Status)
	require.NotNil(t, resp.Request.DecidedAt)
}

func TestHandleApprove_AlreadyDecided(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		Approve(gomock.Any(), "req-1", gomock.Any(), gomock.Any()).
		Return(nil, "", dErrors.New(dErrors.CodeNotPending, "request already decided"))

	body, _ := json.Marshal(approveRequest{Ciphertext: []byte("x"), IV: []byte("y"), AuthTag: []byte("z")})
	req := httptest.NewRequest(http.MethodPost, "/consents/requests/req-1/approve", bytes.NewReader(body))
	req = withURLParam(req, "requestID", "req-1")
	req = req.WithContext(authedContext(req.Context(), "user-1", "HCT:session.sig"))
	w := httptest.NewRecorder()

	handler.handleApprove(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleDeny(t *testing.T) {
	handler, requests := newPendingHandler(t)

	decided := sampleRequest(pending.StatusDenied)
	requests.EXPECT().
		Deny(gomock.Any(), "req-1", "HCT:session.sig").
		Return(decided, nil)

	req := httptest.NewRequest(http.MethodPost, "/consents/requests/req-1/deny", nil)
	req = withURLParam(req, "requestID", "req-1")
	req = req.WithContext(authedContext(req.Context(), "user-1", "HCT:session.sig"))
	w := httptest.NewRecorder()

	handler.handleDeny(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var view requestView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "denied", view.Status)
}

func TestHandleCancel(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		Cancel(gomock.Any(), "req-1", "kai").
		Return(sampleRequest(pending.StatusCancelled), nil)

	body, _ := json.Marshal(cancelRequest{AgentID: "kai"})
	req := httptest.NewRequest(http.MethodPost, "/consents/requests/req-1/cancel", bytes.NewReader(body))
	req = withURLParam(req, "requestID", "req-1")
	w := httptest.NewRecorder()

	handler.handleCancel(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHandleGetRequest_NotFound(t *testing.T) {
	handler, requests := newPendingHandler(t)

	requests.EXPECT().
		Get(gomock.Any(), "missing").
		Return(nil, dErrors.New(dErrors.CodeNotFound, "request not found"))

	req := httptest.NewRequest(http.MethodGet, "/consents/requests/missing", nil)
	req = withURLParam(req, "requestID", "missing")
	w := httptest.NewRecorder()

	handler.handleGet(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
