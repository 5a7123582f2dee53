package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"hearth/internal/consent"
	"hearth/internal/scope"
	"hearth/internal/token"
)

type stubChecker struct {
	result consent.Result
	wire   string
	scope  scope.Scope
}

func (s *stubChecker) Validate(_ context.Context, wireToken string, required scope.Scope) consent.Result {
	s.wire = wireToken
	s.scope = required
	return s.result
}

func TestRequireSession_SetsContext(t *testing.T) {
	checker := &stubChecker{result: consent.Result{Valid: true, SubjectID: "user-1"}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotSubject, gotCredential string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSubject = GetSubjectID(r.Context())
		gotCredential = GetSessionCredential(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.Header.Set("Authorization", "Bearer HCT:session.sig")
	w := httptest.NewRecorder()

	RequireSession(checker, logger)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", gotSubject)
	assert.Equal(t, "HCT:session.sig", gotCredential)
	assert.Equal(t, "HCT:session.sig", checker.wire)
	assert.Equal(t, token.SessionScope, checker.scope)
}

func TestRequireSession_MissingHeader(t *testing.T) {
	checker := &stubChecker{result: consent.Result{Valid: true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	w := httptest.NewRecorder()

	RequireSession(checker, logger)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestRequireSession_InvalidSession(t *testing.T) {
	checker := &stubChecker{result: consent.Result{Valid: false, Reason: consent.ReasonExpired}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("next handler must not run")
	})

	req := httptest.NewRequest(http.MethodPost, "/session/logout", nil)
	req.Header.Set("Authorization", "Bearer HCT:stale.sig")
	w := httptest.NewRecorder()

	RequireSession(checker, logger)(next).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestID_GeneratesAndEchoes(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	RequestID(next).ServeHTTP(w, req)

	assert.NotEmpty(t, got)
	assert.Equal(t, got, w.Header().Get("X-Request-ID"))
}

func TestRequestID_HonorsInbound(t *testing.T) {
	var got string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w := httptest.NewRecorder()
	RequestID(next).ServeHTTP(w, req)

	assert.Equal(t, "upstream-id", got)
}
