package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hearth/internal/consent"
	"hearth/internal/scope"
	"hearth/internal/token"
)

// SessionChecker validates a wire credential against a required scope.
type SessionChecker interface {
	Validate(ctx context.Context, wireToken string, required scope.Scope) consent.Result
}

type subjectIDKey struct{}
type sessionCredentialKey struct{}

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeySubjectID         = subjectIDKey{}
	ContextKeySessionCredential = sessionCredentialKey{}
)

// GetSubjectID retrieves the authenticated subject ID from the context.
func GetSubjectID(ctx context.Context) string {
	subjectID, ok := ctx.Value(ContextKeySubjectID).(string)
	if !ok {
		return ""
	}
	return subjectID
}

// GetSessionCredential retrieves the raw session credential from the
// context. Services that re-verify ownership on sensitive operations need
// the wire form, not just the subject.
func GetSessionCredential(ctx context.Context) string {
	wire, ok := ctx.Value(ContextKeySessionCredential).(string)
	if !ok {
		return ""
	}
	return wire
}

// RequireSession guards routes that demand an owner session. The bearer
// credential must be a live session token; its subject and wire form are
// placed on the context for handlers.
func RequireSession(checker SessionChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			wire, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || wire == "" {
				logger.WarnContext(ctx, "unauthorized access - missing credential",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			res := checker.Validate(ctx, wire, token.SessionScope)
			if !res.Valid {
				logger.WarnContext(ctx, "unauthorized access - invalid session",
					"reason", string(res.Reason),
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w)
				return
			}

			ctx = context.WithValue(ctx, ContextKeySubjectID, res.SubjectID)
			ctx = context.WithValue(ctx, ContextKeySessionCredential, wire)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
}
