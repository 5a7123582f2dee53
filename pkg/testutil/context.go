package testutil

import (
	"context"
	"net/http"

	"hearth/internal/platform/middleware"
)

// WithSubject adds an authenticated subject to the request context.
// This simulates what the session middleware would do for authorized requests.
func WithSubject(req *http.Request, subjectID string) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeySubjectID, subjectID)
	return req.WithContext(ctx)
}

// WithSession adds both the subject and the raw session credential to the
// request context. This is the typical state for an owner-authenticated
// request.
func WithSession(req *http.Request, subjectID, credential string) *http.Request {
	ctx := req.Context()
	if subjectID != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySubjectID, subjectID)
	}
	if credential != "" {
		ctx = context.WithValue(ctx, middleware.ContextKeySessionCredential, credential)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
