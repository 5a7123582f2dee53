package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hearth/internal/platform/metrics"
	"hearth/internal/platform/middleware"
)

// Registrar is anything that mounts routes on the router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints behind the shared middleware chain.
// Per-route authorization (sessions, consent tokens) is applied by each
// handler's Register, not globally, since agent-facing and owner-facing
// routes authenticate differently.
func NewRouter(logger *slog.Logger, m *metrics.Metrics, handlers ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.LatencyMiddleware(m))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// The SSE stream must not sit behind a request timeout; everything else
	// gets a bounded handling window.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Use(middleware.ContentTypeJSON)
		for _, h := range handlers {
			if _, ok := h.(*EventsHandler); ok {
				continue
			}
			h.Register(r)
		}
	})
	for _, h := range handlers {
		if eh, ok := h.(*EventsHandler); ok {
			eh.Register(r)
		}
	}

	return r
}
