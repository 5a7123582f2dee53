package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hearth/internal/events"
	"hearth/internal/platform/middleware"
	"hearth/internal/transport/http/shared"
	dErrors "hearth/pkg/domain-errors"
)

// EventSource is the subscription surface of the consent event bus.
type EventSource interface {
	Subscribe(subjectID string) (<-chan events.Event, func())
}

// EventsHandler streams consent updates to owner devices over SSE.
type EventsHandler struct {
	source  EventSource
	checker middleware.SessionChecker
	logger  *slog.Logger
}

func NewEventsHandler(source EventSource, checker middleware.SessionChecker, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{source: source, checker: checker, logger: logger}
}

// Register registers the event stream route with the chi router.
func (h *EventsHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession(h.checker, h.logger))
		r.Get("/consents/events", h.handleStream)
	})
}

func (h *EventsHandler) handleStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "streaming unsupported"))
		return
	}

	subjectID := middleware.GetSubjectID(ctx)
	ch, cancel := h.source.Subscribe(subjectID)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case event, open := <-ch:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.logger.ErrorContext(ctx, "failed to encode event",
					"request_id", middleware.GetRequestID(ctx),
					"error", err,
				)
				continue
			}
			if _, err := w.Write([]byte("event: " + string(event.Type) + "\ndata: " + string(data) + "\n\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
