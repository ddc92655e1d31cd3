package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mrops-br/inventory-dashboard-api/internal/app/service"
)

const (
	eventsPingInterval = 30 * time.Second
	eventsWriteTimeout = 10 * time.Second
)

// EventsHandler streams store change events over a WebSocket
type EventsHandler struct {
	service  *service.InventoryService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewEventsHandler creates a new events handler. Every origin is accepted.
func NewEventsHandler(service *service.InventoryService, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream handles GET /api/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so no event after it is missed
	events, unsubscribe := h.service.Subscribe()
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "WebSocket upgrade failed",
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.Close()

	// The read loop only exists to notice the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	h.logger.InfoContext(r.Context(), "Event subscriber connected",
		slog.String("client.address", r.RemoteAddr),
	)

	ticker := time.NewTicker(eventsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(eventsWriteTimeout))
			if err := conn.WriteJSON(event); err != nil {
				h.logger.WarnContext(r.Context(), "Failed to send event",
					slog.String("error", err.Error()),
				)
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(eventsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-closed:
			h.logger.InfoContext(r.Context(), "Event subscriber disconnected",
				slog.String("client.address", r.RemoteAddr),
			)
			return
		case <-r.Context().Done():
			return
		}
	}
}
