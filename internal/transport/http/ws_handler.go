package http

import (
	"log/slog"
	"net/http"

	gorilla "github.com/gorilla/websocket"

	"ecomlens/internal/websocket"
)

// WSHandler upgrades connections and attaches clients to the hub.
type WSHandler struct {
	hub      *websocket.Hub
	upgrader gorilla.Upgrader
	logger   *slog.Logger
}

// NewWSHandler creates a WebSocket handler.
func NewWSHandler(hub *websocket.Hub, readBuf, writeBuf int, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub: hub,
		upgrader: gorilla.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin: func(r *http.Request) bool {
				// The server binds to localhost; same-machine browsers only.
				return true
			},
		},
		logger: logger.With(slog.String("handler", "websocket")),
	}
}

// ServeWS handles GET /ws.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		h.logger.ErrorContext(r.Context(), "upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := websocket.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)
	client.Greet()

	go client.WritePump()
	go client.ReadPump()
}
