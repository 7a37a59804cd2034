package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"talkdeck/internal/services"
)

// WebSocketHandler upgrades deck connections. Sessions live until their
// connection closes or the server context is done.
type WebSocketHandler struct {
	ctx      context.Context
	svc      *services.DeckService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewWebSocketHandler creates a new websocket handler bound to the server lifetime
func NewWebSocketHandler(ctx context.Context, svc *services.DeckService, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		ctx: ctx,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		log: logger,
	}
}

// ServeWS upgrades the request and runs the deck session
// GET /ws
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	if err := h.svc.Serve(h.ctx, conn, ScopeFromContext(r.Context())); err != nil {
		h.log.Info("websocket session ended", zap.Error(err))
	}
}
