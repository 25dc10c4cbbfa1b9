// Package handlers provides HTTP API request handlers.
package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/realtime-chat/broker/internal/ws"
)

// WebSocketHandler mounts the chat WebSocket endpoint.
type WebSocketHandler struct {
	wsHandler *ws.Handler
	log       *slog.Logger
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(wsHandler *ws.Handler, log *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		wsHandler: wsHandler,
		log:       log,
	}
}

// Attach handles GET /api/chat - joins the chat room over WebSocket.
func (h *WebSocketHandler) Attach(c *gin.Context) {
	if err := h.wsHandler.HandleConnection(c.Writer, c.Request); err != nil {
		// The upgrader has already written the HTTP error response
		h.log.Warn("websocket upgrade failed", "remote", c.ClientIP(), "error", err)
	}
}

// RegisterRoutes registers the WebSocket handler routes on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat", h.Attach)
}
