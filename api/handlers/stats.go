package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/realtime-chat/broker/internal/broker"
)

// StatsHandler exposes a small read-only view of the room for monitoring.
type StatsHandler struct {
	engine *broker.Engine
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(engine *broker.Engine) *StatsHandler {
	return &StatsHandler{engine: engine}
}

// Stats handles GET /api/stats - reports presence and retained history size.
func (h *StatsHandler) Stats(c *gin.Context) {
	online, messages := h.engine.Stats()
	c.JSON(http.StatusOK, gin.H{
		"onlineUsers": online,
		"messages":    messages,
	})
}

// RegisterRoutes registers the stats route on a Gin router group.
func (h *StatsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/stats", h.Stats)
}
