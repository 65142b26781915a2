package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appforge/ai-engine/internal/cache"
	"github.com/appforge/ai-engine/internal/orchestrator"
)

// StatsHandler exposes orchestrator and cache statistics
type StatsHandler struct {
	orch  *orchestrator.TierOrchestrator
	cache *cache.ResultCache
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(orch *orchestrator.TierOrchestrator, c *cache.ResultCache) *StatsHandler {
	return &StatsHandler{orch: orch, cache: c}
}

// Stats returns per-tier health and cache effectiveness
func (h *StatsHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tiers": h.orch.Stats(c.Request.Context()),
		"cache": h.cache.Stats(),
	})
}
