// Package handlers implements the engine's operational HTTP endpoints.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/appforge/ai-engine/internal/database"
	"github.com/appforge/ai-engine/internal/orchestrator"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db   *database.Postgres
	rdb  *database.Redis
	orch *orchestrator.TierOrchestrator
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.Postgres, rdb *database.Redis, orch *orchestrator.TierOrchestrator) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb, orch: orch}
}

// Health returns basic health status
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "ai-engine",
		"version": "0.1.0",
	})
}

// DeepHealth returns health status with dependency checks
func (h *HealthHandler) DeepHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	deps := make(map[string]string)
	allHealthy := true

	if err := h.db.Ping(ctx); err != nil {
		deps["database"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		deps["database"] = "healthy"
	}

	if err := h.rdb.Ping(ctx); err != nil {
		deps["redis"] = "unhealthy: " + err.Error()
		allHealthy = false
	} else {
		deps["redis"] = "healthy"
	}

	for _, tier := range h.orch.Stats(ctx) {
		key := "tier_" + string(tier.Tier)
		switch {
		case !tier.Healthy:
			deps[key] = "unhealthy"
		case tier.CircuitState != "closed":
			deps[key] = "degraded: circuit " + tier.CircuitState
		default:
			deps[key] = "healthy"
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if !allHealthy {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"service":      "ai-engine",
		"dependencies": deps,
	})
}
