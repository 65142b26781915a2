package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/eventbus"
	"github.com/appforge/ai-engine/internal/middleware"
	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/ratelimit"
)

// TaskHandler enqueues generation tasks onto the work queue
type TaskHandler struct {
	bus     *eventbus.Bus
	limiter *ratelimit.Limiter
	logger  *zap.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(bus *eventbus.Bus, limiter *ratelimit.Limiter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{bus: bus, limiter: limiter, logger: logger}
}

// SubmitTaskRequest is the enqueue request body
type SubmitTaskRequest struct {
	UserID    string         `json:"user_id" binding:"required"`
	SessionID string         `json:"session_id" binding:"required"`
	Prompt    string         `json:"prompt" binding:"required"`
	Context   map[string]any `json:"context"`
}

// Submit accepts a generation request and enqueues it. The queue consumer
// enforces the rate limit when it picks the task up; rejecting here too
// would double-charge the user's bucket, so this endpoint only refuses
// users who are already fully drained.
func (h *TaskHandler) Submit(c *gin.Context) {
	var req SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BadRequest(c, err.Error())
		return
	}

	remaining := h.limiter.Remaining(req.UserID)
	if remaining == 0 {
		middleware.RespondErrorWithRetry(c, http.StatusTooManyRequests,
			middleware.ErrCodeRateLimited,
			"generation rate limit exceeded",
			0,
		)
		return
	}

	task := models.TaskRequest{
		TaskID:    uuid.NewString(),
		UserID:    req.UserID,
		SessionID: req.SessionID,
		Prompt:    req.Prompt,
		Context:   req.Context,
	}
	if err := h.bus.PublishTask(task); err != nil {
		h.logger.Error("failed to enqueue task", zap.Error(err))
		middleware.RespondError(c, http.StatusServiceUnavailable,
			middleware.ErrCodeUnavailable, "could not enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id":        task.TaskID,
		"events_subject": "appforge.events." + task.TaskID,
		"remaining":      remaining,
	})
}
