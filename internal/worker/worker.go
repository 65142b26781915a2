// Package worker consumes task requests from the queue and drives the
// pipeline, with per-user rate limiting and result-cache short-circuiting
// at the boundary.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/cache"
	"github.com/appforge/ai-engine/internal/eventbus"
	"github.com/appforge/ai-engine/internal/metrics"
	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/pipeline"
	"github.com/appforge/ai-engine/internal/ratelimit"
)

// Worker runs tasks from the inbound queue. Each task gets its own
// goroutine; the semaphore bounds how many run at once.
type Worker struct {
	bus     *eventbus.Bus
	engine  *pipeline.Engine
	cache   *cache.ResultCache
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	logger  *zap.Logger

	sem chan struct{}
	wg  sync.WaitGroup
	sub *nats.Subscription
}

// New creates a worker processing at most maxConcurrent tasks in parallel
func New(bus *eventbus.Bus, engine *pipeline.Engine, c *cache.ResultCache, limiter *ratelimit.Limiter, m *metrics.Metrics, maxConcurrent int, logger *zap.Logger) *Worker {
	return &Worker{
		bus:     bus,
		engine:  engine,
		cache:   c,
		limiter: limiter,
		metrics: m,
		logger:  logger,
		sem:     make(chan struct{}, maxConcurrent),
	}
}

// Start subscribes to the task queue. Messages are acknowledged once the
// task holds a processing slot; anything earlier and a crash would lose
// the task, anything later and slow tasks would be redelivered mid-run.
func (w *Worker) Start(ctx context.Context) error {
	sub, err := w.bus.SubscribeTasks(func(req models.TaskRequest, ack func()) {
		w.wg.Add(1)
		go w.process(ctx, req, ack)
	})
	if err != nil {
		return fmt.Errorf("start worker: %w", err)
	}
	w.sub = sub
	w.logger.Info("worker started", zap.Int("max_concurrent", cap(w.sem)))
	return nil
}

// Stop unsubscribes and waits for in-flight tasks to reach a terminal state
func (w *Worker) Stop() {
	if w.sub != nil {
		if err := w.sub.Drain(); err != nil {
			w.logger.Warn("subscription drain failed", zap.Error(err))
		}
	}
	w.wg.Wait()
	w.logger.Info("worker stopped")
}

func (w *Worker) process(ctx context.Context, req models.TaskRequest, ack func()) {
	defer w.wg.Done()

	select {
	case w.sem <- struct{}{}:
	case <-ctx.Done():
		// Shutting down before the task was accepted: leave the message
		// unacked so the broker redelivers it to the next instance.
		return
	}
	defer func() { <-w.sem }()
	ack()

	w.metrics.TasksInFlight.Inc()
	defer w.metrics.TasksInFlight.Dec()

	logger := w.logger.With(zap.String("task_id", req.TaskID), zap.String("user_id", req.UserID))

	allowed, remaining, retryAfter := w.limiter.Check(req.UserID)
	if !allowed {
		logger.Info("task rate limited", zap.Duration("retry_after", retryAfter))
		w.bus.PublishEvent(models.TaskEvent{
			TaskID:  req.TaskID,
			Type:    models.EventError,
			Message: fmt.Sprintf("rate limit exceeded, retry in %s", retryAfter.Round(time.Second)),
		})
		w.metrics.TasksTotal.WithLabelValues("rate_limited").Inc()
		return
	}
	logger.Debug("rate limit check passed", zap.Int("remaining", remaining))

	if result := w.cache.Get(ctx, req.UserID, req.Prompt); result != nil {
		w.metrics.ObserveCache(true)
		w.metrics.TasksTotal.WithLabelValues("cache_hit").Inc()
		logger.Info("serving cached result")
		w.bus.PublishEvent(models.TaskEvent{
			TaskID:   req.TaskID,
			Type:     models.EventComplete,
			Progress: 100,
			Message:  "generation complete",
			Result:   result,
		})
		return
	}
	w.metrics.ObserveCache(false)

	task := models.NewTask(req)
	start := time.Now()
	task = w.engine.Execute(ctx, task)

	w.metrics.TasksTotal.WithLabelValues(string(task.Status)).Inc()
	logger.Info("task finished",
		zap.String("status", string(task.Status)),
		zap.Int64("total_ms", task.TotalTimeMS),
		zap.Duration("wall", time.Since(start)),
	)
}
