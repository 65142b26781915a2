// Package pipeline runs the staged generation flow for one task: classify,
// build context, design architecture, lay out screens, wire logic.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/metrics"
	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/store"
)

var tracer = otel.Tracer("pipeline")

// StageError wraps a stage failure with its name and time
type StageError struct {
	Stage     string
	Timestamp time.Time
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// TaskContext is the mutable state a task accumulates while flowing
// through the stages. Owned by a single goroutine, never shared.
type TaskContext struct {
	Task *models.Task

	History     []store.Message
	Project     *store.Project
	Preferences map[string]any

	Classification *models.ClassificationResult
	Architecture   *models.ArchitectureDesign
	Layouts        map[string]*models.ScreenLayout
	Logic          *models.LogicDefinition

	halted      bool
	haltStatus  models.TaskStatus
	haltMessage string
}

// Halt stops the pipeline after the current stage without treating it as
// a failure. Used when the gate decides generation should not continue.
func (tc *TaskContext) Halt(status models.TaskStatus, message string) {
	tc.halted = true
	tc.haltStatus = status
	tc.haltMessage = message
}

// Result assembles the terminal artifact bundle from whatever the stages
// produced
func (tc *TaskContext) Result() *models.TaskResult {
	return &models.TaskResult{
		Classification: tc.Classification,
		Architecture:   tc.Architecture,
		Layouts:        tc.Layouts,
		Logic:          tc.Logic,
	}
}

// Stage is one named step of the pipeline. Non-critical stages log their
// failure and let the task continue.
type Stage struct {
	Name     string
	Critical bool
	Run      func(ctx context.Context, tc *TaskContext) error
}

// EventSink receives task lifecycle events
type EventSink interface {
	PublishEvent(event models.TaskEvent)
}

// Engine executes the stage list for each task
type Engine struct {
	stages  []Stage
	events  EventSink
	metrics *metrics.Metrics
	logger  *zap.Logger

	now func() time.Time
}

// NewEngine creates an engine over the given stages
func NewEngine(stages []Stage, events EventSink, m *metrics.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		stages:  stages,
		events:  events,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Execute runs all stages for the task and returns it in a terminal state.
// Progress events go out before the first stage (0%) and after every stage,
// with percentages that never decrease; the final event is complete or
// error at 100%. Stage timings survive failure and cancellation.
func (e *Engine) Execute(ctx context.Context, task *models.Task) *models.Task {
	tc := &TaskContext{Task: task}
	task.Status = models.TaskStatusRunning

	e.events.PublishEvent(models.TaskEvent{
		TaskID:   task.ID,
		Type:     models.EventProgress,
		Progress: 0,
		Message:  "processing started",
	})

	var total int64
	for i, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			e.abort(task, stage.Name, err, total)
			return task
		}

		stageCtx, span := tracer.Start(ctx, "stage."+stage.Name,
			trace.WithAttributes(attribute.String("task.id", task.ID)))
		start := e.now()
		err := stage.Run(stageCtx, tc)
		elapsed := e.now().Sub(start)
		if err != nil {
			span.RecordError(err)
		}
		span.End()
		elapsedMS := elapsed.Milliseconds()
		total += elapsedMS

		if err != nil {
			task.StageTimings[stage.Name+"_error"] = elapsedMS
			e.metrics.ObserveStage(stage.Name, elapsed.Seconds(), false)

			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				e.abort(task, stage.Name, err, total)
				return task
			}

			stageErr := &StageError{Stage: stage.Name, Timestamp: e.now().UTC(), Err: err}
			task.Errors = append(task.Errors, models.StageError{
				Stage:     stage.Name,
				Error:     err.Error(),
				Timestamp: stageErr.Timestamp,
			})
			if stage.Critical {
				e.logger.Error("pipeline stage failed",
					zap.String("task_id", task.ID),
					zap.String("stage", stage.Name),
					zap.Error(err),
				)
				task.Status = models.TaskStatusFailed
				task.TotalTimeMS = total
				e.events.PublishEvent(models.TaskEvent{
					TaskID:  task.ID,
					Type:    models.EventError,
					Stage:   stage.Name,
					Message: fmt.Sprintf("processing failed at stage %s", stage.Name),
				})
				return task
			}

			e.logger.Warn("non-critical stage failed, continuing",
				zap.String("task_id", task.ID),
				zap.String("stage", stage.Name),
				zap.Error(err),
			)
			continue
		}

		task.StageTimings[stage.Name] = elapsedMS
		e.metrics.ObserveStage(stage.Name, elapsed.Seconds(), true)

		if tc.halted {
			task.Status = tc.haltStatus
			task.Result = tc.Result()
			task.TotalTimeMS = total
			e.events.PublishEvent(models.TaskEvent{
				TaskID:   task.ID,
				Type:     models.EventComplete,
				Stage:    stage.Name,
				Progress: 100,
				Message:  tc.haltMessage,
				Result:   task.Result,
			})
			return task
		}

		e.events.PublishEvent(models.TaskEvent{
			TaskID:   task.ID,
			Type:     models.EventProgress,
			Stage:    stage.Name,
			Progress: (i + 1) * 100 / len(e.stages),
			Message:  fmt.Sprintf("stage %s complete", stage.Name),
		})
	}

	task.Status = models.TaskStatusComplete
	task.Result = tc.Result()
	task.TotalTimeMS = total
	e.events.PublishEvent(models.TaskEvent{
		TaskID:   task.ID,
		Type:     models.EventComplete,
		Progress: 100,
		Message:  "generation complete",
		Result:   task.Result,
	})
	return task
}

// abort finishes a cancelled task: partial timings are kept and a terminal
// error event still goes out
func (e *Engine) abort(task *models.Task, stage string, err error, total int64) {
	task.Status = models.TaskStatusCancelled
	task.TotalTimeMS = total
	task.Errors = append(task.Errors, models.StageError{
		Stage:     stage,
		Error:     err.Error(),
		Timestamp: e.now().UTC(),
	})
	e.events.PublishEvent(models.TaskEvent{
		TaskID:  task.ID,
		Type:    models.EventError,
		Stage:   stage,
		Message: fmt.Sprintf("processing cancelled at stage %s", stage),
	})
	e.logger.Warn("task cancelled",
		zap.String("task_id", task.ID),
		zap.String("stage", stage),
	)
}
