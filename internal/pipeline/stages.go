package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/cache"
	"github.com/appforge/ai-engine/internal/gate"
	"github.com/appforge/ai-engine/internal/metrics"
	"github.com/appforge/ai-engine/internal/models"
	"github.com/appforge/ai-engine/internal/orchestrator"
	"github.com/appforge/ai-engine/internal/provider"
	"github.com/appforge/ai-engine/internal/store"
	"github.com/appforge/ai-engine/internal/validator"
)

const historyLimit = 10

// Runner is the slice of the orchestrator the stages need
type Runner interface {
	Run(ctx context.Context, req *provider.Request) (*orchestrator.Result, error)
}

// Stages bundles the dependencies behind the default stage list
type Stages struct {
	Orchestrator Runner
	Gate         *gate.ConfidenceGate
	Graph        *validator.GraphValidator
	Geometry     *validator.GeometryValidator
	Resolver     *validator.CollisionResolver
	Logic        *validator.LogicValidator
	Canvas       models.Canvas
	Store        *store.Store
	Cache        *cache.ResultCache
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// generate runs the tier chain and records the per-tier attempt outcomes
func (s *Stages) generate(ctx context.Context, req *provider.Request) (*orchestrator.Result, error) {
	result, err := s.Orchestrator.Run(ctx, req)
	if s.Metrics != nil {
		var attempts []models.ProviderAttempt
		if result != nil {
			attempts = result.Attempts
		} else {
			var exhausted *orchestrator.AllTiersExhaustedError
			if errors.As(err, &exhausted) {
				attempts = exhausted.Attempts
			}
		}
		for _, a := range attempts {
			s.Metrics.ObserveAttempt(string(a.Tier), a.Success)
		}
	}
	return result, err
}

// Build returns the ordered stage list for the engine
func (s *Stages) Build() []Stage {
	return []Stage{
		{Name: "classify", Critical: true, Run: s.classify},
		{Name: "build_context", Critical: false, Run: s.buildContext},
		{Name: "architecture", Critical: true, Run: s.architecture},
		{Name: "layout", Critical: true, Run: s.layout},
		{Name: "logic", Critical: false, Run: s.logic},
		{Name: "persist", Critical: false, Run: s.persist},
		{Name: "cache_store", Critical: false, Run: s.cacheStore},
	}
}

// buildContext loads conversation history, the user's latest project and
// their preferences. Losing any of these degrades quality, not correctness.
func (s *Stages) buildContext(ctx context.Context, tc *TaskContext) error {
	task := tc.Task
	if task.Context == nil {
		task.Context = map[string]any{}
	}

	history, err := s.Store.History(ctx, task.UserID, task.SessionID, historyLimit)
	if err != nil {
		return fmt.Errorf("load conversation history: %w", err)
	}
	tc.History = history

	project, err := s.Store.LatestProject(ctx, task.UserID)
	switch {
	case err == nil:
		tc.Project = project
		task.Context["has_existing_project"] = true
		task.Context["project_name"] = project.Name
	case errors.Is(err, store.ErrNotFound):
		// First request from this user
	default:
		return fmt.Errorf("load latest project: %w", err)
	}

	prefs, err := s.Store.Preferences(ctx, task.UserID)
	if err != nil {
		return fmt.Errorf("load preferences: %w", err)
	}
	tc.Preferences = prefs

	return nil
}

// classify runs the tier chain for intent classification, then lets the
// gate decide whether generation continues
func (s *Stages) classify(ctx context.Context, tc *TaskContext) error {
	task := tc.Task

	result, err := s.generate(ctx, &provider.Request{
		Kind:      provider.KindClassify,
		Prompt:    task.Prompt,
		UserID:    task.UserID,
		SessionID: task.SessionID,
		Context:   task.Context,
	})
	if err != nil {
		return fmt.Errorf("classification: %w", err)
	}

	cls := result.Response.Classification
	cls.TierUsed = result.TierUsed
	cls.Attempts = result.Attempts
	for _, a := range result.Attempts {
		cls.LatencyMS += a.LatencyMS
	}
	tc.Classification = cls

	switch s.Gate.Decide(cls) {
	case models.ActionReject:
		tc.Halt(models.TaskStatusRejected, cls.UserMessage)
		return nil
	case models.ActionClarify, models.ActionBlockModify, models.ActionBlockExtend:
		tc.Halt(models.TaskStatusComplete, cls.UserMessage)
		return nil
	}

	// Questions and help requests end here with a conversational answer;
	// only app-building intents continue into generation.
	switch cls.IntentType {
	case models.IntentNewApp, models.IntentExtendApp, models.IntentModifyApp:
		return nil
	default:
		tc.Halt(models.TaskStatusComplete, helpMessage(cls.IntentType))
		return nil
	}
}

func helpMessage(intent models.IntentType) string {
	if intent == models.IntentHelp {
		return "Tell me what kind of app you want to build and I will generate " +
			"its screens, layout and behavior. For example: \"create a counter " +
			"app with plus and minus buttons\"."
	}
	return "Happy to explain. Describe the app you have in mind, or ask about " +
		"a specific screen or component of your current project."
}

// architecture generates the screen/navigation design and verifies the
// graph is structurally sound before anything downstream consumes it
func (s *Stages) architecture(ctx context.Context, tc *TaskContext) error {
	task := tc.Task

	result, err := s.generate(ctx, &provider.Request{
		Kind:      provider.KindArchitecture,
		Prompt:    task.Prompt,
		UserID:    task.UserID,
		SessionID: task.SessionID,
		Context:   task.Context,
	})
	if err != nil {
		return fmt.Errorf("architecture generation: %w", err)
	}

	design := result.Response.Architecture
	findings := s.Graph.Validate(design)
	task.Warnings = append(task.Warnings, findings...)
	if models.HasErrors(findings) {
		return &validator.Error{Subject: "architecture", Findings: findings}
	}

	tc.Architecture = design
	return nil
}

// layout generates and repairs one layout per screen. Overlaps are fixed
// by collision resolution; anything the resolver cannot repair fails the
// stage.
func (s *Stages) layout(ctx context.Context, tc *TaskContext) error {
	task := tc.Task
	tc.Layouts = make(map[string]*models.ScreenLayout, len(tc.Architecture.Screens))

	for i := range tc.Architecture.Screens {
		screen := &tc.Architecture.Screens[i]

		result, err := s.generate(ctx, &provider.Request{
			Kind:      provider.KindLayout,
			Prompt:    task.Prompt,
			UserID:    task.UserID,
			SessionID: task.SessionID,
			Screen:    screen,
			Canvas:    s.Canvas,
		})
		if err != nil {
			return fmt.Errorf("layout generation for screen %s: %w", screen.ID, err)
		}

		layout := result.Response.Layout
		layout.ScreenID = screen.ID
		layout.Canvas = s.Canvas

		findings := s.Geometry.Validate(layout.Components)
		if models.HasErrors(findings) {
			layout.Components = s.Resolver.Resolve(layout.Components)
			findings = s.Geometry.Validate(layout.Components)
		}
		task.Warnings = append(task.Warnings, findings...)
		if models.HasErrors(findings) {
			return &validator.Error{Subject: "layout " + screen.ID, Findings: findings}
		}

		tc.Layouts[screen.ID] = layout
	}
	return nil
}

// logic wires component events to state. Losing it leaves a static but
// usable app, so the stage is non-critical.
func (s *Stages) logic(ctx context.Context, tc *TaskContext) error {
	task := tc.Task

	result, err := s.generate(ctx, &provider.Request{
		Kind:         provider.KindLogic,
		Prompt:       task.Prompt,
		UserID:       task.UserID,
		SessionID:    task.SessionID,
		Architecture: tc.Architecture,
		Layouts:      tc.Layouts,
	})
	if err != nil {
		return fmt.Errorf("logic generation: %w", err)
	}

	def := result.Response.Logic
	findings := s.Logic.Validate(def, tc.Architecture, tc.Layouts)
	task.Warnings = append(task.Warnings, findings...)
	if models.HasErrors(findings) {
		return &validator.Error{Subject: "logic", Findings: findings}
	}

	tc.Logic = def
	return nil
}

// persist records the conversation turn, saves new designs as projects and
// writes per-stage metrics
func (s *Stages) persist(ctx context.Context, tc *TaskContext) error {
	task := tc.Task

	if err := s.Store.AppendMessage(ctx, task.UserID, task.SessionID, "user", task.Prompt); err != nil {
		return err
	}
	summary := "generated app design"
	if tc.Architecture != nil {
		summary = fmt.Sprintf("generated %s with %d screens", tc.Architecture.AppType, len(tc.Architecture.Screens))
	}
	if err := s.Store.AppendMessage(ctx, task.UserID, task.SessionID, "assistant", summary); err != nil {
		return err
	}

	if tc.Architecture != nil && tc.Classification != nil && tc.Classification.IntentType == models.IntentNewApp {
		project := &store.Project{
			ID:      uuid.New(),
			UserID:  task.UserID,
			Name:    tc.Architecture.AppType,
			AppType: tc.Architecture.AppType,
			Design:  tc.Architecture,
		}
		if err := s.Store.SaveProject(ctx, project); err != nil {
			return err
		}
		tc.Project = project
	}

	for stage, ms := range task.StageTimings {
		metric := store.StageMetric{
			TaskID:     task.ID,
			Stage:      stage,
			DurationMS: ms,
			Success:    true,
		}
		if err := s.Store.AppendStageMetric(ctx, metric); err != nil {
			s.Logger.Warn("stage metric write failed",
				zap.String("task_id", task.ID),
				zap.String("stage", stage),
				zap.Error(err),
			)
		}
	}
	return nil
}

// cacheStore memoizes the finished result for identical future prompts
func (s *Stages) cacheStore(ctx context.Context, tc *TaskContext) error {
	if tc.Architecture == nil {
		// Gated or conversational outcomes are cheap to recompute and
		// depend on session state, so they are not cached.
		return nil
	}
	s.Cache.Set(ctx, tc.Task.UserID, tc.Task.Prompt, tc.Result())
	return nil
}
