package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/metrics"
	"github.com/appforge/ai-engine/internal/models"
)

type recordingSink struct {
	events []models.TaskEvent
}

func (s *recordingSink) PublishEvent(event models.TaskEvent) {
	s.events = append(s.events, event)
}

func newTestEngine(stages []Stage, sink *recordingSink) *Engine {
	m := metrics.New(prometheus.NewRegistry())
	return NewEngine(stages, sink, m, zap.NewNop())
}

func newTestTask() *models.Task {
	return models.NewTask(models.TaskRequest{
		TaskID:    "t1",
		UserID:    "u1",
		SessionID: "s1",
		Prompt:    "create a counter app",
	})
}

func okStage(name string) Stage {
	return Stage{Name: name, Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
		return nil
	}}
}

func TestExecuteRunsStagesInOrder(t *testing.T) {
	var order []string
	stage := func(name string) Stage {
		return Stage{Name: name, Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
			order = append(order, name)
			return nil
		}}
	}

	sink := &recordingSink{}
	e := newTestEngine([]Stage{stage("one"), stage("two"), stage("three")}, sink)
	task := e.Execute(context.Background(), newTestTask())

	want := []string{"one", "two", "three"}
	if len(order) != len(want) {
		t.Fatalf("ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("ran %v, want %v", order, want)
		}
	}
	if task.Status != models.TaskStatusComplete {
		t.Errorf("status = %s, want complete", task.Status)
	}
	for _, name := range want {
		if _, ok := task.StageTimings[name]; !ok {
			t.Errorf("missing timing for stage %s", name)
		}
	}
}

func TestExecuteCriticalFailureStopsPipeline(t *testing.T) {
	ran := false
	stages := []Stage{
		okStage("first"),
		{Name: "boom", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
			return errors.New("provider melted")
		}},
		{Name: "after", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
			ran = true
			return nil
		}},
	}

	sink := &recordingSink{}
	task := newTestEngine(stages, sink).Execute(context.Background(), newTestTask())

	if ran {
		t.Error("stage after critical failure still ran")
	}
	if task.Status != models.TaskStatusFailed {
		t.Errorf("status = %s, want failed", task.Status)
	}
	if _, ok := task.StageTimings["boom_error"]; !ok {
		t.Error("failed stage timing not recorded under boom_error")
	}
	if len(task.Errors) != 1 || task.Errors[0].Stage != "boom" {
		t.Errorf("errors = %+v, want one entry for boom", task.Errors)
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != models.EventError || last.Stage != "boom" {
		t.Errorf("terminal event = %+v, want error at boom", last)
	}
	// User-visible message stays generic; detail lives in the task's
	// error log.
	if last.Message != "processing failed at stage boom" {
		t.Errorf("message = %q", last.Message)
	}
}

func TestExecuteNonCriticalFailureContinues(t *testing.T) {
	stages := []Stage{
		{Name: "flaky", Critical: false, Run: func(ctx context.Context, tc *TaskContext) error {
			return errors.New("history unavailable")
		}},
		okStage("rest"),
	}

	sink := &recordingSink{}
	task := newTestEngine(stages, sink).Execute(context.Background(), newTestTask())

	if task.Status != models.TaskStatusComplete {
		t.Errorf("status = %s, want complete", task.Status)
	}
	if _, ok := task.StageTimings["flaky_error"]; !ok {
		t.Error("non-critical failure timing not recorded")
	}
	if len(task.Errors) != 1 {
		t.Errorf("errors = %+v, want the flaky failure recorded", task.Errors)
	}
}

func TestExecuteProgressEventsMonotonic(t *testing.T) {
	sink := &recordingSink{}
	stages := []Stage{okStage("a"), okStage("b"), okStage("c")}
	newTestEngine(stages, sink).Execute(context.Background(), newTestTask())

	if sink.events[0].Progress != 0 || sink.events[0].Type != models.EventProgress {
		t.Errorf("first event = %+v, want progress 0", sink.events[0])
	}
	last := sink.events[len(sink.events)-1]
	if last.Progress != 100 || last.Type != models.EventComplete {
		t.Errorf("last event = %+v, want complete 100", last)
	}

	prev := -1
	for _, ev := range sink.events {
		if ev.Progress < prev {
			t.Fatalf("progress decreased: %d after %d", ev.Progress, prev)
		}
		prev = ev.Progress
	}
}

func TestExecuteHaltStopsWithoutFailure(t *testing.T) {
	ran := false
	stages := []Stage{
		{Name: "gate", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
			tc.Halt(models.TaskStatusRejected, "cannot help with that")
			return nil
		}},
		{Name: "after", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
			ran = true
			return nil
		}},
	}

	sink := &recordingSink{}
	task := newTestEngine(stages, sink).Execute(context.Background(), newTestTask())

	if ran {
		t.Error("stage after halt still ran")
	}
	if task.Status != models.TaskStatusRejected {
		t.Errorf("status = %s, want rejected", task.Status)
	}
	last := sink.events[len(sink.events)-1]
	if last.Type != models.EventComplete || last.Message != "cannot help with that" {
		t.Errorf("terminal event = %+v", last)
	}
	if len(task.Errors) != 0 {
		t.Errorf("halt recorded errors: %+v", task.Errors)
	}
}

func TestExecuteCancellationPreservesTimings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stages := []Stage{
		{Name: "first", Critical: true, Run: func(c context.Context, tc *TaskContext) error {
			return nil
		}},
		{Name: "slow", Critical: true, Run: func(c context.Context, tc *TaskContext) error {
			cancel()
			return c.Err()
		}},
		okStage("never"),
	}

	sink := &recordingSink{}
	task := newTestEngine(stages, sink).Execute(ctx, newTestTask())

	if task.Status != models.TaskStatusCancelled {
		t.Errorf("status = %s, want cancelled", task.Status)
	}
	if _, ok := task.StageTimings["first"]; !ok {
		t.Error("completed stage timing lost on cancellation")
	}
	if _, ok := task.StageTimings["never"]; ok {
		t.Error("stage after cancellation has a timing")
	}

	last := sink.events[len(sink.events)-1]
	if last.Type != models.EventError {
		t.Errorf("terminal event type = %s, want error", last.Type)
	}
	if len(task.Errors) == 0 {
		t.Error("cancellation left no error record")
	}
}

func TestExecuteDeterministicApartFromTimings(t *testing.T) {
	build := func() []Stage {
		return []Stage{
			{Name: "classify", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
				tc.Classification = &models.ClassificationResult{
					IntentType: models.IntentNewApp,
					Confidence: models.ConfidenceBreakdown{Overall: 0.9},
				}
				return nil
			}},
			{Name: "architecture", Critical: true, Run: func(ctx context.Context, tc *TaskContext) error {
				tc.Architecture = &models.ArchitectureDesign{AppType: "counter_app"}
				return nil
			}},
		}
	}

	run := func() *models.Task {
		sink := &recordingSink{}
		return newTestEngine(build(), sink).Execute(context.Background(), newTestTask())
	}

	a, b := run(), run()
	if a.Status != b.Status {
		t.Errorf("status differs: %s vs %s", a.Status, b.Status)
	}
	if fmt.Sprintf("%+v", a.Result) != fmt.Sprintf("%+v", b.Result) {
		t.Errorf("results differ:\n%+v\n%+v", a.Result, b.Result)
	}
}

func TestExecuteTotalTimeIsSumOfStageTimings(t *testing.T) {
	sink := &recordingSink{}
	stages := []Stage{okStage("a"), okStage("b")}
	task := newTestEngine(stages, sink).Execute(context.Background(), newTestTask())

	var sum int64
	for _, ms := range task.StageTimings {
		sum += ms
	}
	if task.TotalTimeMS != sum {
		t.Errorf("TotalTimeMS = %d, want sum of stage timings %d", task.TotalTimeMS, sum)
	}
}
