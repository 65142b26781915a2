package models

import (
	"time"
)

// IntentType classifies what the user is asking for
type IntentType string

const (
	IntentNewApp        IntentType = "new_app"
	IntentExtendApp     IntentType = "extend_app"
	IntentModifyApp     IntentType = "modify_app"
	IntentClarification IntentType = "clarification"
	IntentHelp          IntentType = "help"
	IntentUnsafe        IntentType = "unsafe"
)

// Complexity estimates the size of the requested app
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// SafetyStatus is the safety classification of a request
type SafetyStatus string

const (
	SafetySafe       SafetyStatus = "safe"
	SafetySuspicious SafetyStatus = "suspicious"
	SafetyUnsafe     SafetyStatus = "unsafe"
)

// Action is the recommendation produced by the confidence gate
type Action string

const (
	ActionProceed     Action = "proceed"
	ActionClarify     Action = "clarify"
	ActionBlockModify Action = "block_modify"
	ActionBlockExtend Action = "block_extend"
	ActionReject      Action = "reject"
)

// TierID identifies one provider tier in the fallback chain
type TierID string

const (
	TierClaude    TierID = "claude"
	TierGroq      TierID = "groq"
	TierHeuristic TierID = "heuristic"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusComplete  TaskStatus = "complete"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusRejected  TaskStatus = "rejected"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskRequest is the inbound queue message that starts a task
type TaskRequest struct {
	TaskID    string         `json:"task_id"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Prompt    string         `json:"prompt"`
	Context   map[string]any `json:"context,omitempty"`
}

// StageError records a stage failure inside a task
type StageError struct {
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskResult is the terminal artifact bundle of a successful task
type TaskResult struct {
	Classification *ClassificationResult    `json:"classification,omitempty"`
	Architecture   *ArchitectureDesign      `json:"architecture,omitempty"`
	Layouts        map[string]*ScreenLayout `json:"layouts,omitempty"`
	Logic          *LogicDefinition         `json:"logic,omitempty"`
	CacheHit       bool                     `json:"cache_hit"`
}

// Task carries all per-request state through the pipeline.
// It is owned by exactly one goroutine for its whole lifetime.
type Task struct {
	ID        string         `json:"task_id"`
	UserID    string         `json:"user_id"`
	SessionID string         `json:"session_id"`
	Prompt    string         `json:"prompt"`
	Context   map[string]any `json:"context,omitempty"`

	Status       TaskStatus          `json:"status"`
	StageTimings map[string]int64    `json:"stage_timings_ms"`
	Errors       []StageError        `json:"errors,omitempty"`
	Warnings     []ValidationWarning `json:"warnings,omitempty"`
	Result       *TaskResult         `json:"result,omitempty"`
	TotalTimeMS  int64               `json:"total_time_ms"`
	CreatedAt    time.Time           `json:"created_at"`
}

// NewTask creates a task from an inbound request
func NewTask(req TaskRequest) *Task {
	return &Task{
		ID:           req.TaskID,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		Prompt:       req.Prompt,
		Context:      req.Context,
		Status:       TaskStatusPending,
		StageTimings: make(map[string]int64),
		CreatedAt:    time.Now().UTC(),
	}
}

// EventType categorizes outbound task events
type EventType string

const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// TaskEvent is published on the outbound channel while a task runs
type TaskEvent struct {
	TaskID   string      `json:"task_id"`
	Type     EventType   `json:"type"`
	Stage    string      `json:"stage,omitempty"`
	Progress int         `json:"progress,omitempty"`
	Message  string      `json:"message"`
	Result   *TaskResult `json:"result,omitempty"`
}

// ProviderAttempt records one retry attempt against one tier.
// Immutable once created.
type ProviderAttempt struct {
	Tier      TierID  `json:"tier"`
	Attempt   int     `json:"attempt_number"`
	Success   bool    `json:"success"`
	LatencyMS int64   `json:"latency_ms"`
	Error     string  `json:"error_message,omitempty"`
	CostUSD   float64 `json:"estimated_cost_usd,omitempty"`
}

// ConfidenceBreakdown is the per-dimension confidence scoring of a classification
type ConfidenceBreakdown struct {
	Overall    float64 `json:"overall"`
	Intent     float64 `json:"intent_confidence"`
	Complexity float64 `json:"complexity_confidence"`
	Entity     float64 `json:"entity_confidence"`
	Safety     float64 `json:"safety_confidence"`
}

// DimensionMean returns the mean of the four per-dimension scores
func (c ConfidenceBreakdown) DimensionMean() float64 {
	return (c.Intent + c.Complexity + c.Entity + c.Safety) / 4.0
}

// Normalize forces Overall back to the dimension mean when the two diverge
// by more than 0.2. Returns true if a correction was applied.
func (c *ConfidenceBreakdown) Normalize() bool {
	mean := c.DimensionMean()
	if diff := c.Overall - mean; diff > 0.2 || diff < -0.2 {
		c.Overall = mean
		return true
	}
	return false
}

// ExtractedEntities holds entities pulled out of the user prompt
type ExtractedEntities struct {
	Components []string `json:"components"`
	Actions    []string `json:"actions"`
	DataTypes  []string `json:"data_types"`
	Features   []string `json:"features"`
	Screens    []string `json:"screens,omitempty"`
}

// ClassificationResult is the output of the classify stage
type ClassificationResult struct {
	IntentType  IntentType          `json:"intent_type"`
	Complexity  Complexity          `json:"complexity"`
	Confidence  ConfidenceBreakdown `json:"confidence"`
	Entities    ExtractedEntities   `json:"extracted_entities"`
	Safety      SafetyStatus        `json:"safety_status"`
	Action      Action              `json:"action_recommendation"`
	UserMessage string              `json:"user_message,omitempty"`
	TierUsed    TierID              `json:"tier_used"`
	Attempts    []ProviderAttempt   `json:"tier_attempts,omitempty"`
	LatencyMS   int64               `json:"total_latency_ms"`
}

// WarningLevel grades validation findings
type WarningLevel string

const (
	LevelInfo    WarningLevel = "info"
	LevelWarning WarningLevel = "warning"
	LevelError   WarningLevel = "error"
)

// ValidationWarning is a single finding produced by a validator
type ValidationWarning struct {
	Level      WarningLevel `json:"level"`
	Subject    string       `json:"subject"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// HasErrors reports whether any warning in the list is error level
func HasErrors(warnings []ValidationWarning) bool {
	for _, w := range warnings {
		if w.Level == LevelError {
			return true
		}
	}
	return false
}

// CountLevel counts warnings of the given level
func CountLevel(warnings []ValidationWarning, level WarningLevel) int {
	n := 0
	for _, w := range warnings {
		if w.Level == level {
			n++
		}
	}
	return n
}
