package gate

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
)

func newTestGate() *ConfidenceGate {
	return New(0.70, 0.60, zap.NewNop())
}

func classification(intent models.IntentType, overall float64, safety models.SafetyStatus) *models.ClassificationResult {
	return &models.ClassificationResult{
		IntentType: intent,
		Safety:     safety,
		Confidence: models.ConfidenceBreakdown{Overall: overall},
	}
}

func TestDecideActions(t *testing.T) {
	cases := []struct {
		name    string
		intent  models.IntentType
		overall float64
		safety  models.SafetyStatus
		want    models.Action
	}{
		{"high confidence new app", models.IntentNewApp, 0.9, models.SafetySafe, models.ActionProceed},
		{"exactly at proceed threshold", models.IntentNewApp, 0.70, models.SafetySafe, models.ActionProceed},
		{"just below proceed threshold", models.IntentNewApp, 0.69, models.SafetySafe, models.ActionClarify},
		{"low confidence new app", models.IntentNewApp, 0.4, models.SafetySafe, models.ActionClarify},
		{"low confidence extend", models.IntentExtendApp, 0.55, models.SafetySafe, models.ActionBlockExtend},
		{"low confidence modify", models.IntentModifyApp, 0.55, models.SafetySafe, models.ActionBlockModify},
		{"mid confidence modify clarifies", models.IntentModifyApp, 0.65, models.SafetySafe, models.ActionClarify},
		{"high confidence modify proceeds", models.IntentModifyApp, 0.85, models.SafetySafe, models.ActionProceed},
		{"unsafe flag rejects", models.IntentNewApp, 0.95, models.SafetyUnsafe, models.ActionReject},
		{"unsafe intent rejects", models.IntentUnsafe, 0.95, models.SafetySafe, models.ActionReject},
	}

	g := newTestGate()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := classification(tc.intent, tc.overall, tc.safety)
			if got := g.Decide(c); got != tc.want {
				t.Errorf("Decide() = %s, want %s", got, tc.want)
			}
			if c.Action != tc.want {
				t.Errorf("classification.Action = %s, want %s", c.Action, tc.want)
			}
		})
	}
}

func TestRejectWinsOverEverything(t *testing.T) {
	g := newTestGate()
	// Unsafe plus low-confidence modify: safety takes priority
	c := classification(models.IntentModifyApp, 0.3, models.SafetyUnsafe)
	if got := g.Decide(c); got != models.ActionReject {
		t.Fatalf("Decide() = %s, want reject", got)
	}
	if !strings.Contains(c.UserMessage, "cannot help") {
		t.Errorf("UserMessage = %q, want the rejection wording", c.UserMessage)
	}
}

func TestProceedClearsUserMessage(t *testing.T) {
	g := newTestGate()
	c := classification(models.IntentNewApp, 0.9, models.SafetySafe)
	g.Decide(c)
	if c.UserMessage != "" {
		t.Errorf("UserMessage = %q, want empty on proceed", c.UserMessage)
	}
}

func TestClarifyMessageNamesIntent(t *testing.T) {
	g := newTestGate()
	c := classification(models.IntentNewApp, 0.5, models.SafetySafe)
	g.Decide(c)
	if !strings.Contains(c.UserMessage, "create a new app") {
		t.Errorf("UserMessage = %q, want the intent phrase", c.UserMessage)
	}
}
