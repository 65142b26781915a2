// Package gate decides what happens to a classified request: proceed with
// generation, ask the user to clarify, block a risky change, or reject it.
package gate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
)

const (
	msgUnsafe = "I cannot help with that request as it appears to involve " +
		"potentially harmful or malicious functionality. " +
		"If you have a legitimate use case, please rephrase your request " +
		"to focus on the constructive aspects."

	msgClarify = "I understand you want to %s, but I need a bit more " +
		"information to ensure I build exactly what you're looking for. " +
		"Could you provide more details about:\n" +
		"- What specific features do you need?\n" +
		"- What should the app do?\n" +
		"- Any specific components or interactions?"

	msgExtendBlocked = "I'm not confident about extending the existing app based on " +
		"your request. To avoid breaking anything, could you:\n" +
		"1. Be more specific about what to add\n" +
		"2. Describe where it should be added\n" +
		"3. Explain how it should work"

	msgModifyBlocked = "I'm not confident about modifying the existing app. " +
		"To ensure I make the right changes, please specify:\n" +
		"1. Exactly what needs to change\n" +
		"2. What it should become\n" +
		"3. Any specific requirements"
)

var intentPhrases = map[models.IntentType]string{
	models.IntentNewApp:        "create a new app",
	models.IntentExtendApp:     "extend your app",
	models.IntentModifyApp:     "modify your app",
	models.IntentClarification: "learn more about your app",
	models.IntentHelp:          "get help",
	models.IntentUnsafe:        "do something I cannot assist with",
}

// ConfidenceGate maps a classification to an action recommendation.
// Rules apply in strict priority order: safety first, then the stricter
// threshold for mutations of an existing app, then general clarity.
type ConfidenceGate struct {
	ProceedThreshold  float64 // below this, ask for clarification
	MutationThreshold float64 // below this, block extend/modify

	logger *zap.Logger
}

// New creates a gate with the given thresholds
func New(proceedThreshold, mutationThreshold float64, logger *zap.Logger) *ConfidenceGate {
	return &ConfidenceGate{
		ProceedThreshold:  proceedThreshold,
		MutationThreshold: mutationThreshold,
		logger:            logger,
	}
}

// Decide sets Action and UserMessage on the classification and returns the
// chosen action
func (g *ConfidenceGate) Decide(c *models.ClassificationResult) models.Action {
	action, message := g.evaluate(c)
	c.Action = action
	c.UserMessage = message

	if action != models.ActionProceed {
		g.logger.Info("generation gated",
			zap.String("action", string(action)),
			zap.String("intent", string(c.IntentType)),
			zap.Float64("confidence", c.Confidence.Overall),
		)
	}
	return action
}

func (g *ConfidenceGate) evaluate(c *models.ClassificationResult) (models.Action, string) {
	if c.Safety == models.SafetyUnsafe || c.IntentType == models.IntentUnsafe {
		return models.ActionReject, msgUnsafe
	}

	overall := c.Confidence.Overall
	if overall < g.MutationThreshold {
		switch c.IntentType {
		case models.IntentModifyApp:
			return models.ActionBlockModify, msgModifyBlocked
		case models.IntentExtendApp:
			return models.ActionBlockExtend, msgExtendBlocked
		}
	}

	if overall < g.ProceedThreshold {
		phrase, ok := intentPhrases[c.IntentType]
		if !ok {
			phrase = "build something"
		}
		return models.ActionClarify, fmt.Sprintf(msgClarify, phrase)
	}

	return models.ActionProceed, ""
}
