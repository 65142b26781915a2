package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
)

// HeuristicTier is the zero-dependency final tier. It classifies by keyword
// patterns and generates template artifacts deterministically. It must never
// fail: the orchestrator's forward-progress guarantee rests on it.
type HeuristicTier struct {
	logger *zap.Logger
}

// NewHeuristicTier creates the heuristic fallback tier
func NewHeuristicTier(logger *zap.Logger) *HeuristicTier {
	return &HeuristicTier{logger: logger}
}

// Name implements Provider
func (t *HeuristicTier) Name() models.TierID { return models.TierHeuristic }

// Generate implements Provider. Always succeeds.
func (t *HeuristicTier) Generate(ctx context.Context, req *Request) (*Response, error) {
	resp := &Response{Model: "heuristic"}

	switch req.Kind {
	case KindClassify:
		resp.Classification = t.classify(req.Prompt, req.Context)
	case KindArchitecture:
		resp.Architecture = t.architecture(req.Prompt)
	case KindLayout:
		resp.Layout = t.layout(req)
	case KindLogic:
		resp.Logic = t.logic(req.Architecture)
	default:
		// Unknown kinds still get a safe classification so the chain
		// terminates.
		resp.Classification = t.classify(req.Prompt, req.Context)
	}

	t.logger.Debug("heuristic generation complete", zap.String("kind", string(req.Kind)))
	return resp, nil
}

// HealthCheck implements Provider
func (t *HeuristicTier) HealthCheck(ctx context.Context) bool { return true }

var intentKeywords = map[models.IntentType][]string{
	models.IntentNewApp:        {"create", "build", "make", "generate", "new", "develop", "design", "construct", "start"},
	models.IntentExtendApp:     {"add", "extend", "include", "also", "plus", "additionally", "append", "insert"},
	models.IntentModifyApp:     {"change", "modify", "update", "fix", "replace", "alter", "edit", "adjust", "revise"},
	models.IntentClarification: {"what", "how", "why", "explain", "tell", "show", "understand", "mean"},
	models.IntentHelp:          {"help", "assist", "guide", "tutorial", "support", "documentation", "stuck"},
}

var unsafeKeywords = []string{
	"hack", "exploit", "crack", "bypass", "steal", "malware", "virus", "phishing", "scam",
}

var componentAliases = map[string][]string{
	"Button":      {"button", "btn", "click", "press", "tap"},
	"InputText":   {"input", "text field", "textbox", "entry", "field"},
	"Text":        {"label", "heading", "title", "paragraph", "display"},
	"Switch":      {"switch", "toggle", "option"},
	"Checkbox":    {"checkbox", "check"},
	"Slider":      {"slider", "range", "scale"},
	"ProgressBar": {"progress"},
	"Map":         {"map", "location", "gps"},
	"Chart":       {"chart", "graph", "plot", "visualization"},
}

var complexKeywords = []string{
	"advanced", "complete", "full", "comprehensive", "authentication",
	"api", "database", "backend", "payment", "integration", "analytics",
}

// classify produces a deterministic keyword-based classification. Confidence
// is intentionally modest so the gate asks for clarification on vague input.
func (t *HeuristicTier) classify(prompt string, contextData map[string]any) *models.ClassificationResult {
	lower := strings.ToLower(prompt)
	words := strings.Fields(lower)

	safety := models.SafetySafe
	for _, kw := range unsafeKeywords {
		if strings.Contains(lower, kw) {
			safety = models.SafetyUnsafe
			break
		}
	}

	intent := models.IntentClarification
	bestScore := 0
	for candidate, keywords := range intentKeywords {
		score := 0
		for _, kw := range keywords {
			if containsWord(words, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			intent = candidate
		}
	}
	if safety == models.SafetyUnsafe {
		intent = models.IntentUnsafe
	}
	// Extend/modify only make sense against an existing project
	if intent == models.IntentExtendApp || intent == models.IntentModifyApp {
		if contextData == nil || contextData["has_existing_project"] == nil {
			if bestScore < 2 {
				intent = models.IntentNewApp
			}
		}
	}

	complexity := models.ComplexitySimple
	switch {
	case containsAny(lower, complexKeywords):
		complexity = models.ComplexityComplex
	case len(words) > 15:
		complexity = models.ComplexityMedium
	}

	entities := models.ExtractedEntities{
		Components: []string{},
		Actions:    []string{},
		DataTypes:  []string{},
		Features:   []string{},
	}
	for component, aliases := range componentAliases {
		for _, alias := range aliases {
			if strings.Contains(lower, alias) {
				entities.Components = append(entities.Components, component)
				break
			}
		}
	}

	// Keyword matching is crude: score confidence low enough that only
	// clearly phrased requests proceed without clarification.
	intentConfidence := 0.5
	if bestScore >= 2 {
		intentConfidence = 0.75
	}
	safetyConfidence := 0.9
	entityConfidence := 0.5
	if len(entities.Components) > 0 {
		entityConfidence = 0.7
	}
	confidence := models.ConfidenceBreakdown{
		Intent:     intentConfidence,
		Complexity: 0.6,
		Entity:     entityConfidence,
		Safety:     safetyConfidence,
	}
	confidence.Overall = confidence.DimensionMean()

	return &models.ClassificationResult{
		IntentType: intent,
		Complexity: complexity,
		Confidence: confidence,
		Entities:   entities,
		Safety:     safety,
		TierUsed:   models.TierHeuristic,
	}
}

// architecture returns a template architecture for known app kinds, or a
// minimal generic app otherwise
func (t *HeuristicTier) architecture(prompt string) *models.ArchitectureDesign {
	lower := strings.ToLower(prompt)

	switch {
	case strings.Contains(lower, "counter"):
		return counterTemplate()
	case strings.Contains(lower, "todo") || strings.Contains(lower, "task") || strings.Contains(lower, "checklist"):
		return todoTemplate()
	default:
		return genericTemplate()
	}
}

func counterTemplate() *models.ArchitectureDesign {
	return &models.ArchitectureDesign{
		AppType: "counter_app",
		Screens: []models.Screen{{
			ID:         "main",
			Name:       "CounterScreen",
			Purpose:    "Display and update a counter value",
			Components: []string{"Text", "Button", "Button"},
			Navigation: []string{},
		}},
		Navigation: models.Navigation{Type: "single_screen", Routes: []models.Route{}},
		StateVars: []models.StateVariable{{
			Name: "counter", Type: "local-state", Scope: "screen", InitialValue: 0,
		}},
	}
}

func todoTemplate() *models.ArchitectureDesign {
	return &models.ArchitectureDesign{
		AppType: "todo_app",
		Screens: []models.Screen{{
			ID:         "main",
			Name:       "TodoScreen",
			Purpose:    "Add, view and complete todo items",
			Components: []string{"InputText", "Button", "Text"},
			Navigation: []string{},
		}},
		Navigation: models.Navigation{Type: "single_screen", Routes: []models.Route{}},
		StateVars: []models.StateVariable{
			{Name: "items", Type: "local-state", Scope: "screen", InitialValue: []any{}},
			{Name: "newItem", Type: "local-state", Scope: "screen", InitialValue: ""},
		},
	}
}

func genericTemplate() *models.ArchitectureDesign {
	return &models.ArchitectureDesign{
		AppType: "generic_app",
		Screens: []models.Screen{{
			ID:         "main",
			Name:       "MainScreen",
			Purpose:    "Primary screen generated from the user request",
			Components: []string{"Text", "Button"},
			Navigation: []string{},
		}},
		Navigation: models.Navigation{Type: "single_screen", Routes: []models.Route{}},
		StateVars:  []models.StateVariable{},
	}
}

// componentDefaults maps component types to default (width, height)
var componentDefaults = map[string][2]int{
	"Button": {120, 44}, "InputText": {280, 44}, "Switch": {51, 44},
	"Checkbox": {44, 44}, "TextArea": {280, 100}, "Slider": {280, 44},
	"Spinner": {40, 40}, "Text": {280, 40}, "Joystick": {100, 100},
	"ProgressBar": {280, 8}, "DatePicker": {280, 44}, "TimePicker": {280, 44},
	"ColorPicker": {280, 44}, "Map": {340, 200}, "Chart": {340, 200},
}

// layout stacks the screen's components vertically, centered, inside the
// safe area. Same geometry the collision resolver produces, so heuristic
// layouts validate clean by construction.
func (t *HeuristicTier) layout(req *Request) *models.ScreenLayout {
	canvas := req.Canvas
	if canvas.Width == 0 {
		canvas = models.Canvas{Width: 375, Height: 667, SafeAreaTop: 44, SafeAreaBottom: 34}
	}

	var componentTypes []string
	screenID := "main"
	if req.Screen != nil {
		componentTypes = req.Screen.Components
		screenID = req.Screen.ID
	}

	components := make([]models.LayoutComponent, 0, len(componentTypes))
	y := canvas.SafeAreaTop + 20
	for i, compType := range componentTypes {
		size, ok := componentDefaults[compType]
		if !ok {
			size = [2]int{280, 44}
		}
		box := models.Box{
			Left:   (canvas.Width - size[0]) / 2,
			Top:    y,
			Width:  size[0],
			Height: size[1],
		}
		components = append(components, models.LayoutComponent{
			ID:         fmt.Sprintf("comp_%s_%d", screenID, i),
			Type:       compType,
			Properties: map[string]models.PropertyValue{},
			Box:        box,
			ZIndex:     i,
		})
		y += size[1] + 16
	}

	return &models.ScreenLayout{
		ScreenID:   screenID,
		Canvas:     canvas,
		Components: components,
	}
}

// logic derives one workspace variable per state variable and a tap handler
// per button, bound to the first state variable when one exists
func (t *HeuristicTier) logic(arch *models.ArchitectureDesign) *models.LogicDefinition {
	def := &models.LogicDefinition{
		Blocks:    []models.LogicBlock{},
		Variables: []models.LogicVariable{},
	}
	if arch == nil {
		return def
	}

	for i, sv := range arch.StateVars {
		def.Variables = append(def.Variables, models.LogicVariable{
			ID:   fmt.Sprintf("var_%d", i),
			Name: sv.Name,
			Type: sv.Type,
		})
	}

	primaryVar := ""
	if len(arch.StateVars) > 0 {
		primaryVar = arch.StateVars[0].Name
	}

	blockN := 0
	for _, screen := range arch.Screens {
		for i, compType := range screen.Components {
			if compType != "Button" {
				continue
			}
			block := models.LogicBlock{
				ID:          fmt.Sprintf("block_%d", blockN),
				Type:        "component_event",
				ComponentID: fmt.Sprintf("comp_%s_%d", screen.ID, i),
				Event:       "onPress",
			}
			if primaryVar != "" {
				block.Variable = primaryVar
				block.Expression = primaryVar + " + 1"
			}
			def.Blocks = append(def.Blocks, block)
			blockN++
		}
	}

	return def
}

func containsWord(words []string, target string) bool {
	for _, w := range words {
		if strings.Trim(w, ".,!?;:\"'()") == target {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
