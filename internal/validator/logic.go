package validator

import (
	"fmt"

	"github.com/appforge/ai-engine/internal/models"
)

// LogicValidator checks a logic definition against the architecture and
// layouts that precede it: blocks may only act on declared state and
// placed components.
type LogicValidator struct{}

// NewLogicValidator creates a logic validator
func NewLogicValidator() *LogicValidator {
	return &LogicValidator{}
}

// Validate returns all findings for the definition
func (v *LogicValidator) Validate(def *models.LogicDefinition, design *models.ArchitectureDesign, layouts map[string]*models.ScreenLayout) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	declared := make(map[string]bool, len(design.StateVars))
	for _, sv := range design.StateVars {
		declared[sv.Name] = true
	}

	for _, wv := range def.Variables {
		if !declared[wv.Name] {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    wv.ID,
				Message:    fmt.Sprintf("workspace variable %q has no matching state variable", wv.Name),
				Suggestion: "declare it in the architecture's state management",
			})
		}
	}

	componentIDs := make(map[string]bool)
	for _, layout := range layouts {
		for _, c := range layout.Components {
			componentIDs[c.ID] = true
		}
	}

	blockIDs := make(map[string]bool, len(def.Blocks))
	for _, block := range def.Blocks {
		if blockIDs[block.ID] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: block.ID,
				Message: fmt.Sprintf("duplicate block id %q", block.ID),
			})
		}
		blockIDs[block.ID] = true
	}

	for _, block := range def.Blocks {
		if block.Variable != "" && !declared[block.Variable] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: block.ID,
				Message: fmt.Sprintf("block %q references undeclared state variable %q", block.ID, block.Variable),
			})
		}

		// Only checkable once layouts exist; an empty layout set means
		// the stage ran without them.
		if block.ComponentID != "" && len(componentIDs) > 0 && !componentIDs[block.ComponentID] {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    block.ID,
				Message:    fmt.Sprintf("block %q is bound to unknown component %q", block.ID, block.ComponentID),
				Suggestion: "bind the block to a component placed on a screen",
			})
		}

		for _, child := range block.Children {
			if !blockIDs[child] {
				warnings = append(warnings, models.ValidationWarning{
					Level:   models.LevelError,
					Subject: block.ID,
					Message: fmt.Sprintf("block %q nests unknown block %q", block.ID, child),
				})
			}
		}
	}

	return warnings
}
