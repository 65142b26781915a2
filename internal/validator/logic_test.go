package validator

import (
	"testing"

	"github.com/appforge/ai-engine/internal/models"
)

func logicDesign() *models.ArchitectureDesign {
	return &models.ArchitectureDesign{
		AppType: "counter_app",
		Screens: []models.Screen{{
			ID: "main", Name: "Main", Purpose: "count things up and down",
			Components: []string{"Text", "Button"}, Navigation: []string{},
		}},
		StateVars: []models.StateVariable{
			{Name: "counter", Type: "local-state", Scope: "screen", InitialValue: 0},
		},
	}
}

func logicLayouts() map[string]*models.ScreenLayout {
	return map[string]*models.ScreenLayout{
		"main": {
			ScreenID: "main",
			Components: []models.LayoutComponent{
				{ID: "comp_main_0", Type: "Text", Box: models.Box{Left: 47, Top: 64, Width: 280, Height: 40}},
				{ID: "comp_main_1", Type: "Button", Box: models.Box{Left: 127, Top: 120, Width: 120, Height: 44}},
			},
		},
	}
}

func TestValidateLogicCleanDefinition(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{{
			ID: "block_0", Type: "component_event", ComponentID: "comp_main_1",
			Event: "onPress", Variable: "counter", Expression: "counter + 1",
		}},
		Variables: []models.LogicVariable{
			{ID: "var_0", Name: "counter", Type: "local-state"},
		},
	}

	warnings := v.Validate(def, logicDesign(), logicLayouts())
	if len(warnings) != 0 {
		t.Errorf("clean definition produced findings: %+v", warnings)
	}
}

func TestValidateLogicUndeclaredVariableIsError(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{{
			ID: "block_0", Type: "component_event", ComponentID: "comp_main_1",
			Event: "onPress", Variable: "ghost", Expression: "ghost + 1",
		}},
		Variables: []models.LogicVariable{},
	}

	warnings := v.Validate(def, logicDesign(), logicLayouts())
	if !models.HasErrors(warnings) {
		t.Error("undeclared state variable reference not flagged as error")
	}
}

func TestValidateLogicUnknownComponentIsWarning(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{{
			ID: "block_0", Type: "component_event", ComponentID: "comp_main_9",
			Event: "onPress", Variable: "counter", Expression: "counter + 1",
		}},
		Variables: []models.LogicVariable{
			{ID: "var_0", Name: "counter", Type: "local-state"},
		},
	}

	warnings := v.Validate(def, logicDesign(), logicLayouts())
	if models.HasErrors(warnings) {
		t.Errorf("unknown component binding escalated to error: %+v", warnings)
	}
	if models.CountLevel(warnings, models.LevelWarning) != 1 {
		t.Errorf("warnings = %+v, want exactly one for the unknown component", warnings)
	}
}

func TestValidateLogicUnknownComponentSkippedWithoutLayouts(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{{
			ID: "block_0", Type: "component_event", ComponentID: "comp_main_9",
			Event: "onPress", Variable: "counter", Expression: "counter + 1",
		}},
		Variables: []models.LogicVariable{
			{ID: "var_0", Name: "counter", Type: "local-state"},
		},
	}

	warnings := v.Validate(def, logicDesign(), nil)
	if len(warnings) != 0 {
		t.Errorf("component binding checked without layouts: %+v", warnings)
	}
}

func TestValidateLogicDuplicateBlockIDsIsError(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{
			{ID: "block_0", Type: "component_event", Variable: "counter"},
			{ID: "block_0", Type: "state_set", Variable: "counter"},
		},
		Variables: []models.LogicVariable{
			{ID: "var_0", Name: "counter", Type: "local-state"},
		},
	}

	if !models.HasErrors(v.Validate(def, logicDesign(), logicLayouts())) {
		t.Error("duplicate block id not flagged as error")
	}
}

func TestValidateLogicUnknownChildIsError(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{{
			ID: "block_0", Type: "component_event", ComponentID: "comp_main_1",
			Event: "onPress", Children: []string{"block_9"},
		}},
		Variables: []models.LogicVariable{},
	}

	if !models.HasErrors(v.Validate(def, logicDesign(), logicLayouts())) {
		t.Error("nested reference to unknown block not flagged as error")
	}
}

func TestValidateLogicOrphanWorkspaceVariableIsWarning(t *testing.T) {
	v := NewLogicValidator()
	def := &models.LogicDefinition{
		Blocks: []models.LogicBlock{},
		Variables: []models.LogicVariable{
			{ID: "var_0", Name: "score", Type: "local-state"},
		},
	}

	warnings := v.Validate(def, logicDesign(), logicLayouts())
	if models.HasErrors(warnings) {
		t.Errorf("orphan workspace variable escalated to error: %+v", warnings)
	}
	if models.CountLevel(warnings, models.LevelWarning) != 1 {
		t.Errorf("warnings = %+v, want exactly one for the orphan variable", warnings)
	}
}
