package models

// SupportedComponents is the closed set of component types the runtime can render
var SupportedComponents = map[string]bool{
	"Button": true, "InputText": true, "Switch": true, "Checkbox": true,
	"TextArea": true, "Slider": true, "Spinner": true, "Text": true,
	"Joystick": true, "ProgressBar": true, "DatePicker": true,
	"TimePicker": true, "ColorPicker": true, "Map": true, "Chart": true,
}

// InteractiveComponents must satisfy the minimum touch-target size
var InteractiveComponents = map[string]bool{
	"Button": true, "InputText": true, "Switch": true, "Checkbox": true,
	"TextArea": true, "Slider": true, "Joystick": true, "DatePicker": true,
	"TimePicker": true, "ColorPicker": true,
}

// Screen is one screen of the generated app
type Screen struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Purpose    string   `json:"purpose"`
	Components []string `json:"components"`
	Navigation []string `json:"navigation"`
}

// Route is a directed navigation edge between two screens
type Route struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Navigation describes how screens connect
type Navigation struct {
	Type   string  `json:"type"` // stack, tab, drawer, single_screen
	Routes []Route `json:"routes"`
}

// StateVariable is one piece of app state declared by the architecture
type StateVariable struct {
	Name         string `json:"name"`
	Type         string `json:"type"`  // local-state, global-state, async-state
	Scope        string `json:"scope"` // component, screen, global
	InitialValue any    `json:"initial_value,omitempty"`
}

// ArchitectureDesign is the structural plan of the generated app
type ArchitectureDesign struct {
	AppType    string          `json:"app_type"`
	Screens    []Screen        `json:"screens"`
	Navigation Navigation      `json:"navigation"`
	StateVars  []StateVariable `json:"state_management"`
}

// ScreenByID returns the screen with the given id, or nil
func (a *ArchitectureDesign) ScreenByID(id string) *Screen {
	for i := range a.Screens {
		if a.Screens[i].ID == id {
			return &a.Screens[i]
		}
	}
	return nil
}

// EntryScreenID returns the id of the entry screen (first declared)
func (a *ArchitectureDesign) EntryScreenID() string {
	if len(a.Screens) == 0 {
		return ""
	}
	return a.Screens[0].ID
}

// LogicBlock is one behavior block wiring a component event to state changes
type LogicBlock struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"` // component_event, state_set, navigation
	ComponentID string   `json:"component_id,omitempty"`
	Event       string   `json:"event,omitempty"`
	Variable    string   `json:"variable,omitempty"`
	Expression  string   `json:"expression,omitempty"`
	TargetID    string   `json:"target_id,omitempty"`
	Children    []string `json:"children,omitempty"`
}

// LogicVariable declares one workspace variable for the block editor
type LogicVariable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LogicDefinition is the full block workspace for the generated app
type LogicDefinition struct {
	Blocks    []LogicBlock    `json:"blocks"`
	Variables []LogicVariable `json:"variables"`
}
