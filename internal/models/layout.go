package models

import (
	"encoding/json"
	"fmt"
)

// PropertyKind distinguishes literal values from state bindings
type PropertyKind string

const (
	PropertyLiteral  PropertyKind = "literal"
	PropertyVariable PropertyKind = "variable"
)

// PropertyValue is a tagged union: either a literal value or the name of a
// bound state variable. The distinction is consumed by the logic generator,
// so it survives serialization.
type PropertyValue struct {
	Kind     PropertyKind
	Literal  any
	Variable string
}

// LiteralValue builds a literal property value
func LiteralValue(v any) PropertyValue {
	return PropertyValue{Kind: PropertyLiteral, Literal: v}
}

// VariableRef builds a variable-bound property value
func VariableRef(name string) PropertyValue {
	return PropertyValue{Kind: PropertyVariable, Variable: name}
}

type propertyValueJSON struct {
	Type  PropertyKind `json:"type"`
	Value any          `json:"value,omitempty"`
	Name  string       `json:"name,omitempty"`
}

// MarshalJSON keeps the wire format of {"type":"literal","value":...} and
// {"type":"variable","name":...}
func (p PropertyValue) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PropertyLiteral:
		return json.Marshal(propertyValueJSON{Type: PropertyLiteral, Value: p.Literal})
	case PropertyVariable:
		return json.Marshal(propertyValueJSON{Type: PropertyVariable, Name: p.Variable})
	default:
		return nil, fmt.Errorf("unknown property kind: %q", p.Kind)
	}
}

// UnmarshalJSON parses the tagged wire format
func (p *PropertyValue) UnmarshalJSON(data []byte) error {
	var raw propertyValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case PropertyLiteral:
		*p = PropertyValue{Kind: PropertyLiteral, Literal: raw.Value}
	case PropertyVariable:
		*p = PropertyValue{Kind: PropertyVariable, Variable: raw.Name}
	default:
		return fmt.Errorf("unknown property kind: %q", raw.Type)
	}
	return nil
}

// Box is an axis-aligned bounding box in canvas pixels
type Box struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Right returns the exclusive right edge
func (b Box) Right() int { return b.Left + b.Width }

// Bottom returns the exclusive bottom edge
func (b Box) Bottom() int { return b.Top + b.Height }

// LayoutComponent is one positioned UI component on a screen
type LayoutComponent struct {
	ID         string                   `json:"component_id"`
	Type       string                   `json:"component_type"`
	Properties map[string]PropertyValue `json:"properties,omitempty"`
	Box        Box                      `json:"box"`
	ZIndex     int                      `json:"z_index"`
}

// Canvas is the fixed drawing surface for a screen layout
type Canvas struct {
	Width          int `json:"width"`
	Height         int `json:"height"`
	SafeAreaTop    int `json:"safe_area_top"`
	SafeAreaBottom int `json:"safe_area_bottom"`
}

// UsableHeight is the canvas height minus safe-area insets
func (c Canvas) UsableHeight() int {
	return c.Height - c.SafeAreaTop - c.SafeAreaBottom
}

// ScreenLayout is the generated layout of one screen
type ScreenLayout struct {
	ScreenID   string            `json:"screen_id"`
	Canvas     Canvas            `json:"canvas"`
	Components []LayoutComponent `json:"components"`
}
