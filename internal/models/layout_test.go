package models

import (
	"encoding/json"
	"testing"
)

func TestPropertyValueWireFormat(t *testing.T) {
	literal, err := json.Marshal(LiteralValue("Increment"))
	if err != nil {
		t.Fatalf("marshal literal: %v", err)
	}
	if string(literal) != `{"type":"literal","value":"Increment"}` {
		t.Errorf("literal wire form = %s", literal)
	}

	variable, err := json.Marshal(VariableRef("counter"))
	if err != nil {
		t.Fatalf("marshal variable: %v", err)
	}
	if string(variable) != `{"type":"variable","name":"counter"}` {
		t.Errorf("variable wire form = %s", variable)
	}
}

func TestPropertyValueParsesBothKinds(t *testing.T) {
	var p PropertyValue
	if err := json.Unmarshal([]byte(`{"type":"variable","name":"counter"}`), &p); err != nil {
		t.Fatalf("unmarshal variable: %v", err)
	}
	if p.Kind != PropertyVariable || p.Variable != "counter" {
		t.Errorf("parsed = %+v, want variable counter", p)
	}

	if err := json.Unmarshal([]byte(`{"type":"literal","value":42}`), &p); err != nil {
		t.Fatalf("unmarshal literal: %v", err)
	}
	if p.Kind != PropertyLiteral {
		t.Errorf("parsed = %+v, want literal", p)
	}
}

func TestPropertyValueRejectsUnknownKind(t *testing.T) {
	var p PropertyValue
	if err := json.Unmarshal([]byte(`{"type":"computed","name":"x"}`), &p); err == nil {
		t.Error("unknown property kind accepted")
	}
}

func TestBoxEdges(t *testing.T) {
	b := Box{Left: 10, Top: 20, Width: 100, Height: 44}
	if b.Right() != 110 {
		t.Errorf("Right() = %d, want 110", b.Right())
	}
	if b.Bottom() != 64 {
		t.Errorf("Bottom() = %d, want 64", b.Bottom())
	}
}

func TestCanvasUsableHeight(t *testing.T) {
	c := Canvas{Width: 375, Height: 667, SafeAreaTop: 44, SafeAreaBottom: 34}
	if got := c.UsableHeight(); got != 589 {
		t.Errorf("UsableHeight() = %d, want 589", got)
	}
}
