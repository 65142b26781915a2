package validator

import (
	"reflect"
	"testing"

	"github.com/appforge/ai-engine/internal/models"
)

var testCanvas = models.Canvas{Width: 375, Height: 667, SafeAreaTop: 44, SafeAreaBottom: 34}

func box(left, top, width, height int) models.Box {
	return models.Box{Left: left, Top: top, Width: width, Height: height}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b models.Box
		want bool
	}{
		{"identical", box(0, 0, 100, 44), box(0, 0, 100, 44), true},
		{"partial overlap", box(0, 0, 100, 44), box(50, 20, 100, 44), true},
		{"disjoint horizontally", box(0, 0, 100, 44), box(200, 0, 100, 44), false},
		{"disjoint vertically", box(0, 0, 100, 44), box(0, 100, 100, 44), false},
		{"edge adjacent horizontally", box(0, 0, 100, 44), box(100, 0, 100, 44), false},
		{"edge adjacent vertically", box(0, 0, 100, 44), box(0, 44, 100, 44), false},
		{"contained", box(0, 0, 200, 200), box(50, 50, 20, 20), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.a, tc.b); got != tc.want {
				t.Errorf("Overlaps(a,b) = %v, want %v", got, tc.want)
			}
			// symmetry
			if got := Overlaps(tc.b, tc.a); got != tc.want {
				t.Errorf("Overlaps(b,a) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateReportsSingleOverlap(t *testing.T) {
	v := NewGeometryValidator(testCanvas)
	components := []models.LayoutComponent{
		{ID: "a", Type: "Text", Box: box(0, 100, 100, 44)},
		{ID: "b", Type: "Text", Box: box(50, 120, 100, 44)},
	}

	warnings := v.Validate(components)
	overlapErrors := 0
	for _, w := range warnings {
		if w.Level == models.LevelError {
			overlapErrors++
		}
	}
	if overlapErrors != 1 {
		t.Errorf("got %d overlap errors, want exactly 1: %+v", overlapErrors, warnings)
	}
}

func TestValidateOutOfBounds(t *testing.T) {
	v := NewGeometryValidator(testCanvas)
	cases := []struct {
		name string
		b    models.Box
	}{
		{"negative left", box(-10, 100, 100, 44)},
		{"negative top", box(0, -5, 100, 44)},
		{"past right edge", box(300, 100, 100, 44)},
		{"past bottom edge", box(0, 650, 100, 44)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			warnings := v.Validate([]models.LayoutComponent{{ID: "a", Type: "Text", Box: tc.b}})
			if !models.HasErrors(warnings) {
				t.Errorf("no error for out-of-bounds box %+v", tc.b)
			}
		})
	}
}

func TestValidateTouchTarget(t *testing.T) {
	v := NewGeometryValidator(testCanvas)

	warnings := v.Validate([]models.LayoutComponent{
		{ID: "small-btn", Type: "Button", Box: box(100, 100, 40, 40)},
	})
	if !models.HasErrors(warnings) {
		t.Error("undersized button not flagged as error")
	}

	// Non-interactive components may be smaller
	warnings = v.Validate([]models.LayoutComponent{
		{ID: "bar", Type: "ProgressBar", Box: box(100, 100, 280, 8)},
	})
	if models.HasErrors(warnings) {
		t.Errorf("non-interactive component flagged: %+v", warnings)
	}
}

func TestValidateSafeAreaIsWarningOnly(t *testing.T) {
	v := NewGeometryValidator(testCanvas)
	warnings := v.Validate([]models.LayoutComponent{
		{ID: "a", Type: "Text", Box: box(100, 10, 100, 30)},
	})
	if models.HasErrors(warnings) {
		t.Errorf("safe-area intrusion escalated to error: %+v", warnings)
	}
	if len(warnings) != 1 || warnings[0].Level != models.LevelWarning {
		t.Errorf("warnings = %+v, want one warning-level finding", warnings)
	}
}

func TestResolveStacksOverlappingComponents(t *testing.T) {
	r := NewCollisionResolver(testCanvas)
	components := []models.LayoutComponent{
		{ID: "a", Type: "Text", Box: box(0, 0, 100, 44)},
		{ID: "b", Type: "Text", Box: box(50, 20, 100, 44)},
	}

	resolved := r.Resolve(components)
	if len(resolved) != 2 {
		t.Fatalf("got %d components, want 2", len(resolved))
	}

	wantLeft := (testCanvas.Width - 100) / 2
	for _, c := range resolved {
		if c.Box.Left != wantLeft {
			t.Errorf("component %s left = %d, want %d", c.ID, c.Box.Left, wantLeft)
		}
	}
	if resolved[0].Box.Top != testCanvas.SafeAreaTop+20 {
		t.Errorf("first top = %d, want %d", resolved[0].Box.Top, testCanvas.SafeAreaTop+20)
	}
	if gap := resolved[1].Box.Top - resolved[0].Box.Top; gap < 60 {
		t.Errorf("tops differ by %d, want at least 60", gap)
	}
	if resolved[0].ID != "a" || resolved[1].ID != "b" {
		t.Error("resolution did not preserve component order")
	}

	if hasOverlap(resolved) {
		t.Error("resolved layout still overlaps")
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := NewCollisionResolver(testCanvas)
	components := []models.LayoutComponent{
		{ID: "a", Type: "Button", Box: box(0, 0, 120, 44)},
		{ID: "b", Type: "InputText", Box: box(10, 10, 280, 44)},
		{ID: "c", Type: "Text", Box: box(5, 30, 280, 40)},
	}

	once := r.Resolve(components)
	twice := r.Resolve(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("resolve not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestResolveLeavesCleanLayoutAlone(t *testing.T) {
	r := NewCollisionResolver(testCanvas)
	components := []models.LayoutComponent{
		{ID: "a", Type: "Text", Box: box(100, 64, 100, 44)},
		{ID: "b", Type: "Text", Box: box(100, 200, 100, 44)},
	}
	resolved := r.Resolve(components)
	if !reflect.DeepEqual(components, resolved) {
		t.Errorf("non-overlapping layout was modified: %+v", resolved)
	}
}

func TestResolveEmpty(t *testing.T) {
	r := NewCollisionResolver(testCanvas)
	if got := r.Resolve(nil); len(got) != 0 {
		t.Errorf("Resolve(nil) = %+v, want empty", got)
	}
}
