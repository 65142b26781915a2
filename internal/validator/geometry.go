// Package validator checks generated artifacts for structural problems:
// layout geometry on the canvas, and screen/navigation graph consistency.
package validator

import (
	"fmt"

	"github.com/appforge/ai-engine/internal/models"
)

// MinTouchTarget is the minimum width and height for interactive components
const MinTouchTarget = 44

const (
	stackTopMargin = 20
	stackSpacing   = 16
)

// GeometryValidator checks component bounding boxes against a fixed canvas
type GeometryValidator struct {
	Canvas models.Canvas
}

// NewGeometryValidator creates a validator for the given canvas
func NewGeometryValidator(canvas models.Canvas) *GeometryValidator {
	return &GeometryValidator{Canvas: canvas}
}

// Overlaps reports whether two boxes intersect. Boxes are half-open
// intervals, so edge-adjacent boxes do not overlap.
func Overlaps(a, b models.Box) bool {
	if a.Right() <= b.Left || b.Right() <= a.Left {
		return false
	}
	if a.Bottom() <= b.Top || b.Bottom() <= a.Top {
		return false
	}
	return true
}

// Validate returns findings for overlapping pairs, boxes outside the
// canvas, undersized interactive components and safe-area intrusions.
// Only error-level findings block downstream use.
func (v *GeometryValidator) Validate(components []models.LayoutComponent) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			if Overlaps(components[i].Box, components[j].Box) {
				warnings = append(warnings, models.ValidationWarning{
					Level:      models.LevelError,
					Subject:    components[i].ID,
					Message:    fmt.Sprintf("component %s overlaps component %s", components[i].ID, components[j].ID),
					Suggestion: "run collision resolution to restack the layout",
				})
			}
		}
	}

	for _, c := range components {
		box := c.Box
		if box.Left < 0 || box.Top < 0 || box.Right() > v.Canvas.Width || box.Bottom() > v.Canvas.Height {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: c.ID,
				Message: fmt.Sprintf("component %s extends outside the %dx%d canvas", c.ID, v.Canvas.Width, v.Canvas.Height),
			})
		} else if box.Top < v.Canvas.SafeAreaTop || box.Bottom() > v.Canvas.Height-v.Canvas.SafeAreaBottom {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    c.ID,
				Message:    fmt.Sprintf("component %s intrudes into a safe area", c.ID),
				Suggestion: "keep components between the top and bottom safe-area insets",
			})
		}

		if models.InteractiveComponents[c.Type] && (box.Width < MinTouchTarget || box.Height < MinTouchTarget) {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: c.ID,
				Message: fmt.Sprintf("interactive component %s is %dx%d, below the %dpx touch target", c.ID, box.Width, box.Height, MinTouchTarget),
			})
		}
	}

	return warnings
}

// CollisionResolver repairs overlapping layouts by restacking
type CollisionResolver struct {
	Canvas models.Canvas
}

// NewCollisionResolver creates a resolver for the given canvas
func NewCollisionResolver(canvas models.Canvas) *CollisionResolver {
	return &CollisionResolver{Canvas: canvas}
}

// Resolve returns a non-overlapping layout. When any pair overlaps, all
// original positions are discarded and every component is restacked in a
// single centered vertical column, preserving order. When nothing
// overlaps the input is returned unchanged, which makes Resolve
// idempotent: a stacked layout never overlaps, so a second pass is a
// no-op.
func (r *CollisionResolver) Resolve(components []models.LayoutComponent) []models.LayoutComponent {
	if !hasOverlap(components) {
		return components
	}

	resolved := make([]models.LayoutComponent, len(components))
	y := r.Canvas.SafeAreaTop + stackTopMargin
	for i, c := range components {
		c.Box.Left = (r.Canvas.Width - c.Box.Width) / 2
		c.Box.Top = y
		resolved[i] = c
		y += c.Box.Height + stackSpacing
	}
	return resolved
}

func hasOverlap(components []models.LayoutComponent) bool {
	for i := 0; i < len(components); i++ {
		for j := i + 1; j < len(components); j++ {
			if Overlaps(components[i].Box, components[j].Box) {
				return true
			}
		}
	}
	return false
}
