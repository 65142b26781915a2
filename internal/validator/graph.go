package validator

import (
	"fmt"
	"strings"

	"github.com/appforge/ai-engine/internal/models"
)

const (
	maxScreens          = 10
	maxScreenComponents = 20
	maxTotalComponents  = 100
	minPurposeLength    = 10
	maxStackDepth       = 5
)

// GraphValidator checks an architecture's screen/navigation graph and
// state-variable declarations. Error-level findings block downstream use;
// the rest are advisory.
type GraphValidator struct{}

// NewGraphValidator creates a graph validator
func NewGraphValidator() *GraphValidator {
	return &GraphValidator{}
}

// Validate returns all findings for the design
func (v *GraphValidator) Validate(design *models.ArchitectureDesign) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	if len(design.Screens) == 0 {
		return append(warnings, models.ValidationWarning{
			Level:   models.LevelError,
			Subject: design.AppType,
			Message: "architecture has no screens",
		})
	}

	warnings = append(warnings, v.checkScreens(design)...)
	warnings = append(warnings, v.checkStateVars(design)...)
	warnings = append(warnings, v.checkNavigation(design)...)
	warnings = append(warnings, v.checkReachability(design)...)
	if design.Navigation.Type == "stack" {
		warnings = append(warnings, v.checkStackDepth(design)...)
	}

	return warnings
}

func (v *GraphValidator) checkScreens(design *models.ArchitectureDesign) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	seen := make(map[string]bool, len(design.Screens))
	totalComponents := 0

	for _, screen := range design.Screens {
		if seen[screen.ID] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: screen.ID,
				Message: fmt.Sprintf("duplicate screen id %q", screen.ID),
			})
		}
		seen[screen.ID] = true

		if len(screen.Purpose) < minPurposeLength {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    screen.ID,
				Message:    fmt.Sprintf("screen %q purpose is too short to guide generation", screen.ID),
				Suggestion: "describe what the screen is for in a full sentence",
			})
		}
		if len(screen.Components) == 0 {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelWarning,
				Subject: screen.ID,
				Message: fmt.Sprintf("screen %q has no components", screen.ID),
			})
		}
		if len(screen.Components) > maxScreenComponents {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    screen.ID,
				Message:    fmt.Sprintf("screen %q has %d components, more than %d", screen.ID, len(screen.Components), maxScreenComponents),
				Suggestion: "split the screen or remove components",
			})
		}
		totalComponents += len(screen.Components)

		for _, compType := range screen.Components {
			if !models.SupportedComponents[compType] {
				warnings = append(warnings, models.ValidationWarning{
					Level:   models.LevelError,
					Subject: screen.ID,
					Message: fmt.Sprintf("screen %q uses unsupported component type %q", screen.ID, compType),
				})
			}
		}
	}

	if len(design.Screens) > maxScreens {
		warnings = append(warnings, models.ValidationWarning{
			Level:   models.LevelWarning,
			Subject: design.AppType,
			Message: fmt.Sprintf("%d screens exceeds the recommended maximum of %d", len(design.Screens), maxScreens),
		})
	}
	if totalComponents > maxTotalComponents {
		warnings = append(warnings, models.ValidationWarning{
			Level:   models.LevelWarning,
			Subject: design.AppType,
			Message: fmt.Sprintf("%d components in total exceeds the recommended maximum of %d", totalComponents, maxTotalComponents),
		})
	}

	return warnings
}

func (v *GraphValidator) checkStateVars(design *models.ArchitectureDesign) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	seen := make(map[string]bool, len(design.StateVars))
	for _, sv := range design.StateVars {
		if seen[sv.Name] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: sv.Name,
				Message: fmt.Sprintf("duplicate state variable name %q", sv.Name),
			})
		}
		seen[sv.Name] = true

		if sv.Scope == "component" && sv.Type == "global-state" {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: sv.Name,
				Message: fmt.Sprintf("state variable %q is component-scoped but declared global-state", sv.Name),
			})
		}

		if sv.InitialValue == nil && !strings.Contains(sv.Type, "async") {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    sv.Name,
				Message:    fmt.Sprintf("state variable %q has no initial value", sv.Name),
				Suggestion: "set an initial value so the first render is deterministic",
			})
		}
	}

	return warnings
}

func (v *GraphValidator) checkNavigation(design *models.ArchitectureDesign) []models.ValidationWarning {
	var warnings []models.ValidationWarning

	ids := screenIDSet(design)
	for _, route := range design.Navigation.Routes {
		if !ids[route.From] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: route.From,
				Message: fmt.Sprintf("route references unknown source screen %q", route.From),
			})
		}
		if !ids[route.To] {
			warnings = append(warnings, models.ValidationWarning{
				Level:   models.LevelError,
				Subject: route.To,
				Message: fmt.Sprintf("route references unknown target screen %q", route.To),
			})
		}
	}
	for _, screen := range design.Screens {
		for _, target := range screen.Navigation {
			if !ids[target] {
				warnings = append(warnings, models.ValidationWarning{
					Level:   models.LevelError,
					Subject: screen.ID,
					Message: fmt.Sprintf("screen %q navigates to unknown screen %q", screen.ID, target),
				})
			}
		}
	}

	return warnings
}

// checkReachability runs a BFS over the combined edge set starting at the
// first screen and flags everything it cannot reach
func (v *GraphValidator) checkReachability(design *models.ArchitectureDesign) []models.ValidationWarning {
	edges := navigationEdges(design)
	entry := design.Screens[0].ID

	visited := map[string]bool{entry: true}
	queue := []string{entry}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range edges[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	var warnings []models.ValidationWarning
	for _, screen := range design.Screens {
		if !visited[screen.ID] {
			warnings = append(warnings, models.ValidationWarning{
				Level:      models.LevelWarning,
				Subject:    screen.ID,
				Message:    fmt.Sprintf("screen %q is unreachable from %q", screen.ID, entry),
				Suggestion: "add a route or navigation target leading to it",
			})
		}
	}
	return warnings
}

// checkStackDepth walks all simple paths from the entry screen and warns
// when stack navigation can nest deeper than the platform handles well.
// Visited tracking per path keeps cycles from recursing forever.
func (v *GraphValidator) checkStackDepth(design *models.ArchitectureDesign) []models.ValidationWarning {
	edges := navigationEdges(design)
	entry := design.Screens[0].ID

	maxDepth := 0
	onPath := map[string]bool{}

	var walk func(id string, depth int)
	walk = func(id string, depth int) {
		if depth > maxDepth {
			maxDepth = depth
		}
		onPath[id] = true
		for _, next := range edges[id] {
			if !onPath[next] {
				walk(next, depth+1)
			}
		}
		onPath[id] = false
	}
	walk(entry, 1)

	if maxDepth > maxStackDepth {
		return []models.ValidationWarning{{
			Level:      models.LevelWarning,
			Subject:    entry,
			Message:    fmt.Sprintf("stack navigation can reach depth %d, deeper than %d", maxDepth, maxStackDepth),
			Suggestion: "flatten the navigation or switch to tab navigation",
		}}
	}
	return nil
}

func screenIDSet(design *models.ArchitectureDesign) map[string]bool {
	ids := make(map[string]bool, len(design.Screens))
	for _, s := range design.Screens {
		ids[s.ID] = true
	}
	return ids
}

// navigationEdges merges explicit routes with per-screen navigation lists
func navigationEdges(design *models.ArchitectureDesign) map[string][]string {
	edges := make(map[string][]string)
	for _, route := range design.Navigation.Routes {
		edges[route.From] = append(edges[route.From], route.To)
	}
	for _, screen := range design.Screens {
		edges[screen.ID] = append(edges[screen.ID], screen.Navigation...)
	}
	return edges
}
