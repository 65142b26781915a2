package provider

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/appforge/ai-engine/internal/models"
)

// buildSystemPrompt returns the system instruction for a request kind.
// Prompt wording is deliberately terse; the structured output contract is
// what matters here.
func buildSystemPrompt(kind Kind) string {
	switch kind {
	case KindClassify:
		return "You classify mobile-app build requests. Respond with a single JSON object " +
			"with fields intent_type, complexity, confidence " +
			"(overall plus intent/complexity/entity/safety dimensions in [0,1]), " +
			"extracted_entities (components, actions, data_types, features), and safety_status. No prose."
	case KindArchitecture:
		return "You design mobile app architectures. Respond with a single JSON object " +
			"with app_type, screens (id, name, purpose, components, navigation), " +
			"navigation (type, routes with from/to screen ids) and state_management " +
			"(name, type, scope, initial_value). Use only the listed component types. No prose."
	case KindLayout:
		return "You position mobile UI components on a fixed canvas. Respond with a single JSON " +
			"object with screen_id, canvas and components " +
			"(component_id, component_type, properties, box with left/top/width/height, z_index). " +
			"Keep every box inside the canvas and respect 44px minimum touch targets. No prose."
	case KindLogic:
		return "You wire component events to state changes as behavior blocks. Respond with a " +
			"single JSON object with blocks (id, type, component_id, event, variable, expression) " +
			"and variables (id, name, type). Reference only declared state variables. No prose."
	}
	return ""
}

// buildUserPrompt renders the user message for a request kind
func buildUserPrompt(req *Request) string {
	var b strings.Builder

	switch req.Kind {
	case KindClassify:
		fmt.Fprintf(&b, "Request: %s\n", req.Prompt)
		if req.Context != nil {
			if v, ok := req.Context["has_existing_project"]; ok {
				fmt.Fprintf(&b, "Existing project: %v\n", v)
			}
		}
	case KindArchitecture:
		fmt.Fprintf(&b, "Supported components: %s\n", supportedComponentList())
		fmt.Fprintf(&b, "Request: %s\n", req.Prompt)
	case KindLayout:
		fmt.Fprintf(&b, "Canvas: %dx%d, safe area top %d bottom %d\n",
			req.Canvas.Width, req.Canvas.Height, req.Canvas.SafeAreaTop, req.Canvas.SafeAreaBottom)
		if req.Screen != nil {
			screenJSON, _ := json.Marshal(req.Screen)
			fmt.Fprintf(&b, "Screen: %s\n", screenJSON)
		}
	case KindLogic:
		if req.Architecture != nil {
			archJSON, _ := json.Marshal(req.Architecture)
			fmt.Fprintf(&b, "Architecture: %s\n", archJSON)
		}
		fmt.Fprintf(&b, "Request: %s\n", req.Prompt)
	}

	return b.String()
}

func supportedComponentList() string {
	names := make([]string, 0, len(models.SupportedComponents))
	for name := range models.SupportedComponents {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
