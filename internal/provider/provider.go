// Package provider defines the generation provider interface and the
// concrete tiers (Claude, Groq, heuristic) behind the orchestrator.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/appforge/ai-engine/internal/models"
)

// Kind selects which artifact a provider should generate
type Kind string

const (
	KindClassify     Kind = "classify"
	KindArchitecture Kind = "architecture"
	KindLayout       Kind = "layout"
	KindLogic        Kind = "logic"
)

// Request is one generation request routed through the tier chain
type Request struct {
	Kind      Kind
	Prompt    string
	UserID    string
	SessionID string
	Context   map[string]any

	// Stage inputs, populated as the pipeline advances
	Architecture *models.ArchitectureDesign
	Screen       *models.Screen
	Canvas       models.Canvas
	Layouts      map[string]*models.ScreenLayout
}

// Response holds whichever artifact the request kind asked for
type Response struct {
	Classification *models.ClassificationResult
	Architecture   *models.ArchitectureDesign
	Layout         *models.ScreenLayout
	Logic          *models.LogicDefinition

	Model      string
	TokensUsed int
	CostUSD    float64
}

// Error is a transient provider failure, retried by the orchestrator
type Error struct {
	Tier models.TierID
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Tier, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Provider is one candidate backend in the generation chain
type Provider interface {
	Name() models.TierID
	Generate(ctx context.Context, req *Request) (*Response, error)
	HealthCheck(ctx context.Context) bool
}

// stripJSONFence removes a surrounding markdown code fence from LLM output
func stripJSONFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	parts := strings.SplitN(text, "```", 3)
	if len(parts) < 3 {
		return text
	}
	body := parts[1]
	body = strings.TrimPrefix(body, "json")
	return strings.TrimSpace(body)
}

// decodeArtifact parses raw LLM text into the artifact for the request kind
func decodeArtifact(tier models.TierID, kind Kind, text string, resp *Response) error {
	raw := []byte(stripJSONFence(text))

	switch kind {
	case KindClassify:
		var c models.ClassificationResult
		if err := json.Unmarshal(raw, &c); err != nil {
			return &Error{Tier: tier, Op: "parse classification", Err: err}
		}
		c.Confidence.Normalize()
		resp.Classification = &c
	case KindArchitecture:
		var a models.ArchitectureDesign
		if err := json.Unmarshal(raw, &a); err != nil {
			return &Error{Tier: tier, Op: "parse architecture", Err: err}
		}
		resp.Architecture = &a
	case KindLayout:
		var l models.ScreenLayout
		if err := json.Unmarshal(raw, &l); err != nil {
			return &Error{Tier: tier, Op: "parse layout", Err: err}
		}
		resp.Layout = &l
	case KindLogic:
		var d models.LogicDefinition
		if err := json.Unmarshal(raw, &d); err != nil {
			return &Error{Tier: tier, Op: "parse logic", Err: err}
		}
		resp.Logic = &d
	default:
		return &Error{Tier: tier, Op: "decode", Err: fmt.Errorf("unknown request kind %q", kind)}
	}
	return nil
}
