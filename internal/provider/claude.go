package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/appforge/ai-engine/internal/models"
)

const claudeCostPer1KTokens = 0.003

// ClaudeTier calls the Anthropic messages API. Highest-quality, highest-cost
// tier in the chain.
type ClaudeTier struct {
	apiURL    string
	apiKey    string
	model     string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger
}

// NewClaudeTier creates the Claude provider tier
func NewClaudeTier(apiURL, apiKey, model string, logger *zap.Logger) *ClaudeTier {
	return &ClaudeTier{
		apiURL:    apiURL,
		apiKey:    apiKey,
		model:     model,
		maxTokens: 4096,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    logger,
	}
}

// Name implements Provider
func (t *ClaudeTier) Name() models.TierID { return models.TierClaude }

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate implements Provider
func (t *ClaudeTier) Generate(ctx context.Context, req *Request) (*Response, error) {
	if t.apiKey == "" {
		return nil, &Error{Tier: models.TierClaude, Op: "generate", Err: fmt.Errorf("no API key configured")}
	}

	body, err := json.Marshal(claudeRequest{
		Model:     t.model,
		MaxTokens: t.maxTokens,
		System:    buildSystemPrompt(req.Kind),
		Messages:  []claudeMessage{{Role: "user", Content: buildUserPrompt(req)}},
	})
	if err != nil {
		return nil, &Error{Tier: models.TierClaude, Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Tier: models.TierClaude, Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", t.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Tier: models.TierClaude, Op: "call API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			Tier: models.TierClaude,
			Op:   "call API",
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, payload),
		}
	}

	var decoded claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Tier: models.TierClaude, Op: "decode response", Err: err}
	}
	if len(decoded.Content) == 0 {
		return nil, &Error{Tier: models.TierClaude, Op: "decode response", Err: fmt.Errorf("empty content")}
	}

	tokens := decoded.Usage.InputTokens + decoded.Usage.OutputTokens
	out := &Response{
		Model:      t.model,
		TokensUsed: tokens,
		CostUSD:    float64(tokens) / 1000 * claudeCostPer1KTokens,
	}
	if err := decodeArtifact(models.TierClaude, req.Kind, decoded.Content[0].Text, out); err != nil {
		return nil, err
	}

	t.logger.Debug("claude generation complete",
		zap.String("kind", string(req.Kind)),
		zap.Int("tokens", tokens),
	)
	return out, nil
}

// HealthCheck implements Provider. Claude has no cheap ping endpoint, so
// health is just "we are configured".
func (t *ClaudeTier) HealthCheck(ctx context.Context) bool {
	return t.apiKey != ""
}
