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

// GroqTier calls Groq's OpenAI-compatible chat completions API. Faster and
// cheaper than Claude, used as the second tier.
type GroqTier struct {
	apiURL string
	apiKey string
	model  string
	client *http.Client
	logger *zap.Logger
}

// NewGroqTier creates the Groq provider tier
func NewGroqTier(apiURL, apiKey, model string, logger *zap.Logger) *GroqTier {
	return &GroqTier{
		apiURL: apiURL,
		apiKey: apiKey,
		model:  model,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Name implements Provider
func (t *GroqTier) Name() models.TierID { return models.TierGroq }

type groqRequest struct {
	Model    string        `json:"model"`
	Messages []groqMessage `json:"messages"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate implements Provider
func (t *GroqTier) Generate(ctx context.Context, req *Request) (*Response, error) {
	if t.apiKey == "" {
		return nil, &Error{Tier: models.TierGroq, Op: "generate", Err: fmt.Errorf("no API key configured")}
	}

	body, err := json.Marshal(groqRequest{
		Model: t.model,
		Messages: []groqMessage{
			{Role: "system", Content: buildSystemPrompt(req.Kind)},
			{Role: "user", Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, &Error{Tier: models.TierGroq, Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Tier: models.TierGroq, Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Tier: models.TierGroq, Op: "call API", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &Error{
			Tier: models.TierGroq,
			Op:   "call API",
			Err:  fmt.Errorf("status %d: %s", resp.StatusCode, payload),
		}
	}

	var decoded groqResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &Error{Tier: models.TierGroq, Op: "decode response", Err: err}
	}
	if len(decoded.Choices) == 0 {
		return nil, &Error{Tier: models.TierGroq, Op: "decode response", Err: fmt.Errorf("no choices")}
	}

	out := &Response{
		Model:      t.model,
		TokensUsed: decoded.Usage.TotalTokens,
	}
	if err := decodeArtifact(models.TierGroq, req.Kind, decoded.Choices[0].Message.Content, out); err != nil {
		return nil, err
	}

	t.logger.Debug("groq generation complete",
		zap.String("kind", string(req.Kind)),
		zap.Int("tokens", decoded.Usage.TotalTokens),
	)
	return out, nil
}

// HealthCheck implements Provider
func (t *GroqTier) HealthCheck(ctx context.Context) bool {
	return t.apiKey != ""
}
