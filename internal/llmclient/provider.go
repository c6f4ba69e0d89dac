package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const anthropicAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicProvider is a thin, rate-limited wrapper over the Anthropic
// Messages API.
type AnthropicProvider struct {
	apiKey string
	model  string
	http   *http.Client

	mu        sync.Mutex
	resetAt   time.Time
	callCount int
	maxPerMin int
}

// NewAnthropicProvider builds a provider bound to model, rate-limited to
// maxPerMin calls per rolling minute (0 disables the limit).
func NewAnthropicProvider(apiKey, model string, maxPerMin int) *AnthropicProvider {
	return &AnthropicProvider{
		apiKey:    apiKey,
		model:     model,
		http:      &http.Client{Timeout: 30 * time.Second},
		maxPerMin: maxPerMin,
	}
}

// Model returns the bound model identifier.
func (p *AnthropicProvider) Model() string { return p.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type anthropicResponse struct {
	Content []anthropicContentBlock `json:"content"`
	Usage   anthropicUsage          `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *AnthropicProvider) allow() error {
	if p.maxPerMin <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if now.After(p.resetAt) {
		p.resetAt = now.Add(time.Minute)
		p.callCount = 0
	}
	if p.callCount >= p.maxPerMin {
		return fmt.Errorf("llmclient: rate limit exceeded (%d/min)", p.maxPerMin)
	}
	p.callCount++
	return nil
}

// Request issues one completion call. It never panics; errors are
// returned to the caller, which is expected to fall back.
func (p *AnthropicProvider) Request(ctx context.Context, model, system, userPrompt string, maxTokens int, temperature float64) (string, int, int, error) {
	if p.apiKey == "" {
		return "", 0, 0, fmt.Errorf("llmclient: no API key configured")
	}
	if err := p.allow(); err != nil {
		return "", 0, 0, err
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		System:      system,
		Messages:    []anthropicMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", 0, 0, fmt.Errorf("llmclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, anthropicAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", 0, 0, fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.http.Do(req)
	if err != nil {
		return "", 0, 0, fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, 0, fmt.Errorf("llmclient: read response: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", 0, 0, fmt.Errorf("llmclient: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", 0, 0, fmt.Errorf("llmclient: upstream error: %s", parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", 0, 0, fmt.Errorf("llmclient: upstream status %d", resp.StatusCode)
	}

	var text string
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text, parsed.Usage.InputTokens, parsed.Usage.OutputTokens, nil
}
