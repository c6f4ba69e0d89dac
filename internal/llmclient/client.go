// Package llmclient is the bounded LLM request surface: a single
// complete operation with caching, usage/cost metering, and a
// fallback-never-raises contract.
package llmclient

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Request is the bounded input surface for a completion call.
type Request struct {
	Prompt      string
	System      string
	MaxTokens   int
	Temperature float64
	UseCache    bool
	AgentID     string
	CallType    string
}

// Response is what every completion call returns, success or fallback.
type Response struct {
	Content   string
	Model     string
	TokensIn  int
	TokensOut int
	Cached    bool
	LatencyMs int64
}

// fallbackContent is returned whenever the upstream provider errors; the
// client never raises.
const fallbackContent = "I'll wait and observe."

// Client is the interface the decider depends on; RealClient and
// MockClient both satisfy it.
type Client interface {
	Complete(ctx context.Context, req Request) Response
}

// Provider is the upstream collaborator contract: a single request
// primitive that may fail.
type Provider interface {
	Model() string
	Request(ctx context.Context, model, system, userPrompt string, maxTokens int, temperature float64) (text string, tokensIn, tokensOut int, err error)
}

// RealClient wraps a Provider with validation, caching, usage metering,
// and a never-raises fallback.
type RealClient struct {
	provider Provider
	cache    *Cache
	usage    *UsageTracker
}

// NewRealClient builds a client around provider, cache, and usage
// tracker. Any of cache/usage may be nil to disable that feature.
func NewRealClient(provider Provider, cache *Cache, usage *UsageTracker) *RealClient {
	return &RealClient{provider: provider, cache: cache, usage: usage}
}

func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "||" + prompt))
	return hex.EncodeToString(sum[:])
}

// Complete runs validation, cache lookup, the provider call, and usage
// recording, returning a fallback response on any upstream error. It
// never returns an error to the caller.
func (c *RealClient) Complete(ctx context.Context, req Request) Response {
	start := time.Now()
	model := c.provider.Model()

	if req.MaxTokens <= 0 || req.Temperature < 0 || req.Temperature > 2 {
		slog.Warn("llmclient: invalid request, using fallback", "max_tokens", req.MaxTokens, "temperature", req.Temperature)
		return c.record(req, model, c.fallback(start), false)
	}

	key := cacheKey(model, req.Prompt)
	if req.UseCache && c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			resp.Cached = true
			return c.record(req, model, resp, true)
		}
	}

	text, tokensIn, tokensOut, err := c.provider.Request(ctx, model, req.System, req.Prompt, req.MaxTokens, req.Temperature)
	if err != nil {
		slog.Warn("llmclient: upstream error, using fallback", "error", err)
		return c.record(req, model, c.fallback(start), false)
	}

	resp := Response{
		Content:   text,
		Model:     model,
		TokensIn:  tokensIn,
		TokensOut: tokensOut,
		Cached:    false,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if req.UseCache && c.cache != nil {
		c.cache.Set(key, resp)
	}
	return c.record(req, model, resp, false)
}

func (c *RealClient) fallback(start time.Time) Response {
	return Response{
		Content:   fallbackContent,
		TokensIn:  0,
		TokensOut: 0,
		Cached:    false,
		LatencyMs: time.Since(start).Milliseconds() + 1,
	}
}

func (c *RealClient) record(req Request, model string, resp Response, fromCache bool) Response {
	resp.Model = model
	if c.usage != nil {
		c.usage.Record(UsageRecord{
			Timestamp: time.Now().Unix(),
			Model:     model,
			TokensIn:  resp.TokensIn,
			TokensOut: resp.TokensOut,
			CostUSD:   estimateCost(model, resp.TokensIn, resp.TokensOut),
			LatencyMs: resp.LatencyMs,
			Cached:    fromCache,
			AgentID:   req.AgentID,
			CallType:  req.CallType,
		})
	}
	return resp
}

// estimateCost is a coarse, provider-agnostic per-token cost model; exact
// pricing is the upstream adapter's concern.
func estimateCost(model string, tokensIn, tokensOut int) float64 {
	const perThousandIn, perThousandOut = 0.0008, 0.004
	return float64(tokensIn)/1000*perThousandIn + float64(tokensOut)/1000*perThousandOut
}
