package llmclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	model    string
	text     string
	in, out  int
	err      error
	requests int
}

func (f *fakeProvider) Model() string { return f.model }

func (f *fakeProvider) Request(_ context.Context, _, _, _ string, _ int, _ float64) (string, int, int, error) {
	f.requests++
	if f.err != nil {
		return "", 0, 0, f.err
	}
	return f.text, f.in, f.out, nil
}

func TestRealClientHappyPath(t *testing.T) {
	p := &fakeProvider{model: "m", text: "ACTION: wait", in: 10, out: 5}
	c := NewRealClient(p, nil, nil)

	resp := c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10, Temperature: 0.5})
	require.Equal(t, "ACTION: wait", resp.Content)
	require.Equal(t, "m", resp.Model)
	require.False(t, resp.Cached)
}

func TestRealClientFallsBackOnUpstreamError(t *testing.T) {
	p := &fakeProvider{model: "m", err: errors.New("boom")}
	c := NewRealClient(p, nil, nil)

	resp := c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10, Temperature: 0.5})
	require.Equal(t, fallbackContent, resp.Content)
	require.Zero(t, resp.TokensIn)
	require.False(t, resp.Cached)
	require.GreaterOrEqual(t, resp.LatencyMs, int64(0))
}

func TestRealClientFallsBackOnInvalidPreconditions(t *testing.T) {
	p := &fakeProvider{model: "m", text: "should not be reached"}
	c := NewRealClient(p, nil, nil)

	resp := c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 0, Temperature: 0.5})
	require.Equal(t, fallbackContent, resp.Content)
	require.Equal(t, 0, p.requests, "provider must not be called on precondition failure")

	resp = c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10, Temperature: 3})
	require.Equal(t, fallbackContent, resp.Content)
}

func TestRealClientCachesWhenRequested(t *testing.T) {
	p := &fakeProvider{model: "m", text: "ACTION: wait", in: 10, out: 5}
	cache := NewCache(time.Hour, 10)
	c := NewRealClient(p, cache, nil)

	req := Request{Prompt: "hi", MaxTokens: 10, Temperature: 0.5, UseCache: true}
	first := c.Complete(context.Background(), req)
	require.False(t, first.Cached)
	require.Equal(t, 1, p.requests)

	second := c.Complete(context.Background(), req)
	require.True(t, second.Cached)
	require.Equal(t, 1, p.requests, "second call should be served from cache, not the provider")
	require.Equal(t, first.Content, second.Content)
}

func TestRealClientRecordsUsage(t *testing.T) {
	p := &fakeProvider{model: "m", text: "x", in: 100, out: 50}
	usage := NewUsageTracker(10)
	c := NewRealClient(p, nil, usage)

	c.Complete(context.Background(), Request{Prompt: "hi", MaxTokens: 10, Temperature: 0.5, AgentID: "a1", CallType: "decide"})

	recent := usage.Recent()
	require.Len(t, recent, 1)
	require.Equal(t, 100, recent[0].TokensIn)
	require.Equal(t, "a1", recent[0].AgentID)
	require.Equal(t, "decide", recent[0].CallType)
}

func TestMockClientRoundRobins(t *testing.T) {
	m := NewMockClient("one", "two")
	r1 := m.Complete(context.Background(), Request{Prompt: "p"})
	r2 := m.Complete(context.Background(), Request{Prompt: "p"})
	r3 := m.Complete(context.Background(), Request{Prompt: "p"})

	require.Equal(t, "one", r1.Content)
	require.Equal(t, "two", r2.Content)
	require.Equal(t, "one", r3.Content, "round-robin wraps back to the first response")
	require.Len(t, m.Calls(), 3)
}

func TestMockClientDefaultsToWaitWhenEmpty(t *testing.T) {
	m := NewMockClient()
	r := m.Complete(context.Background(), Request{Prompt: "p"})
	require.Equal(t, "I'll wait and observe.", r.Content)
}

var _ Client = (*MockClient)(nil)
var _ Client = (*RealClient)(nil)
