package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/talgya/village-sim/internal/llmclient"
	"github.com/talgya/village-sim/internal/world"
)

// Retention caps, one per tier.
const (
	WorkingCap  = 10
	RecentCap   = 7
	LongtermCap = 50
)

const summarySystemPrompt = `You are a memory compression assistant.
Summarize the given memories into a concise daily summary from the character's perspective.
Keep the most important events and emotions. Be brief but capture the essence.`

const factsSystemPrompt = `You are a memory analyst.
Extract important facts from memories that should be remembered long-term.
Return only factual statements, one per line.`

// Store holds every agent's three memory tiers and supports significance-
// ordered retrieval and end-of-day compression.
type Store struct {
	mu       sync.Mutex
	working  map[uuid.UUID][]world.Memory
	recent   map[uuid.UUID][]world.Memory
	longterm map[uuid.UUID][]world.Memory

	workingCap  int
	recentCap   int
	longtermCap int
}

// NewStore builds an empty memory store with the default retention caps.
func NewStore() *Store {
	return NewStoreWithCaps(WorkingCap, RecentCap, LongtermCap)
}

// NewStoreWithCaps builds an empty memory store with per-tier retention
// caps; non-positive values fall back to the defaults.
func NewStoreWithCaps(working, recent, longterm int) *Store {
	if working <= 0 {
		working = WorkingCap
	}
	if recent <= 0 {
		recent = RecentCap
	}
	if longterm <= 0 {
		longterm = LongtermCap
	}
	return &Store{
		working:     make(map[uuid.UUID][]world.Memory),
		recent:      make(map[uuid.UUID][]world.Memory),
		longterm:    make(map[uuid.UUID][]world.Memory),
		workingCap:  working,
		recentCap:   recent,
		longtermCap: longterm,
	}
}

func cloneMemories(in []world.Memory) []world.Memory {
	out := make([]world.Memory, len(in))
	copy(out, in)
	return out
}

// evictLowest drops the lowest-significance entry, breaking ties by the
// oldest timestamp, until len(tier) <= cap.
func evictLowest(tier []world.Memory, cap int) []world.Memory {
	for len(tier) > cap {
		worst := 0
		for i := 1; i < len(tier); i++ {
			if tier[i].Significance < tier[worst].Significance ||
				(tier[i].Significance == tier[worst].Significance && tier[i].Timestamp < tier[worst].Timestamp) {
				worst = i
			}
		}
		tier = append(tier[:worst], tier[worst+1:]...)
	}
	return tier
}

// AddWorking appends a new working memory for agentID, then evicts the
// lowest-significance (then oldest) entry if the tier exceeds the store's
// working cap.
func (s *Store) AddWorking(agentID uuid.UUID, m world.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Kind = world.MemoryWorking
	tier := append(s.working[agentID], m)
	s.working[agentID] = evictLowest(tier, s.workingCap)
}

func addTier(tier map[uuid.UUID][]world.Memory, agentID uuid.UUID, m world.Memory, cap int) {
	entries := append(tier[agentID], m)
	tier[agentID] = evictLowest(entries, cap)
}

// AddRecent appends directly to the recent tier, bypassing working —
// used by CompressDay to store the daily summary.
func (s *Store) AddRecent(agentID uuid.UUID, m world.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Kind = world.MemoryRecent
	addTier(s.recent, agentID, m, s.recentCap)
}

// AddLongterm appends directly to the long-term tier — used by
// CompressDay to store extracted facts.
func (s *Store) AddLongterm(agentID uuid.UUID, m world.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.Kind = world.MemoryLongterm
	addTier(s.longterm, agentID, m, s.longtermCap)
}

func sortedByTimestampDesc(in []world.Memory) []world.Memory {
	out := cloneMemories(in)
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

func sortedBySignificanceDesc(in []world.Memory) []world.Memory {
	out := cloneMemories(in)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Significance != out[j].Significance {
			return out[i].Significance > out[j].Significance
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// GetWorking returns this agent's working memories, most recent first.
func (s *Store) GetWorking(agentID uuid.UUID) []world.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByTimestampDesc(s.working[agentID])
}

// GetRecent returns this agent's recent memories, most recent first.
func (s *Store) GetRecent(agentID uuid.UUID) []world.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedByTimestampDesc(s.recent[agentID])
}

// GetLongterm returns this agent's long-term memories, most significant
// first.
func (s *Store) GetLongterm(agentID uuid.UUID) []world.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedBySignificanceDesc(s.longterm[agentID])
}

// DecayAll applies Decay to every memory in every tier for agentID as of
// nowUnix, dropping nothing — decayed-to-1 memories persist until
// naturally evicted by capacity pressure.
func (s *Store) DecayAll(agentID uuid.UUID, nowUnix int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tier := range []map[uuid.UUID][]world.Memory{s.working, s.recent, s.longterm} {
		entries := tier[agentID]
		for i := range entries {
			hours := (nowUnix - entries[i].Timestamp) / 3600
			if hours < 0 {
				hours = 0
			}
			entries[i].Significance = Decay(entries[i].Significance, hours)
		}
	}
}

// CompressionResult reports what an end-of-day compression produced.
type CompressionResult struct {
	Summary      string
	Facts        []string
	WorkingCount int
}

// CompressDay performs the end-of-day compression for one agent: pull its
// working memories, summarize via client (or a deterministic fallback if
// client is nil or returns its upstream-error fallback reply, recognised
// by zero input tokens), extract up to five long-term facts, write the
// summary into recent and the facts into long-term, and atomically clear
// working. Safe to call with an empty working tier (a no-op).
func (s *Store) CompressDay(ctx context.Context, agentID uuid.UUID, nowUnix int64, client llmclient.Client) CompressionResult {
	s.mu.Lock()
	working := cloneMemories(s.working[agentID])
	s.mu.Unlock()

	if len(working) == 0 {
		return CompressionResult{}
	}

	sort.Slice(working, func(i, j int) bool { return working[i].Timestamp < working[j].Timestamp })

	summary, facts := compress(ctx, working, client)

	s.mu.Lock()
	defer s.mu.Unlock()
	if summary != "" {
		addTier(s.recent, agentID, world.Memory{
			ID:           uuid.New(),
			AgentID:      agentID,
			Kind:         world.MemoryRecent,
			Content:      summary,
			Significance: 5,
			Timestamp:    nowUnix,
		}, s.recentCap)
	}
	for _, fact := range facts {
		addTier(s.longterm, agentID, world.Memory{
			ID:           uuid.New(),
			AgentID:      agentID,
			Kind:         world.MemoryLongterm,
			Content:      fact,
			Significance: 7,
			Timestamp:    nowUnix,
		}, s.longtermCap)
	}
	cleared := len(s.working[agentID])
	delete(s.working, agentID)

	return CompressionResult{Summary: summary, Facts: facts, WorkingCount: cleared}
}

func compress(ctx context.Context, sortedWorking []world.Memory, client llmclient.Client) (string, []string) {
	significant := make([]world.Memory, 0, len(sortedWorking))
	for _, m := range sortedWorking {
		if m.Significance >= SignificanceThresholdForSummary {
			significant = append(significant, m)
		}
	}
	if len(significant) == 0 {
		if len(sortedWorking) <= 5 {
			significant = sortedWorking
		} else {
			significant = sortedWorking[len(sortedWorking)-5:]
		}
	}

	var memoryText strings.Builder
	for _, m := range significant {
		fmt.Fprintf(&memoryText, "- %s (significance: %d)\n", m.Content, m.Significance)
	}

	if client == nil {
		return mockSummarize(significant), mockExtractFacts(sortedWorking)
	}

	summaryResp := client.Complete(ctx, llmclient.Request{
		System:      summarySystemPrompt,
		Prompt:      fmt.Sprintf("Summarize these memories into a brief daily summary (2-3 sentences):\n\n%s\nDaily summary:", memoryText.String()),
		MaxTokens:   150,
		Temperature: 0.7,
		UseCache:    false,
		CallType:    "memory_summary",
	})
	factsResp := client.Complete(ctx, llmclient.Request{
		System:      factsSystemPrompt,
		Prompt:      fmt.Sprintf("Extract important facts from these memories (one per line):\n\n%s\nFacts:", memoryText.String()),
		MaxTokens:   200,
		Temperature: 0.5,
		UseCache:    false,
		CallType:    "memory_facts",
	})

	summary := strings.TrimSpace(summaryResp.Content)
	facts := parseFacts(factsResp.Content)
	// A reply with no input tokens is the client's fallback after an
	// upstream error, not an answer about these memories.
	if summaryResp.TokensIn == 0 {
		summary = mockSummarize(significant)
	}
	if factsResp.TokensIn == 0 {
		facts = mockExtractFacts(sortedWorking)
	}
	return summary, facts
}

const maxLongtermFactsPerDay = 5

// parseFacts extracts at most maxLongtermFactsPerDay fact lines from an
// LLM reply, stripping list markers and skipping blanks.
func parseFacts(text string) []string {
	var facts []string
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		if len(facts) >= maxLongtermFactsPerDay {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimLeft(line, "-•*0123456789. ")
		if line != "" {
			facts = append(facts, line)
		}
	}
	return facts
}

func mockSummarize(memories []world.Memory) string {
	if len(memories) == 0 {
		return "Nothing notable happened."
	}
	top := sortedBySignificanceDesc(memories)
	if len(top) > 3 {
		top = top[:3]
	}
	switch len(top) {
	case 1:
		return fmt.Sprintf("Today: %s", top[0].Content)
	case 2:
		return fmt.Sprintf("Today: %s. Also, %s", top[0].Content, strings.ToLower(top[1].Content))
	default:
		return fmt.Sprintf("Today: %s. %s. %s", top[0].Content, top[1].Content, top[2].Content)
	}
}

func mockExtractFacts(memories []world.Memory) []string {
	var facts []string
	for _, m := range memories {
		if m.Significance >= SignificanceThresholdForLongterm {
			facts = append(facts, m.Content)
		}
	}
	if len(facts) > maxLongtermFactsPerDay {
		facts = facts[:maxLongtermFactsPerDay]
	}
	return facts
}
