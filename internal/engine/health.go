package engine

import (
	"sync"
	"time"
)

// tickDurationWindow bounds how many recent tick durations feed the
// windowed average.
const tickDurationWindow = 20

// Health is a snapshot of the scheduler's operating condition.
type Health struct {
	Status                  string
	UptimeSeconds           float64
	TotalTicks              uint64
	TicksPerMinute          float64
	ErrorCount              uint64
	LastTickDurationMs      int64
	AvgTickDurationMs       float64
	AgentsProcessedLastTick int
	QueueDepth              int
}

// healthRecorder accumulates the raw counters Health is derived from.
type healthRecorder struct {
	mu sync.Mutex

	startedAt      time.Time
	totalTicks     uint64
	errorCount     uint64
	lastDurationMs int64
	durations      []int64 // ring, most recent tickDurationWindow
	agentsLastTick int
}

func newHealthRecorder() *healthRecorder {
	return &healthRecorder{startedAt: time.Now()}
}

func (h *healthRecorder) recordTick(durationMs int64, agentsProcessed int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.totalTicks++
	h.lastDurationMs = durationMs
	h.agentsLastTick = agentsProcessed
	h.durations = append(h.durations, durationMs)
	if len(h.durations) > tickDurationWindow {
		h.durations = h.durations[len(h.durations)-tickDurationWindow:]
	}
}

func (h *healthRecorder) recordError() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorCount++
}

func (h *healthRecorder) snapshot(queueDepth int) Health {
	h.mu.Lock()
	defer h.mu.Unlock()

	uptime := time.Since(h.startedAt).Seconds()
	var avg float64
	if len(h.durations) > 0 {
		var sum int64
		for _, d := range h.durations {
			sum += d
		}
		avg = float64(sum) / float64(len(h.durations))
	}

	var tpm float64
	if uptime > 0 {
		tpm = float64(h.totalTicks) / (uptime / 60.0)
	}

	status := "healthy"
	if h.errorCount > 0 {
		status = "degraded"
	}

	return Health{
		Status:                  status,
		UptimeSeconds:           uptime,
		TotalTicks:              h.totalTicks,
		TicksPerMinute:          tpm,
		ErrorCount:              h.errorCount,
		LastTickDurationMs:      h.lastDurationMs,
		AvgTickDurationMs:       avg,
		AgentsProcessedLastTick: h.agentsLastTick,
		QueueDepth:              queueDepth,
	}
}
