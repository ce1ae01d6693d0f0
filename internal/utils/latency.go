package utils

import (
	"slices"
	"sync"
	"time"
)

// LatencyTracker keeps a fixed window of recent durations and reports percentiles.
type LatencyTracker struct {
	mu     sync.Mutex
	window []time.Duration
	next   int
	filled bool
	total  int64
}

// LatencySummary is a point-in-time view of the tracked window.
type LatencySummary struct {
	Samples int
	Total   int64
	P50     time.Duration
	P95     time.Duration
	Max     time.Duration
}

// NewLatencyTracker creates a tracker over the last size samples.
func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 512
	}
	return &LatencyTracker{window: make([]time.Duration, size)}
}

// Observe records a duration, overwriting the oldest once the window is full.
func (l *LatencyTracker) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.window[l.next] = d
	l.next = (l.next + 1) % len(l.window)
	if l.next == 0 {
		l.filled = true
	}
	l.total++
}

// Summary reports the window's size and its p50, p95 and max.
func (l *LatencyTracker) Summary() LatencySummary {
	sorted, total := l.snapshot()

	return LatencySummary{
		Samples: len(sorted),
		Total:   total,
		P50:     percentile(sorted, 50),
		P95:     percentile(sorted, 95),
		Max:     percentile(sorted, 100),
	}
}

func (l *LatencyTracker) size() int {
	if l.filled {
		return len(l.window)
	}
	return l.next
}

func (l *LatencyTracker) snapshot() ([]time.Duration, int64) {
	l.mu.Lock()
	out := slices.Clone(l.window[:l.size()])
	total := l.total
	l.mu.Unlock()
	slices.Sort(out)
	return out, total
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[int((p/100.0)*float64(len(sorted)-1))]
}
