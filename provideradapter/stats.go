package provideradapter

import "sync"

// ExecutionStats is a snapshot of the adapter's dispatch history.
//
// Grounded on get_execution_stats in
// original_source/app/orchestration/agent_adapter.py, represented here
// as plain counters behind a single mutex that also guards the per-provider map
// (spec.md §5: "updates must be serialized").
type ExecutionStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	ProviderUsage      map[string]int
}

// statsTracker accumulates ExecutionStats under a single mutex. A mutex
// rather than sync/atomic counters per field because every update also
// touches the provider-usage map, so there is no benefit to splitting
// the counters out lock-free.
type statsTracker struct {
	mu    sync.Mutex
	stats ExecutionStats
}

func newStatsTracker() *statsTracker {
	return &statsTracker{stats: ExecutionStats{ProviderUsage: make(map[string]int)}}
}

func (t *statsTracker) record(success bool, provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.TotalRequests++
	if success {
		t.stats.SuccessfulRequests++
	} else {
		t.stats.FailedRequests++
	}
	if provider != "" {
		t.stats.ProviderUsage[provider]++
	}
}

func (t *statsTracker) snapshot() ExecutionStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	usage := make(map[string]int, len(t.stats.ProviderUsage))
	for k, v := range t.stats.ProviderUsage {
		usage[k] = v
	}
	return ExecutionStats{
		TotalRequests:      t.stats.TotalRequests,
		SuccessfulRequests: t.stats.SuccessfulRequests,
		FailedRequests:     t.stats.FailedRequests,
		ProviderUsage:      usage,
	}
}
