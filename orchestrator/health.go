package orchestrator

import (
	"context"

	"github.com/localagent/orchestrator/memstore"
)

// Health aggregates every component's health into the single answer the
// "health" CLI surface (spec.md §6) would report.
type Health struct {
	OverallHealthy bool
	Adapter        AdapterHealth
	Coordination   CoordinationHealth
	Memory         memstore.Stats
	Providers      map[string]bool
}

// AdapterHealth mirrors provideradapter.Health without forcing callers to
// import that package just to read a health report.
type AdapterHealth struct {
	Healthy          bool
	AgentsLoaded     int
	HealthyProviders int
}

// CoordinationHealth mirrors coordination.HealthStatus's fields relevant
// to an overall health rollup.
type CoordinationHealth struct {
	Healthy   bool
	LatencyMS int64
}

// Health reports the current health of every wired component. The
// coordination store's unreachability never makes OverallHealthy false:
// the system is designed to run in degraded mode without it.
func (f *Facade) Health(ctx context.Context) Health {
	adapterHealth := f.adapter.Health(ctx)
	coordHealth := f.coordination.Health(ctx)

	return Health{
		OverallHealthy: adapterHealth.AdapterHealthy && adapterHealth.HealthyProviders > 0,
		Adapter: AdapterHealth{
			Healthy:          adapterHealth.AdapterHealthy,
			AgentsLoaded:     adapterHealth.AgentsLoaded,
			HealthyProviders: adapterHealth.HealthyProviders,
		},
		Coordination: CoordinationHealth{
			Healthy:   coordHealth.Healthy,
			LatencyMS: coordHealth.LatencyMS,
		},
		Memory:    f.memory.Stats(),
		Providers: adapterHealth.Providers,
	}
}
