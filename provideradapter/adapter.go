package provideradapter

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/localagent/orchestrator/agentregistry"
	"github.com/localagent/orchestrator/logger"
)

const defaultMaxParallel = 10

// Adapter dispatches AgentRequests to agent definitions and LLM
// providers, tracking success/failure statistics along the way.
type Adapter struct {
	agents          *agentregistry.Registry
	providerManager ProviderManager
	maxParallel     int
	stats           *statsTracker
	logger          *slog.Logger
}

// New returns an Adapter bound to agents and providerManager. maxParallel
// of zero falls back to spec.md's default of 10.
func New(agents *agentregistry.Registry, providerManager ProviderManager, maxParallel int, log *slog.Logger) *Adapter {
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	return &Adapter{
		agents:          agents,
		providerManager: providerManager,
		maxParallel:     maxParallel,
		stats:           newStatsTracker(),
		logger:          logger.Or(log),
	}
}

// ExecuteAgent looks up req's agent definition, builds its prompt,
// dispatches to the provider manager, and extracts evidence/success
// signals from the response. Retries are not performed here: provider
// fallback is entirely the ProviderManager's responsibility.
func (a *Adapter) ExecuteAgent(ctx context.Context, req AgentRequest) AgentResponse {
	req = req.normalized()
	start := time.Now()

	def, ok := a.agents.Get(req.SubagentType)
	if !ok {
		a.stats.record(false, "")
		return AgentResponse{
			Success: false,
			Error:   "Agent not found",
		}
	}

	prompt := buildAgentPrompt(def, req)
	if stream, isStream := req.Context["stream"].(string); isStream {
		prompt = buildStreamPrompt(def, req, stream)
	}

	completionReq := CompletionRequest{
		Prompt:      prompt,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      req.Stream,
	}

	resp, providerUsed, err := a.providerManager.CompleteWithFallback(ctx, completionReq, req.ProviderPreference)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		a.stats.record(false, providerUsed)
		return AgentResponse{
			Success:              false,
			ExecutionTimeSeconds: elapsed,
			Error:                err.Error(),
		}
	}

	success := assessSuccess(resp.Content)
	a.stats.record(success, providerUsed)

	return AgentResponse{
		Success:              success,
		Content:              resp.Content,
		Evidence:             extractEvidence(resp.Content),
		ExecutionTimeSeconds: elapsed,
		TokenUsage:           resp.TokenUsage,
		ProviderUsed:         providerUsed,
	}
}

// ExecuteParallel dispatches every request concurrently, bounded by the
// adapter's maxParallel semaphore. Responses are returned in the same
// order as requests, regardless of completion order. A single request's
// failure never aborts the others; it's materialized as a failed
// AgentResponse with an empty ProviderUsed and the error in Error.
func (a *Adapter) ExecuteParallel(ctx context.Context, requests []AgentRequest) []AgentResponse {
	responses := make([]AgentResponse, len(requests))
	sem := semaphore.NewWeighted(int64(a.maxParallel))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, req := range requests {
		i, req := i, req
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				responses[i] = AgentResponse{Success: false, Error: err.Error()}
				return nil
			}
			defer sem.Release(1)

			responses[i] = a.ExecuteAgent(groupCtx, req)
			return nil
		})
	}
	// errgroup.Go's worker never returns a non-nil error above, so Wait
	// cannot fail; individual failures are captured per-response instead.
	_ = group.Wait()

	return responses
}

// Stats returns a snapshot of the adapter's dispatch history.
func (a *Adapter) Stats() ExecutionStats {
	return a.stats.snapshot()
}

// Health reports the adapter's own readiness plus the health of every
// configured provider.
type Health struct {
	AdapterHealthy   bool
	AgentsLoaded     int
	HealthyProviders int
	Providers        map[string]bool
}

// Health aggregates the provider manager's per-provider health into the
// adapter-level health summary consumed by the Orchestrator Facade.
func (a *Adapter) Health(ctx context.Context) Health {
	providers := a.providerManager.HealthCheckAll(ctx)
	healthy := 0
	for _, ok := range providers {
		if ok {
			healthy++
		}
	}
	return Health{
		AdapterHealthy:   a.agents != nil,
		AgentsLoaded:     a.agents.Count(),
		HealthyProviders: healthy,
		Providers:        providers,
	}
}

// AvailableAgents returns the names of every registered agent definition.
func (a *Adapter) AvailableAgents() []string {
	return a.agents.Names()
}
