// Package orchestrator implements the Orchestrator Facade: the single
// entry point that wires the Agent Registry, Agent Provider Adapter,
// Coordination Store, Memory Store, Context Package Manager, and
// Workflow Engine together and exposes the three top-level operations
// (execute workflow / execute single agent / execute parallel agents)
// plus health and timeline recording.
//
// Grounded on original_source/app/orchestration (the package that wires
// WorkflowEngine, ContextManager, and AgentAdapter together in the
// original implementation) and on the teacher repo's top-level
// orchestrator.go construction-order pattern (build leaf components
// first, then the engine that depends on them).
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/localagent/orchestrator/agentregistry"
	"github.com/localagent/orchestrator/config"
	"github.com/localagent/orchestrator/contextpkg"
	"github.com/localagent/orchestrator/coordination"
	"github.com/localagent/orchestrator/logger"
	"github.com/localagent/orchestrator/memstore"
	"github.com/localagent/orchestrator/provideradapter"
	"github.com/localagent/orchestrator/workflow"
)

// Facade wires every component together and is the orchestrator's sole
// public surface. It owns the currently running WorkflowExecution, per
// spec.md §3's ownership note.
type Facade struct {
	cfg          *config.OrchestratorConfig
	agents       *agentregistry.Registry
	adapter      *provideradapter.Adapter
	coordination *coordination.Store
	memory       *memstore.Store
	contextMgr   *contextpkg.Manager
	engine       *workflow.Engine
	logger       *slog.Logger

	mu      sync.Mutex
	current *workflow.WorkflowExecution
}

// New wires the Orchestrator Facade from cfg, a caller-supplied provider
// manager (the Agent Provider Adapter's fallback chain), and an optional
// Redis client (nil disables the Coordination Store, which then runs in
// permanent degraded mode).
func New(cfg *config.OrchestratorConfig, providerManager provideradapter.ProviderManager, redisClient *redis.Client, log *slog.Logger) (*Facade, error) {
	log = logger.Or(log)

	agents := agentregistry.New(log)
	if cfg.Orchestration.AgentsDir != "" {
		if _, err := agents.LoadDir(cfg.Orchestration.AgentsDir); err != nil {
			log.Warn("orchestrator: could not load agents directory, continuing with an empty registry",
				"dir", cfg.Orchestration.AgentsDir, "error", err)
		}
	}

	adapter := provideradapter.New(agents, providerManager, cfg.Orchestration.MaxParallelAgents, log)

	coordStore := coordination.New(redisClient, log)
	coordStore.Initialize(context.Background())

	memory := memstore.New()
	contextMgr := contextpkg.New(cfg.Context, memory, log)

	var phases []workflow.PhaseDefinition
	if cfg.Workflow.PhasesFile != "" {
		defs, err := workflow.LoadPhaseDefinitions(cfg.Workflow.PhasesFile)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: could not load phase definitions: %w", err)
		}
		phases = defs
	}
	engine := workflow.New(phases, adapter, contextMgr, log)

	return &Facade{
		cfg:          cfg,
		agents:       agents,
		adapter:      adapter,
		coordination: coordStore,
		memory:       memory,
		contextMgr:   contextMgr,
		engine:       engine,
		logger:       log,
	}, nil
}

// ExecuteWorkflow runs the full phase sequence against prompt and
// context, recording workflow_started/workflow_completed timeline events
// and returning the assembled Report.
func (f *Facade) ExecuteWorkflow(ctx context.Context, prompt string, sharedContext map[string]any, workflowID string) *Report {
	if workflowID == "" {
		workflowID = uuid.NewString()
	}

	f.coordination.AddTimeline(ctx, workflowID, "workflow_started", map[string]any{
		"prompt":    prompt,
		"timestamp": time.Now().UTC(),
	})

	exec := f.engine.ExecuteWorkflow(ctx, prompt, sharedContext, workflowID)

	f.mu.Lock()
	f.current = exec
	f.mu.Unlock()

	eventType := "workflow_completed"
	if exec.Status == workflow.WorkflowFailed {
		eventType = "workflow_failed"
	}
	f.coordination.AddTimeline(ctx, workflowID, eventType, map[string]any{
		"status":    string(exec.Status),
		"timestamp": time.Now().UTC(),
	})

	return buildReport(exec, f.engine.PhaseNames())
}

// ExecuteSingleAgent dispatches one agent request directly through the
// Agent Provider Adapter, bypassing the phase sequence entirely.
func (f *Facade) ExecuteSingleAgent(ctx context.Context, agentType, prompt string, sharedContext map[string]any) provideradapter.AgentResponse {
	return f.adapter.ExecuteAgent(ctx, provideradapter.AgentRequest{
		AgentType:    agentType,
		SubagentType: agentType,
		Prompt:       prompt,
		Context:      sharedContext,
	})
}

// ParallelAgentRequest is one entry of an ExecuteParallelAgents batch.
type ParallelAgentRequest struct {
	AgentType   string
	Description string
	Prompt      string
}

// ExecuteParallelAgents dispatches every request concurrently through the
// Agent Provider Adapter's bounded fan-out, passing sharedContext as every
// request's context.
func (f *Facade) ExecuteParallelAgents(ctx context.Context, requests []ParallelAgentRequest, sharedContext map[string]any) []provideradapter.AgentResponse {
	agentRequests := make([]provideradapter.AgentRequest, len(requests))
	for i, r := range requests {
		agentRequests[i] = provideradapter.AgentRequest{
			AgentType:    r.AgentType,
			SubagentType: r.AgentType,
			Description:  r.Description,
			Prompt:       r.Prompt,
			Context:      sharedContext,
		}
	}
	return f.adapter.ExecuteParallel(ctx, agentRequests)
}

// CurrentWorkflow returns the most recently executed WorkflowExecution,
// or nil if none has run yet.
func (f *Facade) CurrentWorkflow() *workflow.WorkflowExecution {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// AvailablePhases returns the engine's configured phase ids in order.
func (f *Facade) AvailablePhases() []string {
	return f.engine.PhaseIDs()
}

// Pause/Resume delegate to the Workflow Engine; pausing takes effect
// between phases.
func (f *Facade) Pause()  { f.engine.Pause() }
func (f *Facade) Resume() { f.engine.Resume() }
