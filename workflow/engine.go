package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/localagent/orchestrator/contextpkg"
	"github.com/localagent/orchestrator/logger"
	"github.com/localagent/orchestrator/provideradapter"
)

// Engine sequences a fixed list of phases over an Agent Provider Adapter,
// optionally mirroring per-phase context packages.
//
// Grounded on WorkflowEngine in
// original_source/app/orchestration/workflow_engine.py.
type Engine struct {
	phases     []PhaseDefinition
	adapter    *provideradapter.Adapter
	contextMgr *contextpkg.Manager
	logger     *slog.Logger

	mu     sync.Mutex
	paused bool
	now    func() time.Time
}

// New returns an Engine that dispatches through adapter and sequences
// phases. contextMgr may be nil to disable per-phase context mirroring.
func New(phases []PhaseDefinition, adapter *provideradapter.Adapter, contextMgr *contextpkg.Manager, log *slog.Logger) *Engine {
	return &Engine{
		phases:     phases,
		adapter:    adapter,
		contextMgr: contextMgr,
		logger:     logger.Or(log),
		now:        time.Now,
	}
}

// AvailablePhases returns the engine's configured phase definitions in
// execution order.
func (e *Engine) AvailablePhases() []PhaseDefinition {
	return e.phases
}

// Pause transitions a running workflow to paused. Pausing takes effect
// between phases; no in-flight agent dispatch is interrupted.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

// Resume clears a previously set pause.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
}

func (e *Engine) isPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// ExecuteWorkflow runs every configured phase in ascending phase id order
// against prompt and context, returning the completed WorkflowExecution.
// A phase failure is recorded on that phase's PhaseResult and, unless it
// is a critical failure, execution continues with the next phase. A
// critical failure (phase_0/phase_1 always, or every dispatched agent in
// any other phase failing) stops the loop early without marking the
// workflow itself as failed.
func (e *Engine) ExecuteWorkflow(ctx context.Context, prompt string, initialContext map[string]any, workflowID string) *WorkflowExecution {
	if workflowID == "" {
		workflowID = fmt.Sprintf("workflow_%d", e.now().UnixNano())
	}
	if initialContext == nil {
		initialContext = map[string]any{}
	}

	exec := &WorkflowExecution{
		WorkflowID:      workflowID,
		Status:          WorkflowInitializing,
		StartTime:       e.now(),
		ContextPackages: map[string]any{},
		InitialPrompt:   prompt,
		InitialContext:  initialContext,
	}
	exec.Status = WorkflowRunning

	e.runPhases(ctx, exec, prompt, initialContext)

	exec.Status = WorkflowCompleted
	exec.EndTime = e.now()
	return exec
}

func (e *Engine) runPhases(ctx context.Context, exec *WorkflowExecution, prompt string, carried map[string]any) {
	for _, phase := range e.phases {
		for e.isPaused() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}

		exec.CurrentPhase = phase.PhaseID
		result := e.executePhase(ctx, phase, exec.WorkflowID, prompt, carried)
		exec.PhaseResults = append(exec.PhaseResults, result)
		exec.GlobalEvidence = append(exec.GlobalEvidence, result.Evidence...)

		if e.isCriticalFailure(phase.PhaseID, result) {
			e.logger.Warn("workflow: critical phase failure, stopping early",
				"workflow_id", exec.WorkflowID, "phase_id", phase.PhaseID)
			return
		}
	}
}

func (e *Engine) executePhase(ctx context.Context, phase PhaseDefinition, workflowID, prompt string, carried map[string]any) PhaseResult {
	result := PhaseResult{
		PhaseID:   phase.PhaseID,
		Status:    PhaseRunning,
		StartTime: e.now(),
		Metadata:  map[string]any{},
	}

	var agents []string
	var responses []provideradapter.AgentResponse

	switch phase.Execution {
	case ExecutionSequential:
		agents, responses = e.executeSequential(ctx, phase, prompt, carried)
	case ExecutionParallel:
		agents, responses = e.executeParallel(ctx, phase, prompt, carried)
	case ExecutionMultiStream:
		agents, responses = e.executeMultiStream(ctx, phase, prompt, carried)
	default:
		result.Status = PhaseFailed
		result.Error = fmt.Sprintf("unknown execution mode %q", phase.Execution)
		result.EndTime = e.now()
		return result
	}

	result.AgentsExecuted = agents
	result.AgentResponses = responses
	result.Evidence = collectPhaseEvidence(phase.PhaseID, agents, responses)
	result.Status = PhaseCompleted
	result.EndTime = e.now()

	if e.contextMgr != nil {
		successCount := 0
		for _, r := range responses {
			if r.Success {
				successCount++
			}
		}
		content := map[string]any{
			"phase_id":        phase.PhaseID,
			"agents_executed": agents,
			"success_count":   successCount,
			"evidence":        result.Evidence,
			"execution_time":  result.EndTime.Sub(result.StartTime).Seconds(),
		}
		id := fmt.Sprintf("%s_%s", workflowID, phase.PhaseID)
		e.contextMgr.CreatePackage(id, contextpkg.PackageGeneric, content, nil, 0)
	}

	return result
}

func (e *Engine) executeSequential(ctx context.Context, phase PhaseDefinition, prompt string, carried map[string]any) ([]string, []provideradapter.AgentResponse) {
	responses := make([]provideradapter.AgentResponse, 0, len(phase.Agents))
	for _, agent := range phase.Agents {
		req := provideradapter.AgentRequest{
			AgentType:    phase.PhaseID,
			SubagentType: agent,
			Description:  fmt.Sprintf("Execute %s for %s", agent, phase.PhaseID),
			Prompt:       buildPhasePrompt(phase, agent, prompt, carried),
			Context:      carried,
		}
		responses = append(responses, e.adapter.ExecuteAgent(ctx, req))
	}
	return phase.Agents, responses
}

func (e *Engine) executeParallel(ctx context.Context, phase PhaseDefinition, prompt string, carried map[string]any) ([]string, []provideradapter.AgentResponse) {
	requests := make([]provideradapter.AgentRequest, 0, len(phase.Agents))
	for _, agent := range phase.Agents {
		requests = append(requests, provideradapter.AgentRequest{
			AgentType:    phase.PhaseID,
			SubagentType: agent,
			Description:  fmt.Sprintf("Execute %s for %s", agent, phase.PhaseID),
			Prompt:       buildPhasePrompt(phase, agent, prompt, carried),
			Context:      carried,
		})
	}
	return phase.Agents, e.adapter.ExecuteParallel(ctx, requests)
}

func (e *Engine) executeMultiStream(ctx context.Context, phase PhaseDefinition, prompt string, carried map[string]any) ([]string, []provideradapter.AgentResponse) {
	var agents []string
	var requests []provideradapter.AgentRequest

	streamNames := make([]string, 0, len(phase.Streams))
	for name := range phase.Streams {
		streamNames = append(streamNames, name)
	}
	sort.Strings(streamNames)

	for _, name := range streamNames {
		stream := phase.Streams[name]
		for _, agent := range stream.Agents {
			streamCtx := mergeContext(carried, map[string]any{"stream": name})
			requests = append(requests, provideradapter.AgentRequest{
				AgentType:    "stream_" + name,
				SubagentType: agent,
				Description:  fmt.Sprintf("Execute %s for %s stream %s", agent, phase.PhaseID, name),
				Prompt:       buildStreamPrompt(phase, name, agent, prompt, streamCtx),
				Context:      streamCtx,
			})
			agents = append(agents, agent)
		}
	}

	for _, agent := range phase.MandatoryAgents {
		requests = append(requests, provideradapter.AgentRequest{
			AgentType:    "mandatory",
			SubagentType: agent,
			Description:  fmt.Sprintf("Execute mandatory agent %s for %s", agent, phase.PhaseID),
			Prompt:       buildPhasePrompt(phase, agent, prompt, carried),
			Context:      carried,
		})
		agents = append(agents, agent)
	}

	if len(requests) == 0 {
		return agents, nil
	}
	return agents, e.adapter.ExecuteParallel(ctx, requests)
}

// isCriticalFailure reports whether phaseID's result must stop the phase
// loop, matching spec.md §7's CriticalPhaseFailure: an internal signal
// that is never propagated as a Go error, only used to short-circuit the
// loop in runPhases. phase_0 and phase_1 are critical on any agent
// failure; every other phase is critical only if every dispatched agent
// failed.
//
// Grounded on _is_critical_failure in
// original_source/app/orchestration/workflow_engine.py.
func (e *Engine) isCriticalFailure(phaseID string, result PhaseResult) bool {
	if result.Status == PhaseFailed {
		return true
	}

	total := len(result.AgentResponses)
	failed := 0
	for _, r := range result.AgentResponses {
		if !r.Success {
			failed++
		}
	}
	if total == 0 {
		return false
	}

	if phaseID == "phase_0" || phaseID == "phase_1" {
		return failed > 0
	}
	return failed == total
}

func mergeContext(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
