package orchestrator

import "github.com/localagent/orchestrator/workflow"

// ExecutionSummary totals a workflow run's phase outcomes and timing.
type ExecutionSummary struct {
	TotalPhases      int
	CompletedPhases  int
	FailedPhases     int
	SkippedPhases    int
	TotalTimeSeconds float64
	IterationCount   int
}

// PhaseSummary condenses a single PhaseResult for reporting.
type PhaseSummary struct {
	ID                   string
	Name                 string
	Status               workflow.PhaseStatus
	AgentsExecuted       []string
	SuccessfulAgents     int
	ExecutionTimeSeconds float64
	EvidenceCount        int
	Error                string
}

// AgentPerformance aggregates one agent's behavior across every phase it
// was dispatched in during a single workflow run.
type AgentPerformance struct {
	Executions       int
	Successes        int
	TotalTimeSeconds float64
	TotalTokens      int
}

// EvidenceSummary totals the evidence items a workflow run collected.
type EvidenceSummary struct {
	TotalItems int
	PerPhase   map[string]int
	PerAgent   map[string]int
}

// ContextPackageSummary names a package the workflow run produced.
type ContextPackageSummary struct {
	ID         string
	Tokens     int
	Compressed bool
}

// Report is the Orchestrator Facade's top-level answer to
// ExecuteWorkflow, combining every per-component summary a caller needs
// without requiring them to walk the full WorkflowExecution.
type Report struct {
	Success          bool
	WorkflowID       string
	ExecutionSummary ExecutionSummary
	PhaseSummaries   []PhaseSummary
	AgentPerformance map[string]AgentPerformance
	EvidenceSummary  EvidenceSummary
	ContextSummary   []ContextPackageSummary
}

// buildReport assembles a Report from a completed WorkflowExecution.
//
// Grounded on the report fields described in spec.md §4.9; the
// original's get_workflow_status/report assembly lives in
// original_source/app/orchestration/workflow_engine.py and the
// (external, out-of-scope) CLI report formatter that consumes it.
func buildReport(exec *workflow.WorkflowExecution, phaseNames map[string]string) *Report {
	summary := ExecutionSummary{
		TotalPhases:    len(exec.PhaseResults),
		IterationCount: exec.IterationCount,
	}
	phaseSummaries := make([]PhaseSummary, 0, len(exec.PhaseResults))
	agentPerf := make(map[string]AgentPerformance)
	evidence := EvidenceSummary{PerPhase: map[string]int{}, PerAgent: map[string]int{}}

	for _, phase := range exec.PhaseResults {
		switch phase.Status {
		case workflow.PhaseCompleted:
			summary.CompletedPhases++
		case workflow.PhaseFailed:
			summary.FailedPhases++
		case workflow.PhaseSkipped:
			summary.SkippedPhases++
		}

		execTime := phase.EndTime.Sub(phase.StartTime).Seconds()
		summary.TotalTimeSeconds += execTime

		successCount := 0
		for i, resp := range phase.AgentResponses {
			if resp.Success {
				successCount++
			}
			agent := ""
			if i < len(phase.AgentsExecuted) {
				agent = phase.AgentsExecuted[i]
			}
			perf := agentPerf[agent]
			perf.Executions++
			if resp.Success {
				perf.Successes++
			}
			perf.TotalTimeSeconds += resp.ExecutionTimeSeconds
			perf.TotalTokens += resp.TokenUsage.Total
			agentPerf[agent] = perf
			evidence.PerAgent[agent] += len(resp.Evidence)
		}

		phaseSummaries = append(phaseSummaries, PhaseSummary{
			ID:                   phase.PhaseID,
			Name:                 phaseNames[phase.PhaseID],
			Status:               phase.Status,
			AgentsExecuted:       phase.AgentsExecuted,
			SuccessfulAgents:     successCount,
			ExecutionTimeSeconds: execTime,
			EvidenceCount:        len(phase.Evidence),
			Error:                phase.Error,
		})

		evidence.TotalItems += len(phase.Evidence)
		evidence.PerPhase[phase.PhaseID] = len(phase.Evidence)
	}

	contextSummary := make([]ContextPackageSummary, 0, len(exec.ContextPackages))
	for id := range exec.ContextPackages {
		contextSummary = append(contextSummary, ContextPackageSummary{ID: id})
	}

	return &Report{
		Success:          exec.Status == workflow.WorkflowCompleted,
		WorkflowID:       exec.WorkflowID,
		ExecutionSummary: summary,
		PhaseSummaries:   phaseSummaries,
		AgentPerformance: agentPerf,
		EvidenceSummary:  evidence,
		ContextSummary:   contextSummary,
	}
}
