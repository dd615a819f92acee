package workflow

import "github.com/localagent/orchestrator/provideradapter"

// collectPhaseEvidence builds the evidence list for one completed phase:
// one agent_execution item per dispatched agent, one agent_evidence item
// per extracted EvidenceItem on that agent's response, and a trailing
// phase_summary item with totals.
//
// Grounded on EvidenceCollector.collect_phase_evidence in
// original_source/app/orchestration/workflow_engine.py.
func collectPhaseEvidence(phaseID string, agents []string, responses []provideradapter.AgentResponse) []map[string]any {
	var items []map[string]any
	successCount := 0
	var totalTime float64

	for i, resp := range responses {
		agent := ""
		if i < len(agents) {
			agent = agents[i]
		}
		totalTime += resp.ExecutionTimeSeconds
		if resp.Success {
			successCount++
		}

		items = append(items, map[string]any{
			"type":           "agent_execution",
			"agent":          agent,
			"success":        resp.Success,
			"execution_time": resp.ExecutionTimeSeconds,
			"token_usage":    resp.TokenUsage,
			"provider_used":  resp.ProviderUsed,
		})

		for _, ev := range resp.Evidence {
			items = append(items, map[string]any{
				"type":    "agent_evidence",
				"agent":   agent,
				"source":  "response",
				"line":    ev.Line,
				"content": ev.Content,
			})
		}
	}

	items = append(items, map[string]any{
		"type":                 "phase_summary",
		"phase_id":             phaseID,
		"total_agents":         len(responses),
		"successful_agents":    successCount,
		"total_execution_time": totalTime,
		"status":               phaseSummaryStatus(len(responses), successCount),
	})

	return items
}

func phaseSummaryStatus(total, successful int) string {
	if total == 0 {
		return "empty"
	}
	if successful == total {
		return "completed"
	}
	if successful == 0 {
		return "failed"
	}
	return "partial"
}
