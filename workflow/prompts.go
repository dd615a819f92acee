package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// buildPhasePrompt assembles the phase-framing prompt prepended to an
// agent's own prompt, naming the phase, the agent's role within it, the
// original user request, a short phase-context blurb, and the phase's
// requirements as JSON.
//
// Grounded on _build_phase_prompt in
// original_source/app/orchestration/workflow_engine.py.
func buildPhasePrompt(def PhaseDefinition, agentType, userPrompt string, ctx map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Phase: %s (%s)\n\n", def.PhaseID, def.Name)
	fmt.Fprintf(&b, "%s\n\n", def.Description)
	fmt.Fprintf(&b, "## Your Role\nYou are acting as: %s\n\n", agentType)
	fmt.Fprintf(&b, "## Original Request\n%s\n\n", userPrompt)
	b.WriteString("## Phase Context\n")
	b.WriteString(phaseContextBlurb(ctx))
	b.WriteString("\n\n")
	if len(def.Requirements) > 0 {
		reqJSON, _ := json.MarshalIndent(def.Requirements, "", "  ")
		fmt.Fprintf(&b, "## Requirements\n%s\n\n", string(reqJSON))
	}
	return b.String()
}

// buildStreamPrompt extends buildPhasePrompt with the stream name and an
// instruction to coordinate with peer streams through shared context.
//
// Grounded on _build_stream_prompt in
// original_source/app/orchestration/workflow_engine.py.
func buildStreamPrompt(def PhaseDefinition, stream, agentType, userPrompt string, ctx map[string]any) string {
	base := buildPhasePrompt(def, agentType, userPrompt, ctx)
	return fmt.Sprintf("%s## Stream\nYou are part of stream: %s\nCoordinate with other streams through shared context.\n", base, stream)
}

func phaseContextBlurb(ctx map[string]any) string {
	if len(ctx) == 0 {
		return "No additional context was carried forward from prior phases."
	}
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		if k == "stream" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return "No additional context was carried forward from prior phases."
	}
	return fmt.Sprintf("Carried forward from prior phases: %s", strings.Join(keys, ", "))
}
