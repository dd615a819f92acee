package provideradapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/localagent/orchestrator/agentregistry"
)

// buildAgentPrompt assembles the fixed prompt template: agent name and
// description, the agent's body, task framing (type/description/
// instructions), pretty-printed context, an explicit requirements list,
// and the required response structure.
//
// Mirrors _build_agent_prompt in
// original_source/app/orchestration/agent_adapter.py.
func buildAgentPrompt(def agentregistry.Definition, req AgentRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Agent: %s\n\n", def.Name)
	fmt.Fprintf(&b, "%s\n\n", def.Description)
	b.WriteString(def.Body)
	b.WriteString("\n\n")

	b.WriteString("## Task\n\n")
	fmt.Fprintf(&b, "Type: %s\n", req.AgentType)
	fmt.Fprintf(&b, "Description: %s\n", req.Description)
	fmt.Fprintf(&b, "Instructions: %s\n\n", req.Prompt)

	b.WriteString("## Context\n\n")
	b.WriteString(prettyJSON(req.Context))
	b.WriteString("\n\n")

	if requirements := extractRequirements(req.Context); len(requirements) > 0 {
		b.WriteString("## Requirements\n\n")
		for _, r := range requirements {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Response Format\n\n")
	b.WriteString("Summary: <one-paragraph summary>\n")
	b.WriteString("Results: <detailed findings>\n")
	b.WriteString("Evidence: <supporting evidence, file paths, commands run>\n")
	b.WriteString("Status: <success|failure>\n")

	return b.String()
}

// buildStreamPrompt wraps buildAgentPrompt with stream-coordination
// framing for multi-stream workflow phases.
func buildStreamPrompt(def agentregistry.Definition, req AgentRequest, stream string) string {
	base := buildAgentPrompt(def, req)
	return fmt.Sprintf("## Stream: %s\n\nCoordinate with other streams through shared context.\n\n%s", stream, base)
}

func extractRequirements(context map[string]any) []string {
	raw, ok := context["requirements"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	requirements := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			requirements = append(requirements, s)
		}
	}
	return requirements
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
