// Package provideradapter implements the Agent Provider Adapter: looks up
// an agent definition, assembles its prompt, dispatches to an LLM
// provider (with fallback), and extracts evidence/success signals from
// the response.
//
// Grounded on original_source/app/orchestration/agent_adapter.py
// (AgentRequest/AgentResponse dataclasses, execute_agent,
// execute_parallel_agents, _build_agent_prompt, _extract_evidence,
// _assess_response_success, get_execution_stats, health_check), with the
// provider-registry shape borrowed from kadirpekel-hector's
// llms.LLMRegistry and the bounded-fan-out shape from its
// pkg/agent/workflowagent/parallel.go (errgroup.WithContext plus a
// semaphore for the bound spec.md §5 requires).
package provideradapter

import "fmt"

// AgentRequest is a single agent dispatch request. AgentType is the
// task/phase framing shown to the model (e.g. "phase_0", "stream_quality",
// "mandatory"); SubagentType is the registry lookup key naming which agent
// definition actually runs. The two are independent: a phase can frame the
// same agent definition differently across calls without changing which
// definition gets looked up.
//
// Mirrors AgentRequest's agent_type/subagent_type split in
// original_source/app/orchestration/agent_adapter.py.
type AgentRequest struct {
	AgentType          string
	SubagentType       string
	Description        string
	Prompt             string
	Context            map[string]any
	MaxTokens          int
	Temperature        float64
	Stream             bool
	ProviderPreference string
}

// normalized returns a copy of r with its default-bearing fields filled in.
func (r AgentRequest) normalized() AgentRequest {
	if r.MaxTokens == 0 {
		r.MaxTokens = 4000
	}
	if r.Temperature == 0 {
		r.Temperature = 0.1
	}
	return r
}

// TokenUsage reports how many tokens a single completion consumed.
type TokenUsage struct {
	Prompt     int
	Completion int
	Total      int
}

// EvidenceItem is a single piece of evidence extracted from an agent
// response, or synthesized by the workflow engine around a dispatch.
type EvidenceItem struct {
	Type    string
	Line    int
	Content string
	Source  string
}

// AgentResponse is the result of dispatching a single AgentRequest.
type AgentResponse struct {
	Success              bool
	Content              string
	Metadata             map[string]any
	Evidence             []EvidenceItem
	ExecutionTimeSeconds float64
	TokenUsage           TokenUsage
	ProviderUsed         string
	Error                string
}

// AgentNotFoundError reports that execute_agent was asked to dispatch to
// an agent name the registry has no definition for.
type AgentNotFoundError struct {
	AgentName string
}

func (e *AgentNotFoundError) Error() string {
	return fmt.Sprintf("provideradapter: agent not found: %s", e.AgentName)
}

// ProviderError reports that a provider failed to complete a request.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provideradapter: provider %s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("provideradapter: provider %s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }
