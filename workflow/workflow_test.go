package workflow

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/orchestrator/agentregistry"
	"github.com/localagent/orchestrator/provideradapter"
)

func writeAgent(t *testing.T, dir, name string, body string) {
	t.Helper()
	content := "---\nname: " + name + "\ndescription: test agent\n---\n" + body + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644))
}

func newAgents(t *testing.T, names ...string) *agentregistry.Registry {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		writeAgent(t, dir, n, "You are "+n+".")
	}
	r := agentregistry.New(nil)
	_, err := r.LoadDir(dir)
	require.NoError(t, err)
	return r
}

func newEngine(t *testing.T, phases []PhaseDefinition, provider provideradapter.Provider, agentNames ...string) *Engine {
	t.Helper()
	agents := newAgents(t, agentNames...)
	adapter := provideradapter.New(agents, provideradapter.NewFallbackProviderManager(provider), 0, nil)
	return New(phases, adapter, nil, nil)
}

func TestSinglePhaseSequentialSuccess(t *testing.T) {
	provider := provideradapter.NewMockProvider("mock", "Status: SUCCESS\nfile: x.txt")
	phases := []PhaseDefinition{{
		PhaseID: "phase_0", Name: "Scout", Execution: ExecutionSequential, Agents: []string{"A"},
	}}
	engine := newEngine(t, phases, provider, "A")

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")

	assert.Equal(t, WorkflowCompleted, exec.Status)
	require.Len(t, exec.PhaseResults, 1)
	result := exec.PhaseResults[0]
	require.Len(t, result.AgentResponses, 1)
	assert.True(t, result.AgentResponses[0].Success)

	var executions, evidenceItems, summaries int
	var successfulAgents int
	for _, item := range result.Evidence {
		switch item["type"] {
		case "agent_execution":
			executions++
		case "agent_evidence":
			evidenceItems++
		case "phase_summary":
			summaries++
			successfulAgents = item["successful_agents"].(int)
		}
	}
	assert.Equal(t, 1, executions)
	assert.GreaterOrEqual(t, evidenceItems, 1)
	assert.Equal(t, 1, summaries)
	assert.Equal(t, 1, successfulAgents)
}

// selectiveProvider fails for prompts containing failSubstr and succeeds
// for everything else, used to reproduce the mixed-outcome parallel phase
// scenario.
type selectiveProvider struct {
	failSubstr string
}

func (p *selectiveProvider) Name() string { return "selective" }

func (p *selectiveProvider) Complete(ctx context.Context, req provideradapter.CompletionRequest) (provideradapter.CompletionResponse, error) {
	if containsSubstr(req.Prompt, p.failSubstr) {
		return provideradapter.CompletionResponse{}, assertAnError{}
	}
	return provideradapter.CompletionResponse{Content: "Status: success\nEvidence: ok"}, nil
}

func (p *selectiveProvider) Healthy(ctx context.Context) bool { return true }

type assertAnError struct{}

func (assertAnError) Error() string { return "mock failure" }

func containsSubstr(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func TestParallelPhaseMixedOutcomes(t *testing.T) {
	provider := &selectiveProvider{failSubstr: "Execute B"}
	phases := []PhaseDefinition{{
		PhaseID: "phase_2", Name: "Build", Execution: ExecutionParallel, Agents: []string{"A", "B", "C"},
	}}
	engine := newEngine(t, phases, provider, "A", "B", "C")

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")

	require.Len(t, exec.PhaseResults, 1)
	result := exec.PhaseResults[0]
	require.Len(t, result.AgentResponses, 3)
	assert.True(t, result.AgentResponses[0].Success)
	assert.False(t, result.AgentResponses[1].Success)
	assert.NotEmpty(t, result.AgentResponses[1].Error)
	assert.True(t, result.AgentResponses[2].Success)
	assert.Equal(t, PhaseCompleted, result.Status)
}

func TestCriticalPhase1FailureStopsEarly(t *testing.T) {
	provider := &selectiveProvider{failSubstr: "Execute B"}
	phases := []PhaseDefinition{
		{PhaseID: "phase_0", Name: "Scout", Execution: ExecutionSequential, Agents: []string{"A"}},
		{PhaseID: "phase_1", Name: "Build", Execution: ExecutionSequential, Agents: []string{"B"}},
		{PhaseID: "phase_2", Name: "Ship", Execution: ExecutionSequential, Agents: []string{"A"}},
	}
	engine := newEngine(t, phases, provider, "A", "B")

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")

	require.Len(t, exec.PhaseResults, 2)
	assert.Equal(t, "phase_0", exec.PhaseResults[0].PhaseID)
	assert.Equal(t, "phase_1", exec.PhaseResults[1].PhaseID)
	assert.Equal(t, WorkflowCompleted, exec.Status)
}

func TestEmptyAgentsPhaseProducesZeroTotalSummary(t *testing.T) {
	provider := provideradapter.NewEchoProvider("echo")
	phases := []PhaseDefinition{{
		PhaseID: "phase_0", Name: "Empty", Execution: ExecutionParallel, Agents: nil,
	}}
	engine := newEngine(t, phases, provider)

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")
	require.Len(t, exec.PhaseResults, 1)
	result := exec.PhaseResults[0]
	assert.Empty(t, result.AgentResponses)
	require.Len(t, result.Evidence, 1)
	assert.Equal(t, "phase_summary", result.Evidence[0]["type"])
	assert.Equal(t, 0, result.Evidence[0]["total_agents"])
}

func TestMultiStreamDispatchesStreamsAndMandatoryAgents(t *testing.T) {
	provider := provideradapter.NewEchoProvider("echo")
	phases := []PhaseDefinition{{
		PhaseID:         "phase_3",
		Name:            "Multi",
		Execution:       ExecutionMultiStream,
		Streams:         map[string]Stream{"frontend": {Agents: []string{"A"}}, "backend": {Agents: []string{"B"}}},
		MandatoryAgents: []string{"C"},
	}}
	engine := newEngine(t, phases, provider, "A", "B", "C")

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")
	require.Len(t, exec.PhaseResults, 1)
	result := exec.PhaseResults[0]
	require.Len(t, result.AgentResponses, 3)
	for _, r := range result.AgentResponses {
		assert.True(t, r.Success)
	}
}

func TestMultiStreamWithOnlyMandatoryAgents(t *testing.T) {
	provider := provideradapter.NewEchoProvider("echo")
	phases := []PhaseDefinition{{
		PhaseID:         "phase_4",
		Name:            "MandatoryOnly",
		Execution:       ExecutionMultiStream,
		MandatoryAgents: []string{"C"},
	}}
	engine := newEngine(t, phases, provider, "C")

	exec := engine.ExecuteWorkflow(context.Background(), "hello", nil, "")
	require.Len(t, exec.PhaseResults, 1)
	assert.Len(t, exec.PhaseResults[0].AgentResponses, 1)
}

func TestPauseAndResumeTogglePausedState(t *testing.T) {
	provider := provideradapter.NewEchoProvider("echo")
	phases := []PhaseDefinition{
		{PhaseID: "phase_0", Execution: ExecutionSequential, Agents: []string{"A"}},
	}
	engine := newEngine(t, phases, provider, "A")
	engine.Pause()
	assert.True(t, engine.isPaused())
	engine.Resume()
	assert.False(t, engine.isPaused())
}

func TestLoadPhaseDefinitionsParsesYAMLSortedByID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.yaml")
	yamlContent := `
workflow:
  phases:
    phase_1:
      name: Build
      execution: sequential
      agents: [builder]
    phase_0:
      name: Scout
      execution: parallel
      agents: [scout]
    ignored_key:
      name: NotAPhase
      execution: sequential
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	defs, err := LoadPhaseDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "phase_0", defs[0].PhaseID)
	assert.Equal(t, ExecutionParallel, defs[0].Execution)
	assert.Equal(t, "phase_1", defs[1].PhaseID)
}

func TestLoadPhaseDefinitionsRejectsUnknownExecution(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "workflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workflow:\n  phases:\n    phase_0:\n      execution: bogus\n"), 0o644))

	_, err := LoadPhaseDefinitions(path)
	assert.Error(t, err)
}
