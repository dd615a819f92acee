package provideradapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/orchestrator/agentregistry"
)

func newTestRegistry(t *testing.T) *agentregistry.Registry {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scout.md"),
		[]byte("---\nname: scout\ndescription: gathers evidence\n---\nYou are a scout.\n"), 0o644))

	r := agentregistry.New(nil)
	_, err := r.LoadDir(dir)
	require.NoError(t, err)
	return r
}

func TestExecuteAgentNotFound(t *testing.T) {
	a := New(newTestRegistry(t), NewFallbackProviderManager(NewEchoProvider("echo")), 0, nil)
	resp := a.ExecuteAgent(context.Background(), AgentRequest{AgentType: "phase_0", SubagentType: "missing"})

	assert.False(t, resp.Success)
	assert.Equal(t, "Agent not found", resp.Error)
	assert.Zero(t, resp.ExecutionTimeSeconds)
}

func TestExecuteAgentSuccessWithEchoProvider(t *testing.T) {
	a := New(newTestRegistry(t), NewFallbackProviderManager(NewEchoProvider("echo")), 0, nil)
	resp := a.ExecuteAgent(context.Background(), AgentRequest{
		AgentType:    "phase_0",
		SubagentType: "scout",
		Description:  "investigate the bug",
		Prompt:       "find the root cause",
		Context:      map[string]any{"requirements": []any{"be thorough"}},
	})

	assert.True(t, resp.Success)
	assert.Equal(t, "echo", resp.ProviderUsed)
	assert.NotEmpty(t, resp.Evidence)
	assert.Contains(t, resp.Content, "find the root cause")
}

func TestExecuteAgentFallsBackOnPreferredFailure(t *testing.T) {
	primary := &MockProvider{NameValue: "primary", FailWith: assert.AnError}
	secondary := NewMockProvider("secondary", "Status: success\nEvidence: file: output.log")

	a := New(newTestRegistry(t), NewFallbackProviderManager(primary, secondary), 0, nil)
	resp := a.ExecuteAgent(context.Background(), AgentRequest{SubagentType: "scout", ProviderPreference: "primary"})

	assert.True(t, resp.Success)
	assert.Equal(t, "secondary", resp.ProviderUsed)
}

func TestExecuteAgentAllProvidersFail(t *testing.T) {
	primary := &MockProvider{NameValue: "primary", FailWith: assert.AnError}
	a := New(newTestRegistry(t), NewFallbackProviderManager(primary), 0, nil)

	resp := a.ExecuteAgent(context.Background(), AgentRequest{SubagentType: "scout"})
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestExecuteParallelPreservesOrderAndIsolatesFailures(t *testing.T) {
	registry := newTestRegistry(t)
	provider := NewEchoProvider("echo")
	a := New(registry, NewFallbackProviderManager(provider), 2, nil)

	requests := []AgentRequest{
		{SubagentType: "scout", Prompt: "task-1"},
		{SubagentType: "missing", Prompt: "task-2"},
		{SubagentType: "scout", Prompt: "task-3"},
	}
	responses := a.ExecuteParallel(context.Background(), requests)

	require.Len(t, responses, 3)
	assert.True(t, responses[0].Success)
	assert.False(t, responses[1].Success)
	assert.True(t, responses[2].Success)
	assert.Contains(t, responses[0].Content, "task-1")
	assert.Contains(t, responses[2].Content, "task-3")
}

func TestStatsAccumulateAcrossRequests(t *testing.T) {
	a := New(newTestRegistry(t), NewFallbackProviderManager(NewEchoProvider("echo")), 0, nil)
	a.ExecuteAgent(context.Background(), AgentRequest{SubagentType: "scout"})
	a.ExecuteAgent(context.Background(), AgentRequest{SubagentType: "missing"})

	stats := a.Stats()
	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.SuccessfulRequests)
	assert.Equal(t, 1, stats.FailedRequests)
	assert.Equal(t, 1, stats.ProviderUsage["echo"])
}

func TestHealthAggregatesProviders(t *testing.T) {
	healthy := NewMockProvider("healthy", "ok")
	unhealthy := &MockProvider{NameValue: "unhealthy", Unhealthy: true}
	a := New(newTestRegistry(t), NewFallbackProviderManager(healthy, unhealthy), 0, nil)

	h := a.Health(context.Background())
	assert.True(t, h.AdapterHealthy)
	assert.Equal(t, 1, h.AgentsLoaded)
	assert.Equal(t, 1, h.HealthyProviders)
	assert.True(t, h.Providers["healthy"])
	assert.False(t, h.Providers["unhealthy"])
}

func TestAssessSuccessHeuristics(t *testing.T) {
	assert.True(t, assessSuccess("Status: success\nAll good"))
	assert.False(t, assessSuccess("Error: could not complete task"))
	assert.False(t, assessSuccess("short"))
	assert.True(t, assessSuccess(
		"A much longer response that exceeds one hundred characters in total length to trip the default heuristic."))
}

func TestExtractEvidenceFindsMarkers(t *testing.T) {
	content := "Summary: did the thing\nEvidence: saw it in the logs\nFile: /tmp/output.log\nNothing else here"
	items := extractEvidence(content)
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Line)
	assert.Equal(t, "text_evidence", items[0].Type)
}
