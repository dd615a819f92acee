package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localagent/orchestrator/config"
	"github.com/localagent/orchestrator/provideradapter"
)

func writeAgentFile(t *testing.T, dir, name string) {
	t.Helper()
	content := "---\nname: " + name + "\ndescription: test agent\n---\nYou are " + name + ".\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".md"), []byte(content), 0o644))
}

func writeWorkflowFile(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "workflow.yaml")
	content := `
workflow:
  phases:
    phase_0:
      name: Scout
      execution: sequential
      agents: [scout]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	agentsDir := t.TempDir()
	writeAgentFile(t, agentsDir, "scout")

	workflowDir := t.TempDir()
	phasesPath := writeWorkflowFile(t, workflowDir)

	cfg := config.Default()
	cfg.Orchestration.AgentsDir = agentsDir
	cfg.Workflow.PhasesFile = phasesPath

	provider := provideradapter.NewEchoProvider("echo")
	facade, err := New(cfg, provideradapter.NewFallbackProviderManager(provider), nil, nil)
	require.NoError(t, err)
	return facade
}

func TestExecuteWorkflowProducesSuccessfulReport(t *testing.T) {
	facade := newTestFacade(t)
	report := facade.ExecuteWorkflow(context.Background(), "investigate the issue", nil, "")

	assert.True(t, report.Success)
	assert.NotEmpty(t, report.WorkflowID)
	require.Len(t, report.PhaseSummaries, 1)
	assert.Equal(t, "phase_0", report.PhaseSummaries[0].ID)
	assert.Equal(t, "Scout", report.PhaseSummaries[0].Name)
	assert.Equal(t, 1, report.PhaseSummaries[0].SuccessfulAgents)
	assert.Contains(t, report.AgentPerformance, "scout")
	assert.Equal(t, 1, report.AgentPerformance["scout"].Executions)
}

func TestExecuteSingleAgentBypassesPhaseSequence(t *testing.T) {
	facade := newTestFacade(t)
	resp := facade.ExecuteSingleAgent(context.Background(), "scout", "look around", nil)

	assert.True(t, resp.Success)
	assert.Nil(t, facade.CurrentWorkflow())
}

func TestExecuteParallelAgentsPreservesOrder(t *testing.T) {
	facade := newTestFacade(t)
	requests := []ParallelAgentRequest{
		{AgentType: "scout", Prompt: "task-1"},
		{AgentType: "scout", Prompt: "task-2"},
	}
	responses := facade.ExecuteParallelAgents(context.Background(), requests, nil)

	require.Len(t, responses, 2)
	assert.Contains(t, responses[0].Content, "task-1")
	assert.Contains(t, responses[1].Content, "task-2")
}

func TestHealthReportsDegradedCoordinationWithoutFailingOverall(t *testing.T) {
	facade := newTestFacade(t)
	health := facade.Health(context.Background())

	assert.True(t, health.OverallHealthy)
	assert.False(t, health.Coordination.Healthy)
	assert.Equal(t, 1, health.Adapter.AgentsLoaded)
}

func TestAvailablePhasesAndPauseResume(t *testing.T) {
	facade := newTestFacade(t)
	assert.Equal(t, []string{"phase_0"}, facade.AvailablePhases())

	facade.Pause()
	facade.Resume()
}

func TestCurrentWorkflowTracksLastExecution(t *testing.T) {
	facade := newTestFacade(t)
	assert.Nil(t, facade.CurrentWorkflow())

	facade.ExecuteWorkflow(context.Background(), "hello", nil, "workflow-123")
	current := facade.CurrentWorkflow()
	require.NotNil(t, current)
	assert.Equal(t, "workflow-123", current.WorkflowID)
}
