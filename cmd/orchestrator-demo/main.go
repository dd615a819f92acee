// Command orchestrator-demo exercises the Orchestrator Facade end to end
// against an in-process mock/echo provider, enough to prove the wiring
// works without a real LLM HTTP client. It writes a small set of sample
// agent definitions and a two-phase workflow configuration to a
// temporary directory, runs a workflow, and prints the resulting report
// as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/localagent/orchestrator/config"
	"github.com/localagent/orchestrator/logger"
	"github.com/localagent/orchestrator/orchestrator"
	"github.com/localagent/orchestrator/provideradapter"
)

func main() {
	prompt := flag.String("prompt", "Investigate the failing checkout flow and ship a fix.", "user prompt to run through the workflow")
	logLevel := flag.String("log-level", "info", "debug|info|warn|error")
	flag.Parse()

	logger.Init(logger.ParseLevel(*logLevel), os.Stderr)
	log := logger.Get()

	workDir, err := os.MkdirTemp("", "orchestrator-demo-")
	if err != nil {
		fatal(log, "could not create working directory", err)
	}
	defer os.RemoveAll(workDir)

	agentsDir := filepath.Join(workDir, "agents")
	if err := writeSampleAgents(agentsDir); err != nil {
		fatal(log, "could not write sample agents", err)
	}

	phasesPath := filepath.Join(workDir, "workflow.yaml")
	if err := os.WriteFile(phasesPath, []byte(sampleWorkflowYAML), 0o644); err != nil {
		fatal(log, "could not write sample workflow config", err)
	}

	cfg := config.Default()
	cfg.Orchestration.AgentsDir = agentsDir
	cfg.Workflow.PhasesFile = phasesPath

	providerManager := provideradapter.NewFallbackProviderManager(
		provideradapter.NewEchoProvider("echo"),
	)

	facade, err := orchestrator.New(cfg, providerManager, nil, log)
	if err != nil {
		fatal(log, "could not build orchestrator", err)
	}

	report := facade.ExecuteWorkflow(context.Background(), *prompt, nil, "")

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fatal(log, "could not encode report", err)
	}
	fmt.Println(string(encoded))

	if !report.Success {
		os.Exit(1)
	}
}

func fatal(log *slog.Logger, message string, err error) {
	log.Error("orchestrator-demo: "+message, "error", err)
	os.Exit(1)
}

func writeSampleAgents(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for name, content := range sampleAgents {
		path := filepath.Join(dir, name+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

var sampleAgents = map[string]string{
	"scout": "---\nname: scout\ndescription: Surveys the codebase and reproduces the reported problem.\n---\n" +
		"You are a meticulous investigator. Reproduce the issue before proposing anything.\n",
	"engineer": "---\nname: engineer\ndescription: Implements the fix once the root cause is understood.\n---\n" +
		"You are a careful engineer. Make the smallest change that fixes the root cause.\n",
	"reviewer": "---\nname: reviewer\ndescription: Reviews the proposed change for correctness and regressions.\n---\n" +
		"You are a skeptical reviewer. Look for edge cases the engineer missed.\n",
}

const sampleWorkflowYAML = `
workflow:
  phases:
    phase_0:
      name: Investigation
      description: Reproduce and characterize the problem.
      execution: sequential
      agents: [scout]
      requirements: ["reproduce the issue", "identify the root cause"]
    phase_1:
      name: Implementation
      description: Build and review the fix in parallel streams.
      execution: multi-stream
      streams:
        implementation:
          agents: [engineer]
        quality:
          agents: [reviewer]
      mandatory_agents: []
      requirements: ["smallest viable change", "no regressions"]
`
