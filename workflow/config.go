package workflow

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// wireConfig mirrors the workflow configuration file's YAML shape from
// the external-interfaces section: a top-level "workflow.phases" map
// keyed by phase id.
type wireConfig struct {
	Workflow struct {
		Phases map[string]wirePhase `yaml:"phases"`
	} `yaml:"workflow"`
}

type wirePhase struct {
	Name            string                `yaml:"name"`
	Description     string                `yaml:"description"`
	Execution       string                `yaml:"execution"`
	Agents          []string              `yaml:"agents"`
	Streams         map[string]wireStream `yaml:"streams"`
	MandatoryAgents []string              `yaml:"mandatory_agents"`
	Requirements    []string              `yaml:"requirements"`
}

type wireStream struct {
	Agents []string `yaml:"agents"`
}

// LoadPhaseDefinitions parses a workflow configuration file into an
// ordered slice of PhaseDefinition, sorted by phase id (phase_0 first).
// Non "phase_" prefixed keys are ignored, matching
// workflow_engine.py's iteration filter.
func LoadPhaseDefinitions(path string) ([]PhaseDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("workflow: read phase config: %w", err)
	}

	var cfg wireConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("workflow: parse phase config: %w", err)
	}
	return decodePhases(cfg.Workflow.Phases)
}

func decodePhases(phases map[string]wirePhase) ([]PhaseDefinition, error) {
	ids := make([]string, 0, len(phases))
	for id := range phases {
		if strings.HasPrefix(id, "phase_") {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	defs := make([]PhaseDefinition, 0, len(ids))
	for _, id := range ids {
		p := phases[id]
		mode := ExecutionMode(p.Execution)
		switch mode {
		case ExecutionSequential, ExecutionParallel, ExecutionMultiStream:
		default:
			return nil, fmt.Errorf("workflow: phase %s: unknown execution mode %q", id, p.Execution)
		}

		streams := make(map[string]Stream, len(p.Streams))
		for name, s := range p.Streams {
			streams[name] = Stream{Agents: s.Agents}
		}

		defs = append(defs, PhaseDefinition{
			PhaseID:         id,
			Name:            p.Name,
			Description:     p.Description,
			Execution:       mode,
			Agents:          p.Agents,
			Streams:         streams,
			MandatoryAgents: p.MandatoryAgents,
			Requirements:    p.Requirements,
		})
	}
	return defs, nil
}
