// Package agentregistry implements the Agent Registry: a read-only,
// post-init, name-to-definition map built by scanning a directory of
// agent definition files (front-matter header + body).
//
// Grounded on the embedding pattern in kadirpekel-hector's
// agent.AgentRegistry (a typed *RegistryError over a name-keyed store),
// generalized from an in-memory agent-instance pool to the spec's
// simpler immutable AgentDefinition map; the mutex-guarded map itself
// follows this module's own memstore.Store discipline rather than a
// separate generic container, since a single concrete map is all an
// Agent Registry ever needs. Front-matter parsing uses gopkg.in/yaml.v3
// the way the teacher's agent definitions embed YAML-ish metadata
// blocks.
package agentregistry

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/localagent/orchestrator/logger"
)

// frontMatterDelim marks the start and end of an agent definition file's
// YAML header: "---\n<yaml>\n---\n<body>".
const frontMatterDelim = "---"

// Definition is an immutable agent definition loaded from disk at init.
type Definition struct {
	Name        string
	Description string
	Body        string
	SourcePath  string
}

// RegistryError reports an Agent Registry failure (init-time scan issues
// or lookups of an unknown agent).
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e *RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("agentregistry: %s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("agentregistry: %s: %s", e.Action, e.Message)
}

func (e *RegistryError) Unwrap() error { return e.Err }

// Registry is the read-only, post-init map of agent name to Definition.
type Registry struct {
	mu     sync.RWMutex
	items  map[string]Definition
	logger *slog.Logger
}

// New returns an empty Registry.
func New(log *slog.Logger) *Registry {
	return &Registry{
		items:  make(map[string]Definition),
		logger: logger.Or(log),
	}
}

// frontMatter is the subset of a definition file's header this registry
// requires; unknown keys are ignored.
type frontMatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// LoadDir scans dir for agent definition files and registers each
// well-formed one. Malformed files are logged and skipped rather than
// aborting the scan. Returns the count of agents successfully registered.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, &RegistryError{Action: "load_dir", Message: "could not read agents directory", Err: err}
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		def, err := parseDefinitionFile(path)
		if err != nil {
			r.logger.Warn("agentregistry: skipping malformed agent file", "path", path, "error", err)
			continue
		}
		if err := r.register(def.Name, *def); err != nil {
			r.logger.Warn("agentregistry: skipping duplicate agent", "path", path, "name", def.Name, "error", err)
			continue
		}
		loaded++
	}
	return loaded, nil
}

// parseDefinitionFile reads path and splits it into front-matter and body.
func parseDefinitionFile(path string) (*Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}

	header, body, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, err
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return nil, fmt.Errorf("could not parse front matter: %w", err)
	}
	if fm.Name == "" {
		return nil, fmt.Errorf("front matter missing required field %q", "name")
	}
	if fm.Description == "" {
		return nil, fmt.Errorf("front matter missing required field %q", "description")
	}

	return &Definition{
		Name:        fm.Name,
		Description: fm.Description,
		Body:        strings.TrimSpace(body),
		SourcePath:  path,
	}, nil
}

// splitFrontMatter separates a "---\n<yaml>\n---\n<body>" document into
// its two parts.
func splitFrontMatter(content string) (header, body string, err error) {
	trimmed := strings.TrimLeft(content, "\n")
	if !strings.HasPrefix(trimmed, frontMatterDelim) {
		return "", "", fmt.Errorf("missing opening %q delimiter", frontMatterDelim)
	}

	rest := trimmed[len(frontMatterDelim):]
	rest = strings.TrimPrefix(rest, "\n")

	closeIdx := strings.Index(rest, "\n"+frontMatterDelim)
	if closeIdx == -1 {
		return "", "", fmt.Errorf("missing closing %q delimiter", frontMatterDelim)
	}

	header = rest[:closeIdx]
	body = rest[closeIdx+len("\n"+frontMatterDelim):]
	body = strings.TrimPrefix(body, "\n")
	return header, body, nil
}

// register adds def under name. Re-registering an existing name is an error.
func (r *Registry) register(name string, def Definition) error {
	if name == "" {
		return fmt.Errorf("agentregistry: name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[name]; exists {
		return fmt.Errorf("agentregistry: agent %q already registered", name)
	}
	r.items[name] = def
	return nil
}

// Get returns the agent definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, exists := r.items[name]
	return def, exists
}

// Names returns every registered agent name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.items))
	for name := range r.items {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered agent definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// List returns every registered agent definition.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.items))
	for _, def := range r.items {
		defs = append(defs, def)
	}
	return defs
}
