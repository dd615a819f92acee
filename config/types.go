package config

// ConfigInterface is the validate-and-default contract, matching the
// teacher repo's config.ConfigInterface. OrchestratorConfig implements it
// and validates and defaults its nested sections itself; the nested
// section types do not implement it.
type ConfigInterface interface {
	Validate() error
	SetDefaults()
}

// OrchestratorConfig is the Orchestrator Facade's top-level configuration.
type OrchestratorConfig struct {
	Orchestration OrchestrationConfig `mapstructure:"orchestration" yaml:"orchestration"`
	Context       ContextConfig       `mapstructure:"context" yaml:"context"`
	Coordination  CoordinationConfig  `mapstructure:"coordination" yaml:"coordination"`
	Workflow      WorkflowConfig      `mapstructure:"workflow" yaml:"workflow"`
}

// OrchestrationConfig controls the Agent Provider Adapter's fan-out.
type OrchestrationConfig struct {
	MaxParallelAgents int    `mapstructure:"max_parallel_agents" yaml:"max_parallel_agents"`
	AgentsDir         string `mapstructure:"agents_dir" yaml:"agents_dir"`
}

// ContextConfig overrides the Context Package Manager's per-type token
// limits; zero values fall back to spec.md §3's defaults via SetDefaults.
type ContextConfig struct {
	StrategicContextTokens   int `mapstructure:"strategic_context_tokens" yaml:"strategic_context_tokens"`
	TechnicalContextTokens   int `mapstructure:"technical_context_tokens" yaml:"technical_context_tokens"`
	FrontendContextTokens    int `mapstructure:"frontend_context_tokens" yaml:"frontend_context_tokens"`
	SecurityContextTokens    int `mapstructure:"security_context_tokens" yaml:"security_context_tokens"`
	PerformanceContextTokens int `mapstructure:"performance_context_tokens" yaml:"performance_context_tokens"`
	DatabaseContextTokens    int `mapstructure:"database_context_tokens" yaml:"database_context_tokens"`
	DefaultContextTokens     int `mapstructure:"default_context_tokens" yaml:"default_context_tokens"`
}

// CoordinationConfig points at the Redis backend for the Coordination Store.
type CoordinationConfig struct {
	RedisAddr string `mapstructure:"redis_addr" yaml:"redis_addr"`
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
}

// WorkflowConfig names the phase definitions file for the Workflow Engine.
type WorkflowConfig struct {
	PhasesFile string `mapstructure:"phases_file" yaml:"phases_file"`
}

// Validate reports whether the config's values are internally consistent.
func (c *OrchestratorConfig) Validate() error {
	if c.Orchestration.MaxParallelAgents <= 0 {
		return &ValidationError{Path: "orchestration.max_parallel_agents", Message: "must be positive"}
	}
	if c.Context.DefaultContextTokens <= 0 {
		return &ValidationError{Path: "context.default_context_tokens", Message: "must be positive"}
	}
	return nil
}

// SetDefaults fills in any zero-valued fields with spec.md's defaults.
func (c *OrchestratorConfig) SetDefaults() {
	if c.Orchestration.MaxParallelAgents == 0 {
		c.Orchestration.MaxParallelAgents = 10
	}
	if c.Orchestration.AgentsDir == "" {
		c.Orchestration.AgentsDir = "agents"
	}
	if c.Context.StrategicContextTokens == 0 {
		c.Context.StrategicContextTokens = 3000
	}
	if c.Context.TechnicalContextTokens == 0 {
		c.Context.TechnicalContextTokens = 4000
	}
	if c.Context.FrontendContextTokens == 0 {
		c.Context.FrontendContextTokens = 3000
	}
	if c.Context.SecurityContextTokens == 0 {
		c.Context.SecurityContextTokens = 3000
	}
	if c.Context.PerformanceContextTokens == 0 {
		c.Context.PerformanceContextTokens = 3000
	}
	if c.Context.DatabaseContextTokens == 0 {
		c.Context.DatabaseContextTokens = 3500
	}
	if c.Context.DefaultContextTokens == 0 {
		c.Context.DefaultContextTokens = 4000
	}
	if c.Coordination.RedisAddr == "" {
		c.Coordination.RedisAddr = "localhost:6379"
	}
	if c.Workflow.PhasesFile == "" {
		c.Workflow.PhasesFile = "workflow.yaml"
	}
}

// ValidationError reports that a config field failed validation.
type ValidationError struct {
	Path    string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "config: " + e.Path + ": " + e.Message + ": " + e.Err.Error()
	}
	return "config: " + e.Path + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }
