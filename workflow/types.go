// Package workflow implements the Workflow Engine: a fixed sequence of
// named phases, each dispatched sequentially/parallel/multi-stream over
// the Agent Provider Adapter, with evidence collection and a critical
// failure policy that can end a run early without treating it as failed.
//
// Grounded on original_source/app/orchestration/workflow_engine.py
// (WorkflowEngine, PhaseResult, WorkflowExecution, EvidenceCollector),
// translated from asyncio to synchronous Go calls into
// provideradapter.Adapter; parallel/multi-stream dispatch reuses the
// adapter's own bounded fan-out rather than re-implementing a semaphore.
package workflow

import (
	"time"

	"github.com/localagent/orchestrator/provideradapter"
)

// ExecutionMode selects how a phase dispatches its agents.
type ExecutionMode string

const (
	ExecutionSequential  ExecutionMode = "sequential"
	ExecutionParallel    ExecutionMode = "parallel"
	ExecutionMultiStream ExecutionMode = "multi-stream"
)

// Status values for PhaseResult.Status.
type PhaseStatus string

const (
	PhasePending   PhaseStatus = "pending"
	PhaseRunning   PhaseStatus = "running"
	PhaseCompleted PhaseStatus = "completed"
	PhaseFailed    PhaseStatus = "failed"
	PhaseSkipped   PhaseStatus = "skipped"
)

// Status values for WorkflowExecution.Status.
type WorkflowStatus string

const (
	WorkflowInitializing WorkflowStatus = "initializing"
	WorkflowRunning      WorkflowStatus = "running"
	WorkflowCompleted    WorkflowStatus = "completed"
	WorkflowFailed       WorkflowStatus = "failed"
	WorkflowPaused       WorkflowStatus = "paused"
)

// Stream names the agents that make up one named stream of a
// multi-stream phase.
type Stream struct {
	Agents []string
}

// PhaseDefinition is immutable per-run phase configuration, loaded once
// at engine construction.
type PhaseDefinition struct {
	PhaseID         string
	Name            string
	Description     string
	Execution       ExecutionMode
	Agents          []string
	Streams         map[string]Stream
	MandatoryAgents []string
	Requirements    []string
}

// PhaseResult records one phase's execution outcome.
type PhaseResult struct {
	PhaseID        string
	Status         PhaseStatus
	StartTime      time.Time
	EndTime        time.Time
	AgentsExecuted []string
	AgentResponses []provideradapter.AgentResponse
	Evidence       []map[string]any
	Metadata       map[string]any
	Error          string
}

// WorkflowExecution tracks a single run of the full phase sequence.
type WorkflowExecution struct {
	WorkflowID      string
	Status          WorkflowStatus
	StartTime       time.Time
	EndTime         time.Time
	CurrentPhase    string
	PhaseResults    []PhaseResult
	IterationCount  int
	ContextPackages map[string]any
	GlobalEvidence  []map[string]any
	InitialPrompt   string
	InitialContext  map[string]any
}
