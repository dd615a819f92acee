package workflow

// PhaseIDs returns the ordered list of configured phase ids, mirroring
// get_available_phases in workflow_engine.py.
func (e *Engine) PhaseIDs() []string {
	ids := make([]string, len(e.phases))
	for i, p := range e.phases {
		ids[i] = p.PhaseID
	}
	return ids
}

// PhaseNames returns a map of phase id to its configured display name.
func (e *Engine) PhaseNames() map[string]string {
	names := make(map[string]string, len(e.phases))
	for _, p := range e.phases {
		names[p.PhaseID] = p.Name
	}
	return names
}

// Status summarizes exec for status queries (get_workflow_status), without
// exposing the full phase-result/evidence payload.
type Status struct {
	WorkflowID     string
	Status         WorkflowStatus
	CurrentPhase   string
	PhasesComplete int
	TotalPhases    int
	Paused         bool
}

// Status reports a point-in-time summary of exec relative to the
// engine's configured phase count.
func (e *Engine) Status(exec *WorkflowExecution) Status {
	return Status{
		WorkflowID:     exec.WorkflowID,
		Status:         exec.Status,
		CurrentPhase:   exec.CurrentPhase,
		PhasesComplete: len(exec.PhaseResults),
		TotalPhases:    len(e.phases),
		Paused:         e.isPaused(),
	}
}
