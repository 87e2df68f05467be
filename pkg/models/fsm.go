package models

import (
	"fmt"
)

// validTransitions maps from-state to allowed to-states
var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusQueued: {
		JobStatusRunning:   true, // Queued → Running (worker picks up job)
		JobStatusCompleted: true, // Queued → Completed (trivial input, pipeline finished before first progress report)
		JobStatusFailed:    true, // Queued → Failed (rejected before execution)
	},
	JobStatusRunning: {
		JobStatusCompleted: true, // Running → Completed (pipeline finished)
		JobStatusFailed:    true, // Running → Failed (pipeline reported failure)
	},
	// Terminal states (no transitions allowed)
	JobStatusCompleted: {},
	JobStatusFailed:    {},
}

// ValidateTransition checks if a state transition is valid
func ValidateTransition(from, to JobStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}

// IsTerminalState returns true if the state is terminal (no further transitions)
func IsTerminalState(state JobStatus) bool {
	return state == JobStatusCompleted || state == JobStatusFailed
}

// IsActiveState returns true if the job is still eligible for progress reports
func IsActiveState(state JobStatus) bool {
	return state == JobStatusQueued || state == JobStatusRunning
}
