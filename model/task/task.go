package task

import "time"

// Status captures a task's position in its lifecycle state machine.
type Status string

const (
	StatusPlanned          Status = "planned"
	StatusRunning          Status = "running"
	StatusApprovalRequired Status = "approval_required"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusSucceeded        Status = "succeeded"
	StatusFailed           Status = "failed"
	StatusCancelled        Status = "cancelled"
)

// IsTerminal reports whether no further transition out of the status is
// permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether moving to next is a valid forward transition.
// The store does not enforce this; the orchestration workflow is the single
// writer of task status and uses this helper to keep transitions monotonic.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	switch s {
	case StatusPlanned:
		return next == StatusRunning
	case StatusRunning:
		return next == StatusApprovalRequired || next == StatusSucceeded || next == StatusFailed
	case StatusApprovalRequired:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusSucceeded || next == StatusFailed
	}
	return false
}

// Task records one execution attempt's lifecycle. The orchestration workflow
// creates it at the start of every attempt and remains the only writer of its
// status and response fields.
type Task struct {
	ID               string                 `json:"id"`
	TenantID         string                 `json:"tenantId,omitempty"`
	TraceID          string                 `json:"traceId,omitempty"`
	ActorID          string                 `json:"actorId,omitempty"`
	Status           Status                 `json:"status"`
	SelectedAgentID  string                 `json:"selectedAgentId,omitempty"`
	SelectedActionID string                 `json:"selectedActionId,omitempty"`
	InputPrompt      string                 `json:"inputPrompt,omitempty"`
	RequestPayload   map[string]interface{} `json:"requestPayload,omitempty"`
	ResponsePayload  map[string]interface{} `json:"responsePayload,omitempty"`
	ErrorMessage     string                 `json:"errorMessage,omitempty"`
	BackupRunID      string                 `json:"backupRunId,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
	UpdatedAt        time.Time              `json:"updatedAt"`
}
