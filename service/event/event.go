package event

import "time"

// Lifecycle event topics published by the orchestration workflow.
const (
	TopicTaskStarted      = "task.started"
	TopicApprovalRequired = "task.approval_required"
	TopicTaskCompleted    = "task.completed"
	TopicTaskFailed       = "task.failed"
	TopicTaskRejected     = "task.rejected"
	TopicDecisionRecorded = "approval.decided"
)

// Source identifies the component publishing lifecycle events.
const Source = "warden.orchestrator"

// Event is the envelope emitted for every lifecycle transition. Emission is
// fire-and-forget: failures never block orchestration.
type Event struct {
	Topic     string                 `json:"topic"`
	Source    string                 `json:"source,omitempty"`
	TenantID  string                 `json:"tenantId,omitempty"`
	TaskID    string                 `json:"taskId,omitempty"`
	TraceID   string                 `json:"traceId,omitempty"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NewEvent creates an event envelope for the given topic.
func NewEvent(topic string, payload map[string]interface{}) *Event {
	return &Event{
		Topic:     topic,
		Source:    Source,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}
