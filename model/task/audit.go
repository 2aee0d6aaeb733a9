package task

import "time"

// AuditEvent is an append-only observability record. Events are never updated
// or deleted; write failures are logged and swallowed.
type AuditEvent struct {
	ID          string                 `json:"id"`
	TenantID    string                 `json:"tenantId,omitempty"`
	TaskID      string                 `json:"taskId,omitempty"`
	TraceID     string                 `json:"traceId,omitempty"`
	EventTopic  string                 `json:"eventTopic"`
	EventSource string                 `json:"eventSource,omitempty"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}
