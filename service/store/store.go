package store

import (
	"context"

	"github.com/viant/warden/model/task"
)

// Default and maximum page sizes for the read accessors.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// TaskInput captures everything persisted at task creation. The request
// payload is stored verbatim and treated as immutable afterwards so that a
// resumed execution replays exactly what was approved.
type TaskInput struct {
	TenantID       string
	TraceID        string
	ActorID        string
	AgentID        string
	ActionID       string
	InputPrompt    string
	RequestPayload map[string]interface{}
}

// TicketInput captures everything persisted at approval-ticket creation.
type TicketInput struct {
	TaskID    string
	TenantID  string
	AgentID   string
	ActionID  string
	RiskLevel string
	Reason    string
}

// ExecutionContext joins ticket and task state in a single read so the
// decision handler can make idempotency judgments without multiple round
// trips.
type ExecutionContext struct {
	TicketID       string
	TicketStatus   task.TicketStatus
	TaskID         string
	TaskStatus     task.Status
	TenantID       string
	ActorID        string
	TraceID        string
	AgentID        string
	ActionID       string
	RequestPayload map[string]interface{}
}

// Filter narrows the list accessors. A zero Limit means DefaultLimit; values
// above MaxLimit are capped. Results are ordered newest-first.
type Filter struct {
	TenantID string
	Status   string
	Limit    int
}

// Normalize returns the effective page size for the filter.
func (f *Filter) Normalize() int {
	if f == nil || f.Limit <= 0 {
		return DefaultLimit
	}
	if f.Limit > MaxLimit {
		return MaxLimit
	}
	return f.Limit
}

// StatusOption customises SetTaskStatus.
type StatusOption func(*StatusUpdate)

// StatusUpdate carries the optional fields of a status transition.
type StatusUpdate struct {
	ResponsePayload map[string]interface{}
	ErrorMessage    string
}

// WithResponse records the handler's response payload with the transition.
func WithResponse(payload map[string]interface{}) StatusOption {
	return func(u *StatusUpdate) { u.ResponsePayload = payload }
}

// WithError records an error message with the transition.
func WithError(message string) StatusOption {
	return func(u *StatusUpdate) { u.ErrorMessage = message }
}

// Service is the persistence abstraction for task records, approval tickets
// and audit events. All operations degrade gracefully: create operations
// return an empty id ("no id" sentinel) instead of failing the caller when
// persistence is unavailable, and AppendAudit never raises.
//
// DecideApprovalTicket is the single serialization point of the system: it
// must perform a conditional update restricted to tickets currently pending
// and report whether a row actually changed. Two concurrent decisions on the
// same ticket will have exactly one succeed.
type Service interface {
	CreateTask(ctx context.Context, input *TaskInput) (string, error)
	SetTaskStatus(ctx context.Context, taskID string, status task.Status, options ...StatusOption) error
	GetTask(ctx context.Context, taskID string) (*task.Task, error)
	ListTasks(ctx context.Context, filter *Filter) ([]*task.Task, error)

	CreateApprovalTicket(ctx context.Context, input *TicketInput) (string, error)
	DecideApprovalTicket(ctx context.Context, ticketID string, decision task.TicketStatus, decidedBy, note string) (bool, error)
	GetApprovalTicket(ctx context.Context, ticketID string) (*task.ApprovalTicket, error)
	ListApprovalTickets(ctx context.Context, filter *Filter) ([]*task.ApprovalTicket, error)
	GetApprovalExecutionContext(ctx context.Context, ticketID string) (*ExecutionContext, error)

	AppendAudit(ctx context.Context, event *task.AuditEvent)
	LinkBackupRunToTask(ctx context.Context, taskID, backupRunID string) error
}
