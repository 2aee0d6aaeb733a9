// Package nop provides the degraded store selected at startup when no
// persistence backend is available. Every write is a no-op returning the
// "no id" sentinel, so the orchestration logic still completes - the system
// prefers orchestrating without an audit trail over failing the user-facing
// operation.
package nop

import (
	"context"

	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

// Service is the no-op store implementation.
type Service struct{}

// New creates a no-op store.
func New() *Service {
	return &Service{}
}

func (s *Service) CreateTask(ctx context.Context, input *store.TaskInput) (string, error) {
	return "", nil
}

func (s *Service) SetTaskStatus(ctx context.Context, taskID string, status task.Status, options ...store.StatusOption) error {
	return nil
}

func (s *Service) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	return nil, store.ErrNotFound
}

func (s *Service) ListTasks(ctx context.Context, filter *store.Filter) ([]*task.Task, error) {
	return nil, nil
}

func (s *Service) CreateApprovalTicket(ctx context.Context, input *store.TicketInput) (string, error) {
	return "", nil
}

func (s *Service) DecideApprovalTicket(ctx context.Context, ticketID string, decision task.TicketStatus, decidedBy, note string) (bool, error) {
	return false, store.ErrNotFound
}

func (s *Service) GetApprovalTicket(ctx context.Context, ticketID string) (*task.ApprovalTicket, error) {
	return nil, store.ErrNotFound
}

func (s *Service) ListApprovalTickets(ctx context.Context, filter *store.Filter) ([]*task.ApprovalTicket, error) {
	return nil, nil
}

func (s *Service) GetApprovalExecutionContext(ctx context.Context, ticketID string) (*store.ExecutionContext, error) {
	return nil, store.ErrNotFound
}

func (s *Service) AppendAudit(ctx context.Context, event *task.AuditEvent) {}

func (s *Service) LinkBackupRunToTask(ctx context.Context, taskID, backupRunID string) error {
	return nil
}

var _ store.Service = (*Service)(nil)
