package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/internal/idgen"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

// Service is the in-memory store implementation. A single mutex guards all
// maps; the pending-only guard in DecideApprovalTicket runs under that lock,
// which makes it the compare-and-swap equivalent of a conditional
// "update ... where status = 'pending'".
type Service struct {
	mu      sync.RWMutex
	tasks   map[string]*task.Task
	tickets map[string]*task.ApprovalTicket
	audit   []*task.AuditEvent
}

// New creates an empty in-memory store.
func New() *Service {
	return &Service{
		tasks:   make(map[string]*task.Task),
		tickets: make(map[string]*task.ApprovalTicket),
	}
}

// CreateTask persists a new task in status running. A task with no tenant id
// is a no-op record: the empty id sentinel is returned and nothing is stored.
func (s *Service) CreateTask(ctx context.Context, input *store.TaskInput) (string, error) {
	if input == nil {
		return "", store.ErrNilInput
	}
	if input.TenantID == "" {
		return "", nil
	}
	now := clock.Now()
	t := &task.Task{
		ID:               idgen.New(),
		TenantID:         input.TenantID,
		TraceID:          input.TraceID,
		ActorID:          input.ActorID,
		Status:           task.StatusRunning,
		SelectedAgentID:  input.AgentID,
		SelectedActionID: input.ActionID,
		InputPrompt:      input.InputPrompt,
		// Detached from the caller's map: the captured payload must stay
		// exactly what was submitted, even if the caller mutates its map
		// afterwards.
		RequestPayload: cloneMap(input.RequestPayload),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	return t.ID, nil
}

// SetTaskStatus unconditionally overwrites status, response and error fields.
// The workflow, as the single status writer, is responsible for calling this
// with valid forward transitions only.
func (s *Service) SetTaskStatus(ctx context.Context, taskID string, status task.Status, options ...store.StatusOption) error {
	if taskID == "" {
		return store.ErrInvalidID
	}
	update := &store.StatusUpdate{}
	for _, option := range options {
		option(update)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	t.Status = status
	if update.ResponsePayload != nil {
		t.ResponsePayload = cloneMap(update.ResponsePayload)
	}
	if update.ErrorMessage != "" {
		t.ErrorMessage = update.ErrorMessage
	}
	t.UpdatedAt = clock.Now()
	return nil
}

// GetTask returns a copy of the task or store.ErrNotFound.
func (s *Service) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return copyTask(t), nil
}

// ListTasks returns filtered tasks ordered newest-first.
func (s *Service) ListTasks(ctx context.Context, filter *store.Filter) ([]*task.Task, error) {
	s.mu.RLock()
	candidates := make([]*task.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !matches(filter, t.TenantID, string(t.Status)) {
			continue
		}
		candidates = append(candidates, copyTask(t))
	}
	s.mu.RUnlock()
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	limit := filter.Normalize()
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// CreateApprovalTicket persists a pending ticket and returns its id.
func (s *Service) CreateApprovalTicket(ctx context.Context, input *store.TicketInput) (string, error) {
	if input == nil {
		return "", store.ErrNilInput
	}
	now := clock.Now()
	ticket := &task.ApprovalTicket{
		ID:        idgen.New(),
		TaskID:    input.TaskID,
		TenantID:  input.TenantID,
		AgentID:   input.AgentID,
		ActionID:  input.ActionID,
		RiskLevel: input.RiskLevel,
		Reason:    input.Reason,
		Status:    task.TicketPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.ID] = ticket
	return ticket.ID, nil
}

// DecideApprovalTicket performs the conditional update restricted to pending
// tickets and reports whether a row actually changed. This is the sole
// mechanism preventing a double-decision race.
func (s *Service) DecideApprovalTicket(ctx context.Context, ticketID string, decision task.TicketStatus, decidedBy, note string) (bool, error) {
	if ticketID == "" {
		return false, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return false, store.ErrNotFound
	}
	if ticket.Status != task.TicketPending {
		return false, nil
	}
	now := clock.Now()
	ticket.Status = decision
	ticket.DecidedBy = decidedBy
	ticket.DecisionNote = note
	ticket.DecidedAt = &now
	ticket.UpdatedAt = now
	return true, nil
}

// GetApprovalTicket returns a copy of the ticket or store.ErrNotFound.
func (s *Service) GetApprovalTicket(ctx context.Context, ticketID string) (*task.ApprovalTicket, error) {
	if ticketID == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, store.ErrNotFound
	}
	ret := *ticket
	return &ret, nil
}

// ListApprovalTickets returns filtered tickets ordered newest-first.
func (s *Service) ListApprovalTickets(ctx context.Context, filter *store.Filter) ([]*task.ApprovalTicket, error) {
	s.mu.RLock()
	candidates := make([]*task.ApprovalTicket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		if !matches(filter, ticket.TenantID, string(ticket.Status)) {
			continue
		}
		item := *ticket
		candidates = append(candidates, &item)
	}
	s.mu.RUnlock()
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	limit := filter.Normalize()
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// GetApprovalExecutionContext joins ticket and task state in one read.
func (s *Service) GetApprovalExecutionContext(ctx context.Context, ticketID string) (*store.ExecutionContext, error) {
	if ticketID == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ticket, ok := s.tickets[ticketID]
	if !ok {
		return nil, store.ErrNotFound
	}
	ret := &store.ExecutionContext{
		TicketID:     ticket.ID,
		TicketStatus: ticket.Status,
		TaskID:       ticket.TaskID,
		TenantID:     ticket.TenantID,
		AgentID:      ticket.AgentID,
		ActionID:     ticket.ActionID,
	}
	if t, ok := s.tasks[ticket.TaskID]; ok {
		ret.TaskStatus = t.Status
		ret.ActorID = t.ActorID
		ret.TraceID = t.TraceID
		ret.RequestPayload = cloneMap(t.RequestPayload)
	}
	return ret, nil
}

// AppendAudit records the event; it never raises to the caller.
func (s *Service) AppendAudit(ctx context.Context, event *task.AuditEvent) {
	if event == nil {
		return
	}
	if event.ID == "" {
		event.ID = idgen.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = clock.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, event)
}

// AuditEvents returns a snapshot of the audit trail, oldest first.
func (s *Service) AuditEvents(ctx context.Context) []*task.AuditEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]*task.AuditEvent, len(s.audit))
	copy(ret, s.audit)
	return ret
}

// LinkBackupRunToTask cross-references an external side-effect record back to
// the originating task. The linkage is optional and never required for
// correctness.
func (s *Service) LinkBackupRunToTask(ctx context.Context, taskID, backupRunID string) error {
	if taskID == "" || backupRunID == "" {
		return store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[taskID]
	if !ok {
		return store.ErrNotFound
	}
	t.BackupRunID = backupRunID
	t.UpdatedAt = clock.Now()
	return nil
}

// copyTask returns a snapshot whose payload maps do not alias the stored
// record, so neither the caller nor an untyped handler can mutate what was
// captured.
func copyTask(t *task.Task) *task.Task {
	ret := *t
	ret.RequestPayload = cloneMap(t.RequestPayload)
	ret.ResponsePayload = cloneMap(t.ResponsePayload)
	return &ret
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		ret[k] = cloneValue(v)
	}
	return ret
}

func cloneValue(v interface{}) interface{} {
	switch actual := v.(type) {
	case map[string]interface{}:
		return cloneMap(actual)
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = cloneValue(item)
		}
		return ret
	}
	return v
}

func matches(filter *store.Filter, tenantID, status string) bool {
	if filter == nil {
		return true
	}
	if filter.TenantID != "" && filter.TenantID != tenantID {
		return false
	}
	if filter.Status != "" && filter.Status != status {
		return false
	}
	return true
}

var _ store.Service = (*Service)(nil)
