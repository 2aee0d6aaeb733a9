// Package fs implements the store contract on top of the viant/afs abstract
// file system: one JSON document per task/ticket and one per audit event
// under the configured base URL. The conditional ticket-decision update runs
// under an in-process mutex, which serialises deciders within the process;
// the layout stays portable across local and cloud afs schemes.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/internal/idgen"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

// Service is the filesystem-backed store implementation.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

// New creates a filesystem store rooted at baseURL.
func New(baseURL string) *Service {
	return &Service{baseURL: baseURL, fs: afs.New()}
}

func (s *Service) taskURL(id string) string {
	return url.Join(s.baseURL, "tasks", id+".json")
}

func (s *Service) ticketURL(id string) string {
	return url.Join(s.baseURL, "approvals", id+".json")
}

func (s *Service) auditURL(id string) string {
	return url.Join(s.baseURL, "audit", id+".json")
}

func (s *Service) upload(ctx context.Context, URL string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", URL, err)
	}
	return s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (s *Service) download(ctx context.Context, URL string, v interface{}) error {
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// CreateTask persists a new task in status running; a task with no tenant id
// is a no-op record.
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
		RequestPayload:   input.RequestPayload,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.upload(ctx, s.taskURL(t.ID), t); err != nil {
		return "", err
	}
	return t.ID, nil
}

// SetTaskStatus overwrites status, response and error fields unconditionally.
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
	var t task.Task
	if err := s.download(ctx, s.taskURL(taskID), &t); err != nil {
		return err
	}
	t.Status = status
	if update.ResponsePayload != nil {
		t.ResponsePayload = update.ResponsePayload
	}
	if update.ErrorMessage != "" {
		t.ErrorMessage = update.ErrorMessage
	}
	t.UpdatedAt = clock.Now()
	return s.upload(ctx, s.taskURL(taskID), &t)
}

// GetTask loads a task by id.
func (s *Service) GetTask(ctx context.Context, taskID string) (*task.Task, error) {
	if taskID == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var t task.Task
	if err := s.download(ctx, s.taskURL(taskID), &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks scans the tasks folder and returns filtered records newest-first.
func (s *Service) ListTasks(ctx context.Context, filter *store.Filter) ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []*task.Task
	err := s.scan(ctx, url.Join(s.baseURL, "tasks"), func(data []byte) error {
		var t task.Task
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if matches(filter, t.TenantID, string(t.Status)) {
			candidates = append(candidates, &t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	limit := filter.Normalize()
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// CreateApprovalTicket persists a pending ticket.
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
	if err := s.upload(ctx, s.ticketURL(ticket.ID), ticket); err != nil {
		return "", err
	}
	return ticket.ID, nil
}

// DecideApprovalTicket applies the pending-only conditional update and
// reports whether the ticket actually changed.
func (s *Service) DecideApprovalTicket(ctx context.Context, ticketID string, decision task.TicketStatus, decidedBy, note string) (bool, error) {
	if ticketID == "" {
		return false, store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ticket task.ApprovalTicket
	if err := s.download(ctx, s.ticketURL(ticketID), &ticket); err != nil {
		return false, err
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
	if err := s.upload(ctx, s.ticketURL(ticketID), &ticket); err != nil {
		return false, err
	}
	return true, nil
}

// GetApprovalTicket loads a ticket by id.
func (s *Service) GetApprovalTicket(ctx context.Context, ticketID string) (*task.ApprovalTicket, error) {
	if ticketID == "" {
		return nil, store.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ticket task.ApprovalTicket
	if err := s.download(ctx, s.ticketURL(ticketID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// ListApprovalTickets scans the approvals folder newest-first.
func (s *Service) ListApprovalTickets(ctx context.Context, filter *store.Filter) ([]*task.ApprovalTicket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var candidates []*task.ApprovalTicket
	err := s.scan(ctx, url.Join(s.baseURL, "approvals"), func(data []byte) error {
		var ticket task.ApprovalTicket
		if err := json.Unmarshal(data, &ticket); err != nil {
			return err
		}
		if matches(filter, ticket.TenantID, string(ticket.Status)) {
			candidates = append(candidates, &ticket)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
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
	ticket, err := s.GetApprovalTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	ret := &store.ExecutionContext{
		TicketID:     ticket.ID,
		TicketStatus: ticket.Status,
		TaskID:       ticket.TaskID,
		TenantID:     ticket.TenantID,
		AgentID:      ticket.AgentID,
		ActionID:     ticket.ActionID,
	}
	if t, err := s.GetTask(ctx, ticket.TaskID); err == nil {
		ret.TaskStatus = t.Status
		ret.ActorID = t.ActorID
		ret.TraceID = t.TraceID
		ret.RequestPayload = t.RequestPayload
	}
	return ret, nil
}

// AppendAudit writes the event as its own document; failures are logged and
// swallowed - audit is best-effort observability.
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
	name := fmt.Sprintf("%d-%s", event.Timestamp.UnixNano(), event.ID)
	if err := s.upload(ctx, s.auditURL(name), event); err != nil {
		log.Printf("failed to append audit event %v: %v", event.EventTopic, err)
	}
}

// LinkBackupRunToTask records the external side-effect id on the task.
func (s *Service) LinkBackupRunToTask(ctx context.Context, taskID, backupRunID string) error {
	if taskID == "" || backupRunID == "" {
		return store.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var t task.Task
	if err := s.download(ctx, s.taskURL(taskID), &t); err != nil {
		return err
	}
	t.BackupRunID = backupRunID
	t.UpdatedAt = clock.Now()
	return s.upload(ctx, s.taskURL(taskID), &t)
}

func (s *Service) scan(ctx context.Context, folderURL string, visit func(data []byte) error) error {
	exists, err := s.fs.Exists(ctx, folderURL)
	if err != nil || !exists {
		return nil
	}
	objects, err := s.fs.List(ctx, folderURL)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", folderURL, err)
	}
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(path.Base(object.Name()), ".json") {
			continue
		}
		data, err := s.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			return err
		}
		if err = visit(data); err != nil {
			return err
		}
	}
	return nil
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
