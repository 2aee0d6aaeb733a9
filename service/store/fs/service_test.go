package fs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New("mem://localhost/warden-" + t.Name())
}

func TestService_TaskRoundTrip(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	id, err := service.CreateTask(ctx, &store.TaskInput{
		TenantID:       "acme",
		AgentID:        "cicd",
		ActionID:       "sync-application",
		RequestPayload: map[string]interface{}{"application": "billing"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, service.SetTaskStatus(ctx, id, task.StatusSucceeded,
		store.WithResponse(map[string]interface{}{"ok": true})))

	snapshot, err := service.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task.StatusSucceeded, snapshot.Status)
	assert.Equal(t, "billing", snapshot.RequestPayload["application"])
	assert.Equal(t, true, snapshot.ResponsePayload["ok"])

	tasks, err := service.ListTasks(ctx, &store.Filter{TenantID: "acme"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	_, err = service.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_NoTenantNoRecord(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	id, err := service.CreateTask(ctx, &store.TaskInput{AgentID: "a", ActionID: "b"})
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestService_TicketDecision(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)

	taskID, err := service.CreateTask(ctx, &store.TaskInput{
		TenantID: "acme", ActorID: "alice", AgentID: "cicd", ActionID: "sync-application",
		RequestPayload: map[string]interface{}{"application": "billing"},
	})
	require.NoError(t, err)
	ticketID, err := service.CreateApprovalTicket(ctx, &store.TicketInput{
		TaskID: taskID, TenantID: "acme", AgentID: "cicd", ActionID: "sync-application", RiskLevel: "high",
	})
	require.NoError(t, err)

	execCtx, err := service.GetApprovalExecutionContext(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, task.TicketPending, execCtx.TicketStatus)
	assert.Equal(t, "alice", execCtx.ActorID)
	assert.Equal(t, "billing", execCtx.RequestPayload["application"])

	changed, err := service.DecideApprovalTicket(ctx, ticketID, task.TicketApproved, "bob", "ok")
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = service.DecideApprovalTicket(ctx, ticketID, task.TicketRejected, "eve", "")
	require.NoError(t, err)
	assert.False(t, changed)

	ticket, err := service.GetApprovalTicket(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, task.TicketApproved, ticket.Status)
	assert.Equal(t, "bob", ticket.DecidedBy)

	tickets, err := service.ListApprovalTickets(ctx, &store.Filter{Status: string(task.TicketApproved)})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestService_LinkBackupRun(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	taskID, err := service.CreateTask(ctx, &store.TaskInput{TenantID: "acme", AgentID: "backup", ActionID: "create-backup"})
	require.NoError(t, err)

	require.NoError(t, service.LinkBackupRunToTask(ctx, taskID, "run-42"))
	snapshot, err := service.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "run-42", snapshot.BackupRunID)
}

func TestService_AppendAudit(t *testing.T) {
	ctx := context.Background()
	service := newTestService(t)
	// Never raises, even without a reachable backend.
	service.AppendAudit(ctx, &task.AuditEvent{TenantID: "acme", EventTopic: "task.started"})
	service.AppendAudit(ctx, nil)
}
