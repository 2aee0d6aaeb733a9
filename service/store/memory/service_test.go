package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/service/store"
)

func TestService_CreateTask(t *testing.T) {
	ctx := context.Background()
	service := New()

	t.Run("no tenant yields no-op record", func(t *testing.T) {
		id, err := service.CreateTask(ctx, &store.TaskInput{AgentID: "cicd", ActionID: "list-pipelines"})
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("persists in running status", func(t *testing.T) {
		id, err := service.CreateTask(ctx, &store.TaskInput{
			TenantID:       "acme",
			AgentID:        "cicd",
			ActionID:       "sync-application",
			RequestPayload: map[string]interface{}{"application": "billing"},
		})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		snapshot, err := service.GetTask(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, task.StatusRunning, snapshot.Status)
		assert.Equal(t, "billing", snapshot.RequestPayload["application"])
	})
}

func TestService_SetTaskStatus(t *testing.T) {
	ctx := context.Background()
	service := New()
	id, err := service.CreateTask(ctx, &store.TaskInput{TenantID: "acme", AgentID: "a", ActionID: "b"})
	require.NoError(t, err)

	err = service.SetTaskStatus(ctx, id, task.StatusSucceeded,
		store.WithResponse(map[string]interface{}{"ok": true}))
	require.NoError(t, err)

	snapshot, err := service.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, task.StatusSucceeded, snapshot.Status)
	assert.Equal(t, true, snapshot.ResponsePayload["ok"])

	assert.ErrorIs(t, service.SetTaskStatus(ctx, "missing", task.StatusFailed), store.ErrNotFound)
	assert.ErrorIs(t, service.SetTaskStatus(ctx, "", task.StatusFailed), store.ErrInvalidID)
}

func TestService_ListTasks(t *testing.T) {
	ctx := context.Background()
	service := New()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	clock.NowFunc = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	defer func() { clock.NowFunc = time.Now }()

	var newest string
	for i := 0; i < 25; i++ {
		tenant := "acme"
		if i%5 == 0 {
			tenant = "globex"
		}
		id, err := service.CreateTask(ctx, &store.TaskInput{TenantID: tenant, AgentID: "a", ActionID: fmt.Sprintf("action-%d", i)})
		require.NoError(t, err)
		newest = id
	}

	t.Run("default limit", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, nil)
		require.NoError(t, err)
		assert.Len(t, tasks, store.DefaultLimit)
	})

	t.Run("newest first", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, &store.Filter{Limit: 1})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, newest, tasks[0].ID)
	})

	t.Run("tenant filter", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, &store.Filter{TenantID: "globex", Limit: 50})
		require.NoError(t, err)
		assert.Len(t, tasks, 5)
	})

	t.Run("limit capped", func(t *testing.T) {
		filter := &store.Filter{Limit: 500}
		assert.Equal(t, store.MaxLimit, filter.Normalize())
	})

	t.Run("status filter", func(t *testing.T) {
		tasks, err := service.ListTasks(ctx, &store.Filter{Status: string(task.StatusRunning), Limit: 100})
		require.NoError(t, err)
		assert.Len(t, tasks, 25)
	})
}

func TestService_PayloadIsolation(t *testing.T) {
	ctx := context.Background()
	service := New()
	payload := map[string]interface{}{
		"application": "billing",
		"nested":      map[string]interface{}{"revision": "v1"},
	}
	taskID, err := service.CreateTask(ctx, &store.TaskInput{
		TenantID: "acme", AgentID: "cicd", ActionID: "sync-application", RequestPayload: payload,
	})
	require.NoError(t, err)
	ticketID, err := service.CreateApprovalTicket(ctx, &store.TicketInput{
		TaskID: taskID, TenantID: "acme", AgentID: "cicd", ActionID: "sync-application", RiskLevel: "high",
	})
	require.NoError(t, err)

	// Mutating the caller's map after creation leaves the record untouched.
	payload["application"] = "ledger"
	payload["nested"].(map[string]interface{})["revision"] = "v2"

	snapshot, err := service.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "billing", snapshot.RequestPayload["application"])
	assert.Equal(t, "v1", snapshot.RequestPayload["nested"].(map[string]interface{})["revision"])

	// Mutating a returned snapshot never leaks back into the store.
	snapshot.RequestPayload["application"] = "evil"
	execCtx, err := service.GetApprovalExecutionContext(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, "billing", execCtx.RequestPayload["application"])
	execCtx.RequestPayload["application"] = "worse"

	again, err := service.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "billing", again.RequestPayload["application"])
}

func TestService_DecideApprovalTicket(t *testing.T) {
	ctx := context.Background()
	service := New()
	taskID, err := service.CreateTask(ctx, &store.TaskInput{TenantID: "acme", AgentID: "cicd", ActionID: "sync-application"})
	require.NoError(t, err)
	ticketID, err := service.CreateApprovalTicket(ctx, &store.TicketInput{
		TaskID: taskID, TenantID: "acme", AgentID: "cicd", ActionID: "sync-application", RiskLevel: "high",
	})
	require.NoError(t, err)

	t.Run("first decision changes the row", func(t *testing.T) {
		changed, err := service.DecideApprovalTicket(ctx, ticketID, task.TicketApproved, "bob", "ok")
		require.NoError(t, err)
		assert.True(t, changed)

		ticket, err := service.GetApprovalTicket(ctx, ticketID)
		require.NoError(t, err)
		assert.Equal(t, task.TicketApproved, ticket.Status)
		assert.Equal(t, "bob", ticket.DecidedBy)
		assert.NotNil(t, ticket.DecidedAt)
	})

	t.Run("second decision is a no-op", func(t *testing.T) {
		changed, err := service.DecideApprovalTicket(ctx, ticketID, task.TicketRejected, "eve", "no")
		require.NoError(t, err)
		assert.False(t, changed)

		ticket, err := service.GetApprovalTicket(ctx, ticketID)
		require.NoError(t, err)
		assert.Equal(t, task.TicketApproved, ticket.Status)
		assert.Equal(t, "bob", ticket.DecidedBy)
	})

	t.Run("unknown ticket", func(t *testing.T) {
		_, err := service.DecideApprovalTicket(ctx, "missing", task.TicketApproved, "bob", "")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestService_DecideApprovalTicket_Concurrent(t *testing.T) {
	ctx := context.Background()
	service := New()
	taskID, err := service.CreateTask(ctx, &store.TaskInput{TenantID: "acme", AgentID: "a", ActionID: "b"})
	require.NoError(t, err)
	ticketID, err := service.CreateApprovalTicket(ctx, &store.TicketInput{TaskID: taskID, TenantID: "acme"})
	require.NoError(t, err)

	const deciders = 16
	var wg sync.WaitGroup
	results := make([]bool, deciders)
	for i := 0; i < deciders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			decision := task.TicketApproved
			if i%2 == 1 {
				decision = task.TicketRejected
			}
			changed, err := service.DecideApprovalTicket(ctx, ticketID, decision, fmt.Sprintf("decider-%d", i), "")
			assert.NoError(t, err)
			results[i] = changed
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, changed := range results {
		if changed {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestService_GetApprovalExecutionContext(t *testing.T) {
	ctx := context.Background()
	service := New()
	payload := map[string]interface{}{"application": "billing", "revision": "v1.4.2"}
	taskID, err := service.CreateTask(ctx, &store.TaskInput{
		TenantID: "acme", TraceID: "trace-1", ActorID: "alice",
		AgentID: "cicd", ActionID: "sync-application", RequestPayload: payload,
	})
	require.NoError(t, err)
	require.NoError(t, service.SetTaskStatus(ctx, taskID, task.StatusApprovalRequired))
	ticketID, err := service.CreateApprovalTicket(ctx, &store.TicketInput{
		TaskID: taskID, TenantID: "acme", AgentID: "cicd", ActionID: "sync-application", RiskLevel: "high",
	})
	require.NoError(t, err)

	execCtx, err := service.GetApprovalExecutionContext(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, task.TicketPending, execCtx.TicketStatus)
	assert.Equal(t, task.StatusApprovalRequired, execCtx.TaskStatus)
	assert.Equal(t, "alice", execCtx.ActorID)
	assert.Equal(t, "trace-1", execCtx.TraceID)
	assert.Equal(t, payload, execCtx.RequestPayload)

	_, err = service.GetApprovalExecutionContext(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_AuditAndLinking(t *testing.T) {
	ctx := context.Background()
	service := New()
	taskID, err := service.CreateTask(ctx, &store.TaskInput{TenantID: "acme", AgentID: "backup", ActionID: "create-backup"})
	require.NoError(t, err)

	service.AppendAudit(ctx, &task.AuditEvent{TenantID: "acme", TaskID: taskID, EventTopic: "task.started"})
	service.AppendAudit(ctx, nil)
	events := service.AuditEvents(ctx)
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())

	require.NoError(t, service.LinkBackupRunToTask(ctx, taskID, "run-42"))
	snapshot, err := service.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, "run-42", snapshot.BackupRunID)
}
