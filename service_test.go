package warden

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/model/types"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/store"
	"github.com/viant/warden/service/store/memory"
)

func TestService_SyncApplicationScenario(t *testing.T) {
	storeService := memory.New()
	service, err := New(WithStore(storeService))
	require.NoError(t, err)
	defer service.Close()
	ctx := context.Background()

	requestContext := &orchestrator.Context{TenantID: "acme", UserRef: "alice"}

	// High-risk sync-application is gated.
	gated, err := service.Execute(ctx, &orchestrator.ExecuteRequest{
		AgentID:  "cicd",
		ActionID: "sync-application",
		Input:    map[string]interface{}{"application": "billing", "revision": "v1.4.2"},
		Context:  requestContext,
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusApprovalRequired, gated.Status)
	require.NotNil(t, gated.Approval)

	snapshot, err := storeService.GetTask(ctx, gated.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusApprovalRequired, snapshot.Status)

	// Approval resumes execution exactly once.
	decided, err := service.DecideApproval(ctx, &orchestrator.DecisionRequest{
		TicketID:  gated.Approval.TicketID,
		Decision:  "approved",
		DecidedBy: "bob",
	})
	require.NoError(t, err)
	assert.True(t, decided.ResumedExecution)
	require.NotNil(t, decided.Execution)
	assert.Equal(t, orchestrator.StatusSuccess, decided.Execution.Status)
	assert.Equal(t, "v1.4.2", decided.Execution.Output["revision"])
	assert.Equal(t, task.StatusSucceeded, decided.Task.Status)

	// Repeating the decision is an idempotent no-op.
	repeated, err := service.DecideApproval(ctx, &orchestrator.DecisionRequest{
		TicketID:  gated.Approval.TicketID,
		Decision:  "approved",
		DecidedBy: "bob",
	})
	require.NoError(t, err)
	assert.True(t, repeated.Idempotent)
	assert.False(t, repeated.ResumedExecution)
}

func TestService_ListPipelinesDirect(t *testing.T) {
	storeService := memory.New()
	service, err := New(WithStore(storeService))
	require.NoError(t, err)
	defer service.Close()
	ctx := context.Background()

	result, err := service.Execute(ctx, &orchestrator.ExecuteRequest{
		AgentID:  "cicd",
		ActionID: "list-pipelines",
		Context:  &orchestrator.Context{TenantID: "acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)

	tickets, err := storeService.ListApprovalTickets(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tickets)
}

func TestService_BackupLinking(t *testing.T) {
	storeService := memory.New()
	service, err := New(WithStore(storeService))
	require.NoError(t, err)
	defer service.Close()
	ctx := context.Background()

	gated, err := service.Execute(ctx, &orchestrator.ExecuteRequest{
		AgentID:  "backup",
		ActionID: "create-backup",
		Input:    map[string]interface{}{"target": "db/orders"},
		Context:  &orchestrator.Context{TenantID: "acme"},
	})
	require.NoError(t, err)
	require.Equal(t, orchestrator.StatusApprovalRequired, gated.Status)

	decided, err := service.DecideApproval(ctx, &orchestrator.DecisionRequest{
		TicketID:  gated.Approval.TicketID,
		Decision:  "approved",
		DecidedBy: "bob",
	})
	require.NoError(t, err)
	require.NotNil(t, decided.Execution)
	runID, _ := decided.Execution.Output["backupRunId"].(string)
	require.NotEmpty(t, runID)

	snapshot, err := storeService.GetTask(ctx, gated.TaskID)
	require.NoError(t, err)
	assert.Equal(t, runID, snapshot.BackupRunID)
}

func TestService_AuditTrail(t *testing.T) {
	storeService := memory.New()
	service, err := New(WithStore(storeService))
	require.NoError(t, err)
	defer service.Close()
	ctx := context.Background()

	_, err = service.Execute(ctx, &orchestrator.ExecuteRequest{
		AgentID:  "cicd",
		ActionID: "list-pipelines",
		Context:  &orchestrator.Context{TenantID: "acme"},
	})
	require.NoError(t, err)

	// The audit sink drains the event queue asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	var topics []string
	for time.Now().Before(deadline) {
		topics = topics[:0]
		for _, audited := range storeService.AuditEvents(ctx) {
			topics = append(topics, audited.EventTopic)
		}
		if len(topics) >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	assert.Contains(t, topics, "task.started")
	assert.Contains(t, topics, "task.completed")
}

type trackerAgent struct {
	closed bool
}

func (a *trackerAgent) Definition() *agent.Definition {
	return &agent.Definition{
		ID:      "tracker",
		Actions: []agent.Action{{ID: "noop", RiskLevel: agent.RiskLow}},
	}
}

func (a *trackerAgent) Method(actionID string) (types.Executable, error) {
	if actionID != "noop" {
		return nil, types.NewActionNotFoundError(actionID)
	}
	return func(ctx context.Context, in, out interface{}) error { return nil }, nil
}

func (a *trackerAgent) Close(ctx context.Context) error {
	a.closed = true
	return nil
}

func TestService_CloseReleasesAgents(t *testing.T) {
	tracker := &trackerAgent{}
	service, err := New(WithAgents(tracker))
	require.NoError(t, err)

	service.Close()
	assert.True(t, tracker.closed)
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		description string
		config      *Config
		valid       bool
	}{
		{"default config", DefaultConfig(), true},
		{"fs without base URL", &Config{Store: StoreConfig{Vendor: StoreVendorFs}}, false},
		{"fs with base URL", &Config{Store: StoreConfig{Vendor: StoreVendorFs, BaseURL: "file:///tmp/warden"}}, true},
		{"unknown vendor", &Config{Store: StoreConfig{Vendor: "postgres"}}, false},
		{"nop vendor", &Config{Store: StoreConfig{Vendor: StoreVendorNop}}, true},
	}
	for _, testCase := range testCases {
		err := testCase.config.Validate()
		if testCase.valid {
			assert.NoError(t, err, testCase.description)
		} else {
			assert.Error(t, err, testCase.description)
		}
	}
}

func TestNewFromConfig_NopStore(t *testing.T) {
	service, err := NewFromConfig(&Config{Store: StoreConfig{Vendor: StoreVendorNop}})
	require.NoError(t, err)
	defer service.Close()

	// The nop store keeps orchestration alive without persistence.
	result, err := service.Execute(context.Background(), &orchestrator.ExecuteRequest{
		AgentID:  "cicd",
		ActionID: "list-pipelines",
		Context:  &orchestrator.Context{TenantID: "acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusSuccess, result.Status)
	assert.Empty(t, result.TaskID)

	_, err = service.Store().GetTask(context.Background(), "anything")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
