package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/toolbox"
	"github.com/viant/warden/extension"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/task"
	"github.com/viant/warden/policy"
	"github.com/viant/warden/progress"
	"github.com/viant/warden/service/event"
	"github.com/viant/warden/service/store"
	"github.com/viant/warden/tracing"
)

// Lookup failures surfaced to the transport layer as structured 404-style
// results.
var (
	ErrActionNotFound = extension.ErrActionNotFound
	ErrAgentNotFound  = extension.ErrAgentNotFound

	// ErrTicketNotFound is returned by DecideApproval for unknown ticket ids.
	ErrTicketNotFound = errors.New("orchestrator: approval ticket not found")

	// ErrInvalidDecision is returned for decisions other than
	// approved/rejected.
	ErrInvalidDecision = errors.New("orchestrator: invalid decision")
)

// Service drives the plan/verify/act workflow: it creates a task per
// execution attempt, gates high-risk actions behind approval tickets and
// resumes or terminates tasks when decisions arrive. It is the only writer
// of task status and response fields.
type Service struct {
	registry *extension.Registry
	store    store.Service
	events   *event.Service
	metrics  *Metrics
}

// Option customises the orchestrator.
type Option func(*Service)

// WithMetrics overrides the shared prometheus collectors (tests supply a
// fresh registry to avoid duplicate registration).
func WithMetrics(metrics *Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// New creates an orchestrator over the supplied registry, store and event
// service.
func New(registry *extension.Registry, storeService store.Service, events *event.Service, options ...Option) *Service {
	ret := &Service{
		registry: registry,
		store:    storeService,
		events:   events,
	}
	for _, option := range options {
		option(ret)
	}
	if ret.metrics == nil {
		ret.metrics = defaultMetrics()
	}
	return ret
}

// Execute runs the three-phase workflow for a single attempt.
//
// Plan: emit a started event and create the task record capturing the exact
// request payload. Verify: consult the action's risk level and divert
// high-risk attempts without an approval marker into a pending ticket. Act:
// invoke the handler and finalize the task.
//
// Unknown agent/action ids are returned as ErrAgentNotFound/ErrActionNotFound;
// handler failures are captured in the result, never returned as an error.
func (s *Service) Execute(ctx context.Context, request *ExecuteRequest) (*ExecuteResult, error) {
	if request.Context == nil {
		request.Context = &Context{}
	}
	ctx, span := tracing.StartSpan(ctx, "orchestrator.execute", map[string]string{
		"agent.id":  request.AgentID,
		"action.id": request.ActionID,
	})

	// Plan
	s.publish(ctx, event.TopicTaskStarted, "", request, map[string]interface{}{
		"agentId":  request.AgentID,
		"actionId": request.ActionID,
	})
	progress.UpdateCtx(ctx, progress.Delta{Attempts: 1})
	taskID := s.createTask(ctx, request)

	action, err := s.registry.ActionDefinition(request.AgentID, request.ActionID)
	if err != nil {
		// Without this transition the task would linger in running forever.
		s.setStatus(ctx, taskID, task.StatusFailed,
			store.WithError(fmt.Sprintf("unknown action %v.%v", request.AgentID, request.ActionID)))
		s.metrics.IncExecution(request.AgentID, request.ActionID, "not_found")
		tracing.EndSpan(span, err)
		return nil, err
	}

	// Verify (gate)
	qualified := request.AgentID + "." + request.ActionID
	requestPolicy := policy.FromContext(ctx)
	if requestPolicy.IsDenied(qualified) {
		message := fmt.Sprintf("execution of %v blocked by policy", qualified)
		s.setStatus(ctx, taskID, task.StatusFailed, store.WithError(message))
		s.publish(ctx, event.TopicTaskFailed, taskID, request, map[string]interface{}{
			"error": message,
		})
		s.metrics.IncExecution(request.AgentID, request.ActionID, "denied")
		progress.UpdateCtx(ctx, progress.Delta{Rejected: 1})
		tracing.EndSpan(span, nil)
		return &ExecuteResult{Status: StatusError, TaskID: taskID, Error: message}, nil
	}
	needsApproval := action.RiskLevel.RequiresApproval() || requestPolicy.RequiresApproval(qualified)
	if needsApproval && !request.Context.approved() {
		result := s.requireApproval(ctx, taskID, action.RiskLevel, request)
		s.metrics.IncExecution(request.AgentID, request.ActionID, string(StatusApprovalRequired))
		tracing.EndSpan(span, nil)
		return result, nil
	}

	// Act
	result := s.act(ctx, taskID, request)
	tracing.EndSpan(span, nil)
	return result, nil
}

// DecideApproval records a human decision on a ticket and, when approved,
// resumes execution replaying the originally captured payload.
func (s *Service) DecideApproval(ctx context.Context, request *DecisionRequest) (*DecisionResult, error) {
	decision, err := ticketDecision(request.Decision)
	if err != nil {
		return nil, err
	}
	ctx, span := tracing.StartSpan(ctx, "orchestrator.decide", map[string]string{
		"ticket.id": request.TicketID,
	})
	defer func() { tracing.EndSpan(span, nil) }()

	execCtx, err := s.store.GetApprovalExecutionContext(ctx, request.TicketID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}

	// Duplicate approval clicks and retried webhook deliveries land here:
	// the ticket or its task is already resolved, so report idempotent with
	// the current snapshot and never re-execute.
	if execCtx.TicketStatus != task.TicketPending || execCtx.TaskStatus.IsTerminal() {
		s.metrics.IncDecision(request.Decision, true)
		return s.idempotent(ctx, request.Decision, execCtx.TaskID), nil
	}

	changed, err := s.store.DecideApprovalTicket(ctx, request.TicketID, decision, request.DecidedBy, request.Note)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost the race to a concurrent decider.
		s.metrics.IncDecision(request.Decision, true)
		return s.idempotent(ctx, request.Decision, execCtx.TaskID), nil
	}
	s.metrics.IncDecision(request.Decision, false)

	replay := &ExecuteRequest{
		AgentID:  execCtx.AgentID,
		ActionID: execCtx.ActionID,
		// Replay the payload captured at task creation, never an
		// operator-supplied one: what was approved is what executes.
		Input: execCtx.RequestPayload,
		Context: &Context{
			TenantID: execCtx.TenantID,
			UserRef:  execCtx.ActorID,
			TraceID:  execCtx.TraceID,
		},
	}
	s.publish(ctx, event.TopicDecisionRecorded, execCtx.TaskID, replay, map[string]interface{}{
		"ticketId":  request.TicketID,
		"decision":  request.Decision,
		"decidedBy": request.DecidedBy,
	})

	if decision == task.TicketRejected {
		s.setStatus(ctx, execCtx.TaskID, task.StatusRejected, store.WithError(request.Note))
		s.publish(ctx, event.TopicTaskRejected, execCtx.TaskID, replay, map[string]interface{}{
			"ticketId": request.TicketID,
			"note":     request.Note,
		})
		return &DecisionResult{
			Decision:         request.Decision,
			ResumedExecution: false,
			Task:             s.snapshot(ctx, execCtx.TaskID),
		}, nil
	}

	s.setStatus(ctx, execCtx.TaskID, task.StatusApproved)
	replay.Context.Approval = &ApprovalMarker{
		Approved: true,
		TicketID: request.TicketID,
		Approver: request.DecidedBy,
	}
	execution := s.act(ctx, execCtx.TaskID, replay)
	return &DecisionResult{
		Decision:         request.Decision,
		ResumedExecution: true,
		Task:             s.snapshot(ctx, execCtx.TaskID),
		Execution:        execution,
	}, nil
}

// act invokes the handler and finalizes the task; shared by the non-gated
// path and the approved resume path.
func (s *Service) act(ctx context.Context, taskID string, request *ExecuteRequest) *ExecuteResult {
	started := time.Now()
	output, err := s.registry.Execute(ctx, request.AgentID, request.ActionID, request.Input)
	s.metrics.ObserveHandlerDuration(request.AgentID, request.ActionID, time.Since(started))
	if err != nil {
		s.setStatus(ctx, taskID, task.StatusFailed, store.WithError(err.Error()))
		s.publish(ctx, event.TopicTaskFailed, taskID, request, map[string]interface{}{
			"error": err.Error(),
		})
		s.metrics.IncExecution(request.AgentID, request.ActionID, string(StatusError))
		progress.UpdateCtx(ctx, progress.Delta{Failed: 1})
		return &ExecuteResult{Status: StatusError, TaskID: taskID, Error: err.Error()}
	}

	s.linkSideEffects(ctx, taskID, output)
	s.setStatus(ctx, taskID, task.StatusSucceeded, store.WithResponse(output))
	s.publish(ctx, event.TopicTaskCompleted, taskID, request, output)
	s.metrics.IncExecution(request.AgentID, request.ActionID, string(StatusSuccess))
	progress.UpdateCtx(ctx, progress.Delta{Succeeded: 1})
	return &ExecuteResult{Status: StatusSuccess, TaskID: taskID, Output: output}
}

// requireApproval diverts the attempt into a pending ticket without invoking
// the handler.
func (s *Service) requireApproval(ctx context.Context, taskID string, riskLevel agent.RiskLevel, request *ExecuteRequest) *ExecuteResult {
	reason := fmt.Sprintf("action %v.%v is classified %v risk", request.AgentID, request.ActionID, riskLevel)
	s.publish(ctx, event.TopicApprovalRequired, taskID, request, map[string]interface{}{
		"riskLevel": string(riskLevel),
		"reason":    reason,
	})
	progress.UpdateCtx(ctx, progress.Delta{Gated: 1})
	s.setStatus(ctx, taskID, task.StatusApprovalRequired)
	ticketID, err := s.store.CreateApprovalTicket(ctx, &store.TicketInput{
		TaskID:    taskID,
		TenantID:  request.Context.TenantID,
		AgentID:   request.AgentID,
		ActionID:  request.ActionID,
		RiskLevel: string(riskLevel),
		Reason:    reason,
	})
	if err != nil {
		ticketID = ""
	}
	return &ExecuteResult{
		Status: StatusApprovalRequired,
		TaskID: taskID,
		Approval: &ApprovalInfo{
			Required:  true,
			RiskLevel: string(riskLevel),
			Reason:    reason,
			TicketID:  ticketID,
		},
	}
}

func (s *Service) createTask(ctx context.Context, request *ExecuteRequest) string {
	taskID, err := s.store.CreateTask(ctx, &store.TaskInput{
		TenantID:       request.Context.TenantID,
		TraceID:        request.Context.TraceID,
		ActorID:        request.Context.UserRef,
		AgentID:        request.AgentID,
		ActionID:       request.ActionID,
		InputPrompt:    request.InputPrompt,
		RequestPayload: request.Input,
	})
	if err != nil {
		// Persistence degrades to a no-op record; orchestration continues.
		return ""
	}
	return taskID
}

func (s *Service) setStatus(ctx context.Context, taskID string, status task.Status, options ...store.StatusOption) {
	if taskID == "" {
		return
	}
	if err := s.store.SetTaskStatus(ctx, taskID, status, options...); err != nil {
		s.publish(ctx, event.TopicTaskFailed, taskID, nil, map[string]interface{}{
			"error": fmt.Sprintf("failed to persist status %v: %v", status, err),
		})
	}
}

func (s *Service) publish(ctx context.Context, topic, taskID string, request *ExecuteRequest, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	anEvent := event.NewEvent(topic, payload)
	anEvent.TaskID = taskID
	if request != nil && request.Context != nil {
		anEvent.TenantID = request.Context.TenantID
		anEvent.TraceID = request.Context.TraceID
	}
	s.events.Publish(ctx, anEvent)
}

// linkSideEffects cross-references side-effect identifiers reported by the
// handler (currently backup run ids) back to the originating task.
func (s *Service) linkSideEffects(ctx context.Context, taskID string, output map[string]interface{}) {
	if taskID == "" || len(output) == 0 {
		return
	}
	value, ok := output["backupRunId"]
	if !ok {
		return
	}
	if runID := toolbox.AsString(value); runID != "" {
		_ = s.store.LinkBackupRunToTask(ctx, taskID, runID)
	}
}

func (s *Service) idempotent(ctx context.Context, decision, taskID string) *DecisionResult {
	return &DecisionResult{
		Decision:         decision,
		Idempotent:       true,
		ResumedExecution: false,
		Task:             s.snapshot(ctx, taskID),
	}
}

func (s *Service) snapshot(ctx context.Context, taskID string) *task.Task {
	if taskID == "" {
		return nil
	}
	snapshot, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil
	}
	return snapshot
}

func ticketDecision(decision string) (task.TicketStatus, error) {
	switch decision {
	case "approved":
		return task.TicketApproved, nil
	case "rejected":
		return task.TicketRejected, nil
	}
	return "", ErrInvalidDecision
}
