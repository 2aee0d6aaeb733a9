package orchestrator

import "github.com/viant/warden/model/task"

// Status of an execution attempt as reported to the caller.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusError            Status = "error"
	StatusApprovalRequired Status = "approval_required"
)

// ApprovalInfo describes the gate outcome attached to an approval_required
// result.
type ApprovalInfo struct {
	Required  bool   `json:"required"`
	RiskLevel string `json:"riskLevel"`
	Reason    string `json:"reason,omitempty"`
	TicketID  string `json:"ticketId,omitempty"`
}

// ExecuteResult is what every execution attempt returns; handler failures are
// captured here, never thrown past the workflow boundary.
type ExecuteResult struct {
	Status   Status                 `json:"status"`
	TaskID   string                 `json:"taskId,omitempty"`
	Output   map[string]interface{} `json:"output,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Approval *ApprovalInfo          `json:"approval,omitempty"`
}

// DecisionResult reports the outcome of an approval decision. Idempotent is
// set when the decision had no additional effect because the ticket or task
// was already resolved; the handler executes at most once per ticket.
type DecisionResult struct {
	Decision         string         `json:"decision"`
	Idempotent       bool           `json:"idempotent,omitempty"`
	ResumedExecution bool           `json:"resumedExecution"`
	Task             *task.Task     `json:"task,omitempty"`
	Execution        *ExecuteResult `json:"execution,omitempty"`
}
