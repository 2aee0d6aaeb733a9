package orchestrator

// ApprovalMarker is attached to a request context exclusively by the decision
// resume path; it carries proof that a specific ticket approved the attempt.
// Original callers never supply it - the gate strips nothing, it simply only
// trusts markers injected by DecideApproval.
type ApprovalMarker struct {
	Approved bool   `json:"approved"`
	TicketID string `json:"ticketId,omitempty"`
	Approver string `json:"approver,omitempty"`
}

// Context carries the caller's identity and correlation data through an
// execution attempt.
type Context struct {
	TenantID string          `json:"tenantId,omitempty"`
	UserRef  string          `json:"userRef,omitempty"`
	TraceID  string          `json:"traceId,omitempty"`
	Approval *ApprovalMarker `json:"approval,omitempty"`
}

func (c *Context) approved() bool {
	return c != nil && c.Approval != nil && c.Approval.Approved
}

// ExecuteRequest asks the workflow to run a single agent action.
type ExecuteRequest struct {
	AgentID     string                 `json:"agentId"`
	ActionID    string                 `json:"actionId"`
	InputPrompt string                 `json:"inputPrompt,omitempty"`
	Input       map[string]interface{} `json:"input,omitempty"`
	Context     *Context               `json:"context,omitempty"`
}

// DecisionRequest records a human decision on a pending approval ticket.
type DecisionRequest struct {
	TicketID  string `json:"ticketId"`
	Decision  string `json:"decision"`
	DecidedBy string `json:"decidedBy"`
	Note      string `json:"note,omitempty"`
}
