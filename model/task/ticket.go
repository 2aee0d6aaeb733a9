package task

import "time"

// TicketStatus captures an approval ticket's lifecycle. Only pending tickets
// may be decided; any other status decided again is reported idempotent.
type TicketStatus string

const (
	TicketPending  TicketStatus = "pending"
	TicketApproved TicketStatus = "approved"
	TicketRejected TicketStatus = "rejected"
	TicketExpired  TicketStatus = "expired"
)

// IsTerminal reports whether the ticket has been resolved.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketApproved || s == TicketRejected || s == TicketExpired
}

// ApprovalTicket is the pending-decision record created when a high-risk
// action is attempted without prior approval. A ticket back-references its
// task (1:1) and never outlives it; a task has at most one active ticket.
type ApprovalTicket struct {
	ID           string       `json:"id"`
	TaskID       string       `json:"taskId"`
	TenantID     string       `json:"tenantId,omitempty"`
	AgentID      string       `json:"agentId"`
	ActionID     string       `json:"actionId"`
	RiskLevel    string       `json:"riskLevel"`
	Reason       string       `json:"reason,omitempty"`
	Status       TicketStatus `json:"status"`
	DecisionNote string       `json:"decisionNote,omitempty"`
	DecidedBy    string       `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time   `json:"decidedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}
