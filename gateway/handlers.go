package gateway

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/store"
)

// executeRequest is the wire shape of an execute call.
type executeRequest struct {
	Input       map[string]interface{} `json:"input,omitempty"`
	InputPrompt string                 `json:"inputPrompt,omitempty"`
	Context     *requestContext        `json:"context,omitempty"`
}

// requestContext deliberately has no approval field: approval markers are
// injected exclusively by the decision resume path, never accepted from HTTP
// callers.
type requestContext struct {
	TenantID string `json:"tenantId,omitempty"`
	UserRef  string `json:"userRef,omitempty"`
}

// decisionRequest is the wire shape of an approval decision.
type decisionRequest struct {
	Decision  string `json:"decision"`
	DecidedBy string `json:"decidedBy"`
	Note      string `json:"note,omitempty"`
}

func (s *Server) listAgents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"agents": s.registry.Definitions()})
}

func (s *Server) executeAction(c *gin.Context) {
	var body executeRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	request := &orchestrator.ExecuteRequest{
		AgentID:     c.Param("agentId"),
		ActionID:    c.Param("actionId"),
		InputPrompt: body.InputPrompt,
		Input:       body.Input,
		Context:     &orchestrator.Context{TraceID: traceID(c)},
	}
	if body.Context != nil {
		request.Context.TenantID = body.Context.TenantID
		request.Context.UserRef = body.Context.UserRef
	}

	result, err := s.orchestrator.Execute(c.Request.Context(), request)
	if err != nil {
		if errors.Is(err, orchestrator.ErrAgentNotFound) || errors.Is(err, orchestrator.ErrActionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	switch result.Status {
	case orchestrator.StatusApprovalRequired:
		c.JSON(http.StatusAccepted, result)
	case orchestrator.StatusError:
		c.JSON(http.StatusBadRequest, result)
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Request.Context(), listFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) getTask(c *gin.Context) {
	snapshot, err := s.store.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) listApprovals(c *gin.Context) {
	tickets, err := s.store.ListApprovalTickets(c.Request.Context(), listFilter(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvals": tickets})
}

func (s *Server) getApproval(c *gin.Context) {
	snapshot, err := s.store.GetApprovalTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			c.JSON(http.StatusNotFound, gin.H{"error": "approval ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) decideApproval(c *gin.Context) {
	var body decisionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := s.orchestrator.DecideApproval(c.Request.Context(), &orchestrator.DecisionRequest{
		TicketID:  c.Param("id"),
		Decision:  body.Decision,
		DecidedBy: body.DecidedBy,
		Note:      body.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, orchestrator.ErrTicketNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, orchestrator.ErrInvalidDecision):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

func listFilter(c *gin.Context) *store.Filter {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	return &store.Filter{
		TenantID: c.Query("tenantId"),
		Status:   c.Query("status"),
		Limit:    limit,
	}
}
