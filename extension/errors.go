package extension

import (
	"errors"
	"fmt"
	"strings"
)

// Lookup failures are sentinel values so callers can translate them into
// structured 404-style results with errors.Is instead of string matching.
var (
	ErrAgentNotFound  = errors.New("extension: agent not found")
	ErrActionNotFound = errors.New("extension: action not found")
)

// RegistrationError reports an agent definition whose declared actions are
// not fully backed by handlers. Registration is atomic: on this error nothing
// has been registered.
type RegistrationError struct {
	AgentID string
	Missing []string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("agent %v registration failed: missing handlers for [%v]",
		e.AgentID, strings.Join(e.Missing, ", "))
}
