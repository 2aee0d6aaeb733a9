package agent

import "reflect"

// RiskLevel classifies an action; high-risk actions require an explicit,
// ticket-backed human approval before they execute.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// IsValid reports whether the risk level is one of the known values.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RequiresApproval reports whether an action at this level is gated behind
// a human decision.
func (r RiskLevel) RequiresApproval() bool {
	return r == RiskHigh
}

// Definition describes an agent: a named capability provider exposing one or
// more risk-classified actions. Definitions are immutable once registered.
type Definition struct {
	ID           string                 `json:"id" yaml:"id"`
	Name         string                 `json:"name,omitempty" yaml:"name,omitempty"`
	Description  string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string                 `json:"version,omitempty" yaml:"version,omitempty"`
	Actions      []Action               `json:"actions" yaml:"actions"`
	UIExtensions map[string]interface{} `json:"uiExtensions,omitempty" yaml:"uiExtensions,omitempty"`
}

// Action describes a single invocable operation on an agent.
type Action struct {
	ID          string                 `json:"id" yaml:"id"`
	Title       string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	RiskLevel   RiskLevel              `json:"riskLevel" yaml:"riskLevel"`
	Example     map[string]interface{} `json:"example,omitempty" yaml:"example,omitempty"`

	// Input/Output carry the Go types the registry converts the request
	// payload to/from; they are registration-time metadata, not part of the
	// serialised definition.
	Input  reflect.Type `json:"-" yaml:"-"`
	Output reflect.Type `json:"-" yaml:"-"`
}

// Lookup returns the action with the given id or nil.
func (d *Definition) Lookup(actionID string) *Action {
	if d == nil {
		return nil
	}
	for i := range d.Actions {
		if d.Actions[i].ID == actionID {
			return &d.Actions[i]
		}
	}
	return nil
}

// ActionIDs returns the ids of all declared actions.
func (d *Definition) ActionIDs() []string {
	ids := make([]string, 0, len(d.Actions))
	for i := range d.Actions {
		ids = append(ids, d.Actions[i].ID)
	}
	return ids
}
