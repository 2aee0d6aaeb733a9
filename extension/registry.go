package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/viant/structology/conv"
	"github.com/viant/x"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Registry is the process-wide agent catalogue. It is populated at startup
// from static plugin registrations plus dynamic proxy configuration and is
// effectively read-only in steady state; the lock exists for re-registration
// (last-writer-wins) and concurrent readers.
type Registry struct {
	types     *Types
	converter *conv.Converter
	agents    map[string]Agent
	mux       sync.RWMutex
}

// NewRegistry creates an empty registry, optionally seeding the shared type
// registry.
func NewRegistry(goTypes ...*x.Type) *Registry {
	options := conv.DefaultOptions()
	options.ClonePointerData = true
	options.IgnoreUnmapped = true
	ret := &Registry{
		types:     NewTypes(),
		converter: conv.NewConverter(options),
		agents:    make(map[string]Agent),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}

// Types returns the shared type registry.
func (r *Registry) Types() *Types {
	return r.types
}

// Register validates the definition against the handler map and stores both
// keyed by agent id. Every declared action id must have a handler; otherwise
// a *RegistrationError listing the missing ids is returned and nothing is
// registered. Re-registering an id overwrites the prior entry.
func (r *Registry) Register(definition *agent.Definition, handlers map[string]types.Executable) error {
	if definition == nil || definition.ID == "" {
		return fmt.Errorf("invalid agent definition")
	}
	for i := range definition.Actions {
		action := &definition.Actions[i]
		if action.ID == "" {
			return fmt.Errorf("agent %v declares an action with empty id", definition.ID)
		}
		if !action.RiskLevel.IsValid() {
			return fmt.Errorf("agent %v action %v has invalid risk level %q", definition.ID, action.ID, action.RiskLevel)
		}
	}
	var missing []string
	for _, id := range definition.ActionIDs() {
		if _, ok := handlers[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &RegistrationError{AgentID: definition.ID, Missing: missing}
	}
	return r.RegisterAgent(&handlerAgent{definition: definition, handlers: handlers})
}

// RegisterAgent registers a pre-built agent after verifying that each
// declared action resolves to an executable handler.
func (r *Registry) RegisterAgent(a Agent) error {
	definition := a.Definition()
	if definition == nil || definition.ID == "" {
		return fmt.Errorf("invalid agent definition")
	}
	var missing []string
	for _, id := range definition.ActionIDs() {
		if _, err := a.Method(id); err != nil {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &RegistrationError{AgentID: definition.ID, Missing: missing}
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if typer, ok := a.(DataTypeIniter); ok {
		typer.InitTypes(r.types)
	}
	r.agents[definition.ID] = a
	return nil
}

// Lookup returns an agent by id or nil.
func (r *Registry) Lookup(agentID string) Agent {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.agents[agentID]
}

// Definitions returns all registered definitions; order is unspecified.
func (r *Registry) Definitions() []*agent.Definition {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]*agent.Definition, 0, len(r.agents))
	for _, a := range r.agents {
		ret = append(ret, a.Definition())
	}
	return ret
}

// ActionDefinition returns the action metadata used by the workflow to read
// the risk level before dispatch.
func (r *Registry) ActionDefinition(agentID, actionID string) (*agent.Action, error) {
	a := r.Lookup(agentID)
	if a == nil {
		return nil, ErrAgentNotFound
	}
	action := a.Definition().Lookup(actionID)
	if action == nil {
		return nil, ErrActionNotFound
	}
	return action, nil
}

// Execute converts the request payload into the action's typed input,
// invokes the handler and returns its output as an opaque map. Unknown
// agent/action ids surface as the package sentinels; handler and conversion
// failures are returned verbatim - the registry never inspects results.
func (r *Registry) Execute(ctx context.Context, agentID, actionID string, request map[string]interface{}) (map[string]interface{}, error) {
	a := r.Lookup(agentID)
	if a == nil {
		return nil, ErrAgentNotFound
	}
	action := a.Definition().Lookup(actionID)
	if action == nil {
		return nil, ErrActionNotFound
	}
	method, err := a.Method(actionID)
	if err != nil {
		return nil, ErrActionNotFound
	}

	input, err := r.typedInput(action, request)
	if err != nil {
		return nil, fmt.Errorf("invalid request for %v.%v: %w", agentID, actionID, err)
	}
	output := r.typedOutput(action)

	if err = method(ctx, input, output); err != nil {
		return nil, err
	}
	return asMap(output)
}

func (r *Registry) typedInput(action *agent.Action, request map[string]interface{}) (interface{}, error) {
	if request == nil {
		request = map[string]interface{}{}
	}
	if action.Input == nil {
		return request, nil
	}
	rType := action.Input
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	instance := reflect.New(rType).Interface()
	if err := r.converter.Convert(request, instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func (r *Registry) typedOutput(action *agent.Action) interface{} {
	if action.Output == nil {
		return map[string]interface{}{}
	}
	rType := action.Output
	if rType.Kind() == reflect.Ptr {
		rType = rType.Elem()
	}
	return reflect.New(rType).Interface()
}

func asMap(output interface{}) (map[string]interface{}, error) {
	switch actual := output.(type) {
	case nil:
		return nil, nil
	case map[string]interface{}:
		return actual, nil
	}
	data, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	var ret map[string]interface{}
	if err = json.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output: %w", err)
	}
	return ret, nil
}
