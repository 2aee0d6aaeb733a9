package extension

import (
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Agent is a capability provider: a definition plus an executable handler per
// declared action. The handler-map-per-agent pattern replaces virtual
// dispatch; static agents implement this interface directly, config-driven
// proxy agents are built from declarations at startup.
type Agent interface {
	Definition() *agent.Definition
	Method(actionID string) (types.Executable, error)
}

// DataTypeIniter lets an agent contribute its input/output Go types to the
// shared type registry at registration time.
type DataTypeIniter interface {
	InitTypes(types *Types)
}

// handlerAgent pairs an immutable definition with a handler map. It is the
// product of Registry.Register(definition, handlers).
type handlerAgent struct {
	definition *agent.Definition
	handlers   map[string]types.Executable
}

func (a *handlerAgent) Definition() *agent.Definition {
	return a.definition
}

func (a *handlerAgent) Method(actionID string) (types.Executable, error) {
	handler, ok := a.handlers[actionID]
	if !ok {
		return nil, types.NewActionNotFoundError(actionID)
	}
	return handler, nil
}
