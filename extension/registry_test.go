package extension

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

type greetInput struct {
	Name string `json:"name"`
}

type greetOutput struct {
	Greeting string `json:"greeting"`
}

func greetDefinition() *agent.Definition {
	return &agent.Definition{
		ID:   "greeter",
		Name: "Greeter",
		Actions: []agent.Action{
			{
				ID:        "greet",
				RiskLevel: agent.RiskLow,
				Input:     reflect.TypeOf(&greetInput{}),
				Output:    reflect.TypeOf(&greetOutput{}),
			},
		},
	}
}

func greetHandler(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*greetInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*greetOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Name == "" {
		return fmt.Errorf("name is required")
	}
	output.Greeting = "hello " + input.Name
	return nil
}

func TestRegistry_Register(t *testing.T) {
	t.Run("missing handlers never partially register", func(t *testing.T) {
		registry := NewRegistry()
		definition := greetDefinition()
		definition.Actions = append(definition.Actions, agent.Action{ID: "farewell", RiskLevel: agent.RiskLow})

		err := registry.Register(definition, map[string]types.Executable{"greet": greetHandler})
		require.Error(t, err)
		var registrationErr *RegistrationError
		require.ErrorAs(t, err, &registrationErr)
		assert.Equal(t, []string{"farewell"}, registrationErr.Missing)
		assert.Nil(t, registry.Lookup("greeter"))
	})

	t.Run("invalid risk level rejected", func(t *testing.T) {
		registry := NewRegistry()
		definition := greetDefinition()
		definition.Actions[0].RiskLevel = "extreme"
		err := registry.Register(definition, map[string]types.Executable{"greet": greetHandler})
		assert.Error(t, err)
	})

	t.Run("successful registration", func(t *testing.T) {
		registry := NewRegistry()
		err := registry.Register(greetDefinition(), map[string]types.Executable{"greet": greetHandler})
		require.NoError(t, err)
		assert.NotNil(t, registry.Lookup("greeter"))
		assert.Len(t, registry.Definitions(), 1)
	})
}

func TestRegistry_ActionDefinition(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(greetDefinition(), map[string]types.Executable{"greet": greetHandler}))

	action, err := registry.ActionDefinition("greeter", "greet")
	require.NoError(t, err)
	assert.Equal(t, agent.RiskLow, action.RiskLevel)

	_, err = registry.ActionDefinition("unknown", "greet")
	assert.ErrorIs(t, err, ErrAgentNotFound)

	_, err = registry.ActionDefinition("greeter", "unknown")
	assert.ErrorIs(t, err, ErrActionNotFound)
}

func TestRegistry_Execute(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(greetDefinition(), map[string]types.Executable{"greet": greetHandler}))
	ctx := context.Background()

	t.Run("request converted into typed input", func(t *testing.T) {
		output, err := registry.Execute(ctx, "greeter", "greet", map[string]interface{}{"name": "ann"})
		require.NoError(t, err)
		assert.Equal(t, "hello ann", output["greeting"])
	})

	t.Run("handler error returned verbatim", func(t *testing.T) {
		_, err := registry.Execute(ctx, "greeter", "greet", map[string]interface{}{})
		assert.EqualError(t, err, "name is required")
	})

	t.Run("unknown ids surface sentinels", func(t *testing.T) {
		_, err := registry.Execute(ctx, "nope", "greet", nil)
		assert.ErrorIs(t, err, ErrAgentNotFound)
		_, err = registry.Execute(ctx, "greeter", "nope", nil)
		assert.ErrorIs(t, err, ErrActionNotFound)
	})
}

func TestRegistry_UntypedAction(t *testing.T) {
	registry := NewRegistry()
	definition := &agent.Definition{
		ID: "echo",
		Actions: []agent.Action{
			{ID: "echo", RiskLevel: agent.RiskLow},
		},
	}
	echo := func(ctx context.Context, in, out interface{}) error {
		request := in.(map[string]interface{})
		response := out.(map[string]interface{})
		for k, v := range request {
			response[k] = v
		}
		return nil
	}
	require.NoError(t, registry.Register(definition, map[string]types.Executable{"echo": echo}))

	output, err := registry.Execute(context.Background(), "echo", "echo", map[string]interface{}{"k": "v"})
	require.NoError(t, err)
	assert.Equal(t, "v", output["k"])
}
