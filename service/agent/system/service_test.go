package system

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/model/agent"
)

func TestInput_Init(t *testing.T) {
	input := &Input{Commands: []string{"ls"}}
	input.Init()
	require.NotNil(t, input.Host)
	assert.Equal(t, "bash://localhost/", input.Host.URL)

	input = &Input{Host: &Host{URL: "bash://build-01/"}}
	input.Init()
	assert.Equal(t, "bash://build-01/", input.Host.URL)
}

func TestService_Definition(t *testing.T) {
	service := New()
	definition := service.Definition()
	assert.Equal(t, Name, definition.ID)

	action := definition.Lookup("run-commands")
	require.NotNil(t, action)
	assert.Equal(t, agent.RiskHigh, action.RiskLevel)

	_, err := service.Method("run-commands")
	assert.NoError(t, err)
	_, err = service.Method("missing")
	assert.Error(t, err)
}
