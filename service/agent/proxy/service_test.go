package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/warden/model/agent"
)

func TestParse(t *testing.T) {
	data := []byte(`
agents:
  - id: vault
    name: Vault
    endpoint: https://vault.internal/api
    actions:
      - id: rotate-secret
        riskLevel: high
      - id: read-secret
        riskLevel: low
        endpoint: https://vault.internal/api/read
`)
	declarations, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, declarations, 1)
	declaration := declarations[0]
	assert.Equal(t, "vault", declaration.ID)
	require.Len(t, declaration.Actions, 2)
	assert.Equal(t, "https://vault.internal/api", declaration.endpoint(&declaration.Actions[0]))
	assert.Equal(t, "https://vault.internal/api/read", declaration.endpoint(&declaration.Actions[1]))
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		description string
		data        string
	}{
		{"missing id", "agents:\n  - actions:\n      - id: a\n        riskLevel: low\n        endpoint: http://x"},
		{"no actions", "agents:\n  - id: empty"},
		{"bad risk level", "agents:\n  - id: a\n    endpoint: http://x\n    actions:\n      - id: b\n        riskLevel: extreme"},
		{"no endpoint", "agents:\n  - id: a\n    actions:\n      - id: b\n        riskLevel: low"},
	}
	for _, testCase := range testCases {
		_, err := Parse([]byte(testCase.data))
		assert.Error(t, err, testCase.description)
	}
}

func TestService_Definition(t *testing.T) {
	service, err := New(Declaration{
		ID:       "vault",
		Endpoint: "http://vault",
		Actions: []ActionDeclaration{
			{ID: "rotate-secret", RiskLevel: "high"},
			{ID: "read-secret", RiskLevel: "low"},
		},
	})
	require.NoError(t, err)
	definition := service.Definition()
	assert.Equal(t, "vault", definition.ID)
	require.Len(t, definition.Actions, 2)
	assert.Equal(t, agent.RiskHigh, definition.Actions[0].RiskLevel)
}

func TestService_Forwarding(t *testing.T) {
	var received map[string]interface{}
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rotated": true, "version": 3}`))
	}))
	defer remote.Close()

	service, err := New(Declaration{
		ID:       "vault",
		Endpoint: remote.URL,
		Headers:  map[string]string{"Authorization": "secret-token"},
		Actions: []ActionDeclaration{
			{ID: "rotate-secret", RiskLevel: "high"},
		},
	}, WithClient(remote.Client()))
	require.NoError(t, err)

	method, err := service.Method("rotate-secret")
	require.NoError(t, err)

	output := map[string]interface{}{}
	err = method(context.Background(), map[string]interface{}{"path": "db/creds"}, output)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"path": "db/creds"}, received)
	assert.Equal(t, true, output["rotated"])
}

func TestService_Forwarding_RemoteError(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer remote.Close()

	service, err := New(Declaration{
		ID:       "vault",
		Endpoint: remote.URL,
		Actions:  []ActionDeclaration{{ID: "rotate-secret", RiskLevel: "high"}},
	}, WithClient(remote.Client()))
	require.NoError(t, err)

	method, err := service.Method("rotate-secret")
	require.NoError(t, err)
	err = method(context.Background(), map[string]interface{}{}, map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestService_UnknownAction(t *testing.T) {
	service, err := New(Declaration{
		ID:       "vault",
		Endpoint: "http://vault",
		Actions:  []ActionDeclaration{{ID: "rotate-secret", RiskLevel: "high"}},
	})
	require.NoError(t, err)
	_, err = service.Method("missing")
	assert.Error(t, err)
}
