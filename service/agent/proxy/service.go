package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/viant/warden/extension"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Service adapts a declared remote agent: each action forwards its request
// payload as a JSON POST to the configured endpoint and returns the decoded
// response body. Input and output stay untyped maps since the remote schema
// is not known to this process.
type Service struct {
	declaration Declaration
	client      *http.Client
}

// Option customises a proxy agent.
type Option func(*Service)

// WithClient overrides the HTTP client (tests point it at a local server).
func WithClient(client *http.Client) Option {
	return func(s *Service) { s.client = client }
}

// New creates a proxy agent from its declaration.
func New(declaration Declaration, options ...Option) (*Service, error) {
	if err := declaration.Validate(); err != nil {
		return nil, err
	}
	ret := &Service{declaration: declaration}
	for _, option := range options {
		option(ret)
	}
	if ret.client == nil {
		ret.client = &http.Client{Timeout: 30 * time.Second}
	}
	return ret, nil
}

// Definition returns the agent definition built from the declaration.
func (s *Service) Definition() *agent.Definition {
	actions := make([]agent.Action, 0, len(s.declaration.Actions))
	for _, declared := range s.declaration.Actions {
		actions = append(actions, agent.Action{
			ID:          declared.ID,
			Title:       declared.Title,
			Description: declared.Description,
			RiskLevel:   agent.RiskLevel(declared.RiskLevel),
			Example:     declared.Example,
		})
	}
	return &agent.Definition{
		ID:          s.declaration.ID,
		Name:        s.declaration.Name,
		Description: s.declaration.Description,
		Version:     s.declaration.Version,
		Actions:     actions,
	}
}

// Method returns the forwarding executable for the specified action.
func (s *Service) Method(actionID string) (types.Executable, error) {
	for i := range s.declaration.Actions {
		declared := &s.declaration.Actions[i]
		if strings.EqualFold(declared.ID, actionID) {
			endpoint := s.declaration.endpoint(declared)
			return s.forwarder(declared.ID, endpoint), nil
		}
	}
	return nil, types.NewActionNotFoundError(actionID)
}

func (s *Service) forwarder(actionID, endpoint string) types.Executable {
	return func(ctx context.Context, in, out interface{}) error {
		request, ok := in.(map[string]interface{})
		if !ok {
			return types.NewInvalidInputError(in)
		}
		output, ok := out.(map[string]interface{})
		if !ok {
			return types.NewInvalidOutputError(out)
		}
		body, err := json.Marshal(request)
		if err != nil {
			return fmt.Errorf("failed to encode request for %v.%v: %w", s.declaration.ID, actionID, err)
		}
		httpRequest, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpRequest.Header.Set("Content-Type", "application/json")
		for key, value := range s.declaration.Headers {
			httpRequest.Header.Set(key, value)
		}
		response, err := s.client.Do(httpRequest)
		if err != nil {
			return fmt.Errorf("failed to call %v.%v: %w", s.declaration.ID, actionID, err)
		}
		defer response.Body.Close()
		data, err := io.ReadAll(response.Body)
		if err != nil {
			return err
		}
		if response.StatusCode < 200 || response.StatusCode >= 300 {
			return fmt.Errorf("%v.%v returned status %v: %s", s.declaration.ID, actionID, response.StatusCode, data)
		}
		if len(data) == 0 {
			return nil
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return fmt.Errorf("failed to decode response from %v.%v: %w", s.declaration.ID, actionID, err)
		}
		for key, value := range decoded {
			output[key] = value
		}
		return nil
	}
}

var _ extension.Agent = (*Service)(nil)
