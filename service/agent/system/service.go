package system

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"github.com/viant/x"
	"golang.org/x/crypto/ssh"

	"github.com/viant/warden/extension"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Name of the agent as exposed by the registry.
const Name = "system"

// Host identifies the target system. URL uses bash://host/ form; anything
// other than localhost is reached over SSH using credentials resolved via
// the secret service.
type Host struct {
	URL         string `json:"url,omitempty"`
	Credentials string `json:"credentials,omitempty"`
}

// Service executes shell commands on local or remote hosts, keeping one
// session per host URL. Every action it exposes mutates the target system,
// so the whole agent is classified high risk.
type Service struct {
	sessions map[string]*sessionInfo
	mux      sync.Mutex
}

type sessionInfo struct {
	service *gosh.Service
}

// New creates a system agent.
func New() *Service {
	return &Service{
		sessions: make(map[string]*sessionInfo),
	}
}

// Definition returns the agent definition.
func (s *Service) Definition() *agent.Definition {
	return &agent.Definition{
		ID:          Name,
		Name:        "System",
		Description: "Executes shell commands on local or remote hosts.",
		Version:     "1.0",
		Actions: []agent.Action{
			{
				ID:          "run-commands",
				Title:       "Run commands",
				Description: "Runs shell commands on the target host and returns their output.",
				RiskLevel:   agent.RiskHigh,
				Example:     map[string]interface{}{"commands": []string{"systemctl restart nginx"}},
				Input:       reflect.TypeOf(&Input{}),
				Output:      reflect.TypeOf(&Output{}),
			},
		},
	}
}

// InitTypes contributes action IO types to the shared registry.
func (s *Service) InitTypes(registry *extension.Types) {
	registry.Register(x.NewType(reflect.TypeOf(Input{})))
	registry.Register(x.NewType(reflect.TypeOf(Output{})))
}

// Method returns the executable for the specified action.
func (s *Service) Method(actionID string) (types.Executable, error) {
	switch strings.ToLower(actionID) {
	case "run-commands":
		return s.runCommands, nil
	default:
		return nil, types.NewActionNotFoundError(actionID)
	}
}

func (s *Service) runCommands(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*Input)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*Output)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	return s.execute(ctx, input, output)
}

// execute runs the supplied commands sequentially on the target host.
func (s *Service) execute(ctx context.Context, input *Input, output *Output) error {
	input.Init()
	session, err := s.getSession(ctx, input.Host, input.Env)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	if input.Workdir != "" {
		if _, _, err := session.service.Run(ctx, fmt.Sprintf("cd %s", input.Workdir)); err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}

	abortOnError := true
	if input.AbortOnError != nil {
		abortOnError = *input.AbortOnError
	}

	timeoutDuration := time.Duration(input.TimeoutMs) * time.Millisecond
	if timeoutDuration == 0 {
		timeoutDuration = time.Minute
	}

	commands := make([]*Command, 0, len(input.Commands))
	var combinedStdout, combinedStderr strings.Builder
	var lastExitCode int
	for _, cmd := range input.Commands {
		stdout, stderr, exitCode := s.executeCommand(ctx, session, cmd, timeoutDuration)
		commands = append(commands, &Command{
			Input:  cmd,
			Output: stdout,
			Stderr: stderr,
			Status: exitCode,
		})
		if stdout != "" {
			combinedStdout.WriteString(stdout)
			combinedStdout.WriteString("\n")
		}
		if stderr != "" {
			combinedStderr.WriteString(stderr)
			combinedStderr.WriteString("\n")
		}
		lastExitCode = exitCode
		if abortOnError && exitCode != 0 {
			break
		}
	}

	output.Commands = commands
	output.Stdout = strings.TrimSpace(combinedStdout.String())
	output.Stderr = strings.TrimSpace(combinedStderr.String())
	output.Status = lastExitCode
	return nil
}

func (s *Service) executeCommand(ctx context.Context, session *sessionInfo, command string, duration time.Duration) (string, string, int) {
	started := time.Now()
	stdout, status, err := session.service.Run(ctx, command, runner.WithTimeout(int(duration.Milliseconds())))
	elapsed := time.Since(started)
	if elapsed > duration && err == nil {
		err = fmt.Errorf("command %v timed out after: %s", command, elapsed)
	}
	if status == 0 {
		return stdout, "", status
	}
	if stdout == "" && err != nil {
		stdout = err.Error()
	}
	return "", stdout, status
}

// getSession retrieves an existing session or creates a new one.
func (s *Service) getSession(ctx context.Context, host *Host, env map[string]string) (*sessionInfo, error) {
	sessionID := host.URL

	s.mux.Lock()
	defer s.mux.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		return session, nil
	}

	var service *gosh.Service
	var err error

	envOptions := []runner.Option{}
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}
	if url.Host(host.URL) == "localhost" {
		service, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		config, cfgErr := s.getSSHConfig(ctx, host)
		if cfgErr != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", cfgErr)
		}
		sshHost := url.Host(host.URL)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		service, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	session := &sessionInfo{service: service}
	s.sessions[sessionID] = session
	return session, nil
}

// getSSHConfig resolves SSH credentials for the host via the secret service.
func (s *Service) getSSHConfig(ctx context.Context, host *Host) (*ssh.ClientConfig, error) {
	credentials := host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	secrets := secret.New()
	generic, err := secrets.GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all sessions held by this service.
func (s *Service) Close(ctx context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, session := range s.sessions {
		if err := session.service.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("failed to close session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*sessionInfo)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}

var _ extension.Agent = (*Service)(nil)
