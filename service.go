package warden

import (
	"context"
	"log"

	"github.com/viant/x"

	"github.com/viant/warden/extension"
	"github.com/viant/warden/service/agent/backup"
	"github.com/viant/warden/service/agent/cicd"
	"github.com/viant/warden/service/agent/proxy"
	"github.com/viant/warden/service/agent/system"
	"github.com/viant/warden/service/audit"
	"github.com/viant/warden/service/event"
	"github.com/viant/warden/service/orchestrator"
	"github.com/viant/warden/service/store"
	"github.com/viant/warden/service/store/memory"
)

// Service assembles the orchestration engine: the agent registry, the task
// and approval store, the lifecycle event service and the workflow that ties
// them together.
type Service struct {
	registry            *extension.Registry
	storeService        store.Service
	eventService        *event.Service
	orchestrator        *orchestrator.Service
	extensionTypes      []*x.Type
	extensionAgents     []extension.Agent
	orchestratorOptions []orchestrator.Option
	proxyAgentsURL      string
	builtinAgents       bool
	auditTrail          bool
	closables           []closable
}

// closable is implemented by agents holding background resources, such as the
// system agent's shell sessions.
type closable interface {
	Close(ctx context.Context) error
}

// New creates a fully wired service. Registration failures are fatal: an
// agent with missing handlers never partially registers.
func New(options ...Option) (*Service, error) {
	ret := &Service{builtinAgents: true, auditTrail: true}
	if err := ret.init(options); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init(options []Option) error {
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()
	s.registry = extension.NewRegistry(s.extensionTypes...)
	s.orchestrator = orchestrator.New(s.registry, s.storeService, s.eventService, s.orchestratorOptions...)

	if s.builtinAgents {
		agents := []extension.Agent{
			cicd.New(),
			backup.New(),
			system.New(),
		}
		for _, a := range agents {
			if err := s.RegisterAgent(a); err != nil {
				return err
			}
		}
	}
	for _, a := range s.extensionAgents {
		if err := s.RegisterAgent(a); err != nil {
			return err
		}
	}
	if s.proxyAgentsURL != "" {
		if err := s.registerProxyAgents(context.Background(), s.proxyAgentsURL); err != nil {
			return err
		}
	}
	if s.auditTrail {
		s.eventService.SetListener(audit.Sink(s.storeService))
	}
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.storeService == nil {
		s.storeService = memory.New()
	}
	if s.eventService == nil {
		s.eventService = event.New()
	}
}

// registerProxyAgents loads declarations from the supplied URL and registers
// a forwarding agent per declaration.
func (s *Service) registerProxyAgents(ctx context.Context, URL string) error {
	declarations, err := proxy.Load(ctx, URL)
	if err != nil {
		return err
	}
	for _, declaration := range declarations {
		proxyAgent, err := proxy.New(declaration)
		if err != nil {
			return err
		}
		if err := s.RegisterAgent(proxyAgent); err != nil {
			return err
		}
	}
	return nil
}

// RegisterAgent adds an agent and tracks it for shutdown when it holds
// background resources.
func (s *Service) RegisterAgent(a extension.Agent) error {
	if err := s.registry.RegisterAgent(a); err != nil {
		return err
	}
	if c, ok := a.(closable); ok {
		s.closables = append(s.closables, c)
	}
	return nil
}

// RegisterExtensionTypes adds types to the shared type registry.
func (s *Service) RegisterExtensionTypes(types ...*x.Type) {
	for i := range types {
		s.registry.Types().Register(types[i])
	}
}

// Execute runs an action through the orchestration workflow.
func (s *Service) Execute(ctx context.Context, request *orchestrator.ExecuteRequest) (*orchestrator.ExecuteResult, error) {
	return s.orchestrator.Execute(ctx, request)
}

// DecideApproval records an approval decision, resuming execution when
// approved.
func (s *Service) DecideApproval(ctx context.Context, request *orchestrator.DecisionRequest) (*orchestrator.DecisionResult, error) {
	return s.orchestrator.DecideApproval(ctx, request)
}

// Registry returns the agent registry.
func (s *Service) Registry() *extension.Registry {
	return s.registry
}

// Store returns the task/approval store.
func (s *Service) Store() store.Service {
	return s.storeService
}

// Events returns the lifecycle event service.
func (s *Service) Events() *event.Service {
	return s.eventService
}

// Orchestrator returns the workflow service.
func (s *Service) Orchestrator() *orchestrator.Service {
	return s.orchestrator
}

// Close releases background resources held by registered agents and stops
// event delivery.
func (s *Service) Close() {
	ctx := context.Background()
	for _, c := range s.closables {
		if err := c.Close(ctx); err != nil {
			log.Printf("close agent: %v", err)
		}
	}
	s.closables = nil
	if s.eventService != nil {
		s.eventService.Close()
	}
}
