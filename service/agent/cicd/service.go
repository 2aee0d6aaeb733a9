package cicd

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/viant/x"
	"github.com/viant/warden/extension"
	"github.com/viant/warden/internal/clock"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Name of the agent as exposed by the registry.
const Name = "cicd"

// Service exposes CI/CD operations: a low-risk pipeline listing and a
// high-risk application sync. The sync action mutates deployment state and is
// therefore gated behind human approval. The backing data is an in-process
// catalogue; wiring real GitLab/ArgoCD clients happens behind this boundary.
type Service struct {
	mu           sync.Mutex
	pipelines    []Pipeline
	applications map[string]*Application
}

// Pipeline describes a CI pipeline run.
type Pipeline struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Ref       string `json:"ref"`
	Status    string `json:"status"`
}

// Application describes a deployable application and its sync state.
type Application struct {
	Name       string    `json:"name"`
	Revision   string    `json:"revision"`
	SyncStatus string    `json:"syncStatus"`
	SyncedAt   time.Time `json:"syncedAt"`
}

// New creates a cicd agent seeded with the supplied pipelines.
func New(pipelines ...Pipeline) *Service {
	return &Service{
		pipelines:    pipelines,
		applications: make(map[string]*Application),
	}
}

// Definition returns the agent definition.
func (s *Service) Definition() *agent.Definition {
	return &agent.Definition{
		ID:          Name,
		Name:        "CI/CD",
		Description: "Continuous integration and deployment operations.",
		Version:     "1.0",
		Actions: []agent.Action{
			{
				ID:          "list-pipelines",
				Title:       "List pipelines",
				Description: "Lists recent CI pipeline runs, optionally filtered by project.",
				RiskLevel:   agent.RiskLow,
				Input:       reflect.TypeOf(&ListPipelinesInput{}),
				Output:      reflect.TypeOf(&ListPipelinesOutput{}),
			},
			{
				ID:          "sync-application",
				Title:       "Sync application",
				Description: "Synchronises a deployed application to the requested revision.",
				RiskLevel:   agent.RiskHigh,
				Example:     map[string]interface{}{"application": "billing", "revision": "v1.4.2"},
				Input:       reflect.TypeOf(&SyncApplicationInput{}),
				Output:      reflect.TypeOf(&SyncApplicationOutput{}),
			},
		},
	}
}

// InitTypes contributes action IO types to the shared registry.
func (s *Service) InitTypes(registry *extension.Types) {
	registry.Register(x.NewType(reflect.TypeOf(ListPipelinesInput{})))
	registry.Register(x.NewType(reflect.TypeOf(ListPipelinesOutput{})))
	registry.Register(x.NewType(reflect.TypeOf(SyncApplicationInput{})))
	registry.Register(x.NewType(reflect.TypeOf(SyncApplicationOutput{})))
}

// Method returns the executable for the specified action.
func (s *Service) Method(actionID string) (types.Executable, error) {
	switch strings.ToLower(actionID) {
	case "list-pipelines":
		return s.listPipelines, nil
	case "sync-application":
		return s.syncApplication, nil
	default:
		return nil, types.NewActionNotFoundError(actionID)
	}
}

// ListPipelinesInput filters the pipeline listing.
type ListPipelinesInput struct {
	ProjectID string `json:"projectId,omitempty"`
}

// ListPipelinesOutput carries the matching pipelines.
type ListPipelinesOutput struct {
	Pipelines []Pipeline `json:"pipelines"`
}

func (s *Service) listPipelines(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ListPipelinesInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ListPipelinesOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	output.Pipelines = make([]Pipeline, 0, len(s.pipelines))
	for _, pipeline := range s.pipelines {
		if input.ProjectID != "" && pipeline.ProjectID != input.ProjectID {
			continue
		}
		output.Pipelines = append(output.Pipelines, pipeline)
	}
	return nil
}

// SyncApplicationInput identifies the application and target revision.
type SyncApplicationInput struct {
	Application string `json:"application"`
	Revision    string `json:"revision,omitempty"`
	Prune       bool   `json:"prune,omitempty"`
}

// SyncApplicationOutput reports the resulting sync state.
type SyncApplicationOutput struct {
	Application string    `json:"application"`
	Revision    string    `json:"revision"`
	SyncStatus  string    `json:"syncStatus"`
	SyncedAt    time.Time `json:"syncedAt"`
}

func (s *Service) syncApplication(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*SyncApplicationInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*SyncApplicationOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Application == "" {
		return fmt.Errorf("application is required")
	}
	revision := input.Revision
	if revision == "" {
		revision = "HEAD"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	app := &Application{
		Name:       input.Application,
		Revision:   revision,
		SyncStatus: "synced",
		SyncedAt:   clock.Now(),
	}
	s.applications[input.Application] = app
	output.Application = app.Name
	output.Revision = app.Revision
	output.SyncStatus = app.SyncStatus
	output.SyncedAt = app.SyncedAt
	return nil
}

var _ extension.Agent = (*Service)(nil)
