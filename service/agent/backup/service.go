package backup

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
	"github.com/viant/warden/internal/idgen"
	"github.com/viant/warden/model/agent"
	"github.com/viant/warden/model/types"
)

// Name of the agent as exposed by the registry.
const Name = "backup"

// Run records a single backup execution.
type Run struct {
	ID        string    `json:"id"`
	Target    string    `json:"target"`
	SizeBytes int64     `json:"sizeBytes"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Service exposes backup operations. Creating a backup is high risk (it can
// saturate IO on the target and triggers retention rotation) while listing
// past runs is read-only. Successful create responses carry the run id under
// the backupRunId key so the orchestrator can link it to the owning task.
type Service struct {
	mu   sync.Mutex
	runs []Run
}

// New creates a backup agent.
func New() *Service {
	return &Service{}
}

// Definition returns the agent definition.
func (s *Service) Definition() *agent.Definition {
	return &agent.Definition{
		ID:          Name,
		Name:        "Backup",
		Description: "Creates and lists backup runs.",
		Version:     "1.0",
		Actions: []agent.Action{
			{
				ID:          "create-backup",
				Title:       "Create backup",
				Description: "Starts a backup run for the specified target.",
				RiskLevel:   agent.RiskHigh,
				Example:     map[string]interface{}{"target": "db/orders"},
				Input:       reflect.TypeOf(&CreateInput{}),
				Output:      reflect.TypeOf(&CreateOutput{}),
			},
			{
				ID:          "list-backups",
				Title:       "List backups",
				Description: "Lists completed backup runs, newest first.",
				RiskLevel:   agent.RiskLow,
				Input:       reflect.TypeOf(&ListInput{}),
				Output:      reflect.TypeOf(&ListOutput{}),
			},
		},
	}
}

// InitTypes contributes action IO types to the shared registry.
func (s *Service) InitTypes(registry *extension.Types) {
	registry.Register(x.NewType(reflect.TypeOf(CreateInput{})))
	registry.Register(x.NewType(reflect.TypeOf(CreateOutput{})))
	registry.Register(x.NewType(reflect.TypeOf(ListInput{})))
	registry.Register(x.NewType(reflect.TypeOf(ListOutput{})))
}

// Method returns the executable for the specified action.
func (s *Service) Method(actionID string) (types.Executable, error) {
	switch strings.ToLower(actionID) {
	case "create-backup":
		return s.create, nil
	case "list-backups":
		return s.list, nil
	default:
		return nil, types.NewActionNotFoundError(actionID)
	}
}

// CreateInput identifies the backup target.
type CreateInput struct {
	Target string `json:"target"`
}

// CreateOutput reports the created run. BackupRunID is serialized as
// backupRunId, the key the orchestrator inspects for side-effect linking.
type CreateOutput struct {
	BackupRunID string    `json:"backupRunId"`
	Target      string    `json:"target"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (s *Service) create(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*CreateInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*CreateOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	if input.Target == "" {
		return fmt.Errorf("target is required")
	}
	run := Run{
		ID:        idgen.New(),
		Target:    input.Target,
		Status:    "completed",
		CreatedAt: clock.Now(),
	}
	s.mu.Lock()
	s.runs = append(s.runs, run)
	s.mu.Unlock()
	output.BackupRunID = run.ID
	output.Target = run.Target
	output.Status = run.Status
	output.CreatedAt = run.CreatedAt
	return nil
}

// ListInput filters the run listing.
type ListInput struct {
	Target string `json:"target,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ListOutput carries the matching runs.
type ListOutput struct {
	Runs []Run `json:"runs"`
}

func (s *Service) list(ctx context.Context, in, out interface{}) error {
	input, ok := in.(*ListInput)
	if !ok {
		return types.NewInvalidInputError(in)
	}
	output, ok := out.(*ListOutput)
	if !ok {
		return types.NewInvalidOutputError(out)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	output.Runs = make([]Run, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		run := s.runs[i]
		if input.Target != "" && run.Target != input.Target {
			continue
		}
		output.Runs = append(output.Runs, run)
		if input.Limit > 0 && len(output.Runs) >= input.Limit {
			break
		}
	}
	return nil
}

var _ extension.Agent = (*Service)(nil)
