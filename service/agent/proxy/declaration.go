package proxy

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/warden/model/agent"
)

// Declaration describes a remote agent loaded from configuration. Each action
// names the endpoint its requests are forwarded to.
type Declaration struct {
	ID          string              `yaml:"id" json:"id"`
	Name        string              `yaml:"name,omitempty" json:"name,omitempty"`
	Description string              `yaml:"description,omitempty" json:"description,omitempty"`
	Version     string              `yaml:"version,omitempty" json:"version,omitempty"`
	Endpoint    string              `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Headers     map[string]string   `yaml:"headers,omitempty" json:"headers,omitempty"`
	Actions     []ActionDeclaration `yaml:"actions" json:"actions"`
}

// ActionDeclaration describes a single remote action.
type ActionDeclaration struct {
	ID          string                 `yaml:"id" json:"id"`
	Title       string                 `yaml:"title,omitempty" json:"title,omitempty"`
	Description string                 `yaml:"description,omitempty" json:"description,omitempty"`
	RiskLevel   string                 `yaml:"riskLevel" json:"riskLevel"`
	Endpoint    string                 `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Example     map[string]interface{} `yaml:"example,omitempty" json:"example,omitempty"`
}

// Document is the top-level shape of a proxy configuration file.
type Document struct {
	Agents []Declaration `yaml:"agents" json:"agents"`
}

// Validate checks a declaration is complete enough to register.
func (d *Declaration) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("proxy agent declaration missing id")
	}
	if len(d.Actions) == 0 {
		return fmt.Errorf("proxy agent %v declares no actions", d.ID)
	}
	for _, action := range d.Actions {
		if action.ID == "" {
			return fmt.Errorf("proxy agent %v declares an action with empty id", d.ID)
		}
		if !agent.RiskLevel(action.RiskLevel).IsValid() {
			return fmt.Errorf("proxy agent %v action %v has invalid risk level %q", d.ID, action.ID, action.RiskLevel)
		}
		if action.Endpoint == "" && d.Endpoint == "" {
			return fmt.Errorf("proxy agent %v action %v has no endpoint", d.ID, action.ID)
		}
	}
	return nil
}

// endpoint resolves the effective endpoint for an action.
func (d *Declaration) endpoint(action *ActionDeclaration) string {
	if action.Endpoint != "" {
		return action.Endpoint
	}
	return d.Endpoint
}

// Load reads proxy agent declarations from the supplied URL (any scheme the
// virtual file system supports).
func Load(ctx context.Context, URL string) ([]Declaration, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load proxy agents from %v: %w", URL, err)
	}
	return Parse(data)
}

// Parse decodes proxy agent declarations from YAML (or JSON, which YAML
// subsumes).
func Parse(data []byte) ([]Declaration, error) {
	document := &Document{}
	if err := yaml.Unmarshal(data, document); err != nil {
		return nil, fmt.Errorf("failed to parse proxy agent declarations: %w", err)
	}
	for i := range document.Agents {
		if err := document.Agents[i].Validate(); err != nil {
			return nil, err
		}
	}
	return document.Agents, nil
}
