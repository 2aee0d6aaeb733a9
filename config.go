package warden

import (
	"fmt"
	"time"

	"github.com/viant/warden/service/store/fs"
	"github.com/viant/warden/service/store/memory"
	"github.com/viant/warden/service/store/nop"
)

// Store vendors selectable via configuration.
const (
	StoreVendorMemory = "memory"
	StoreVendorFs     = "fs"
	StoreVendorNop    = "nop"
)

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON, YAML, environment variables, etc. The
// zero-value is useful; all nested fields inherit their package defaults.
type Config struct {
	Store          StoreConfig    `json:"store" yaml:"store"`
	Approval       ApprovalConfig `json:"approval" yaml:"approval"`
	ProxyAgentsURL string         `json:"proxyAgentsURL,omitempty" yaml:"proxyAgentsURL,omitempty"`
	Tracing        TracingConfig  `json:"tracing" yaml:"tracing"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// ApprovalConfig controls pending-ticket expiry. A zero TTL disables the
// sweeper.
type ApprovalConfig struct {
	TTL           time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
	SweepInterval time.Duration `json:"sweepInterval,omitempty" yaml:"sweepInterval,omitempty"`
}

// TracingConfig controls OpenTelemetry initialisation.
type TracingConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	OutputFile string `json:"outputFile,omitempty" yaml:"outputFile,omitempty"`
}

// DefaultConfig returns a Config populated with the same defaults the
// constructors apply. Callers may modify the returned struct before passing
// it to NewFromConfig.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{Vendor: StoreVendorMemory},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	switch c.Store.Vendor {
	case "", StoreVendorMemory, StoreVendorNop:
	case StoreVendorFs:
		if c.Store.BaseURL == "" {
			return fmt.Errorf("store.baseURL is required for the fs vendor")
		}
	default:
		return fmt.Errorf("unsupported store vendor %q", c.Store.Vendor)
	}
	if c.Approval.TTL < 0 {
		return fmt.Errorf("approval.ttl must be >= 0")
	}
	return nil
}

// NewFromConfig builds a service from serialisable configuration; explicit
// options take precedence over config-derived ones.
func NewFromConfig(config *Config, options ...Option) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	derived := []Option{}
	switch config.Store.Vendor {
	case StoreVendorFs:
		derived = append(derived, WithStore(fs.New(config.Store.BaseURL)))
	case StoreVendorNop:
		derived = append(derived, WithStore(nop.New()))
	case "", StoreVendorMemory:
		derived = append(derived, WithStore(memory.New()))
	}
	if config.ProxyAgentsURL != "" {
		derived = append(derived, WithProxyAgentsURL(config.ProxyAgentsURL))
	}
	if config.Tracing.Enabled {
		derived = append(derived, WithTracing("warden", "1.0.0", config.Tracing.OutputFile))
	}
	return New(append(derived, options...)...)
}
