package hostbridge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/hostbridge/common/go/logging"
	"github.com/yanet-platform/hostbridge/internal/allocator"
	"github.com/yanet-platform/hostbridge/internal/bridge"
	"github.com/yanet-platform/hostbridge/internal/hosts"
)

// Config represents the hostbridge configuration.
type Config struct {
	// Logging configuration.
	Logging logging.Config `yaml:"logging"`
	// Hosts configures the hostname mapping file.
	Hosts *hosts.Config `yaml:"hosts"`
	// Bridge configures the forwarding table.
	Bridge *bridge.Config `yaml:"bridge"`
	// Allocator configures the listen address pool.
	Allocator *allocator.Config `yaml:"allocator"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Logging:   logging.DefaultConfig(),
		Hosts:     hosts.DefaultConfig(),
		Bridge:    bridge.DefaultConfig(),
		Allocator: allocator.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file at the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every section.
func (m *Config) Validate() error {
	if m.Hosts == nil || m.Bridge == nil || m.Allocator == nil {
		return fmt.Errorf("hosts, bridge and allocator sections must not be null")
	}
	if err := m.Hosts.Validate(); err != nil {
		return err
	}
	if err := m.Bridge.Validate(); err != nil {
		return err
	}
	return m.Allocator.Validate()
}
