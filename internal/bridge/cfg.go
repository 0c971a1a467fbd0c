package bridge

import "errors"

// Config configures the forwarding-table command.
type Config struct {
	// Command is the forwarding-table tool, looked up in PATH when not
	// absolute.
	Command string `yaml:"command"`
	// Proxy is the portproxy table the rules live in.
	Proxy string `yaml:"proxy"`
	// ListenPort is the port every bridge listens on.
	ListenPort uint16 `yaml:"listen_port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Command:    "netsh",
		Proxy:      "v4tov4",
		ListenPort: 80,
	}
}

// Validate checks the configuration.
func (m *Config) Validate() error {
	if m.Command == "" {
		return errors.New("bridge command must not be empty")
	}
	if m.Proxy == "" {
		return errors.New("bridge proxy must not be empty")
	}
	if m.ListenPort == 0 {
		return errors.New("bridge listen_port must be positive")
	}

	return nil
}
