package allocator

import (
	"errors"
	"fmt"
	"net/netip"
)

// Config describes the address pool.
type Config struct {
	// Prefix is the pool listen addresses are drawn from.
	Prefix netip.Prefix `yaml:"prefix"`
	// Exclude lists blocks inside Prefix that are never allocated.
	Exclude []netip.Prefix `yaml:"exclude"`
	// MaxAttempts bounds the number of random candidates tried per
	// allocation.
	MaxAttempts int `yaml:"max_attempts"`
	// SkipInterfaceAddrs also avoids addresses assigned to local network
	// interfaces, where the platform supports listing them.
	SkipInterfaceAddrs bool `yaml:"skip_interface_addrs"`
}

// DefaultConfig returns the default pool: 127.0.0.0/8 without the
// conventional 127.0.0.0/24 localhost block.
func DefaultConfig() *Config {
	return &Config{
		Prefix:             netip.MustParsePrefix("127.0.0.0/8"),
		Exclude:            []netip.Prefix{netip.MustParsePrefix("127.0.0.0/24")},
		MaxAttempts:        4096,
		SkipInterfaceAddrs: true,
	}
}

// Validate checks the configuration.
func (m *Config) Validate() error {
	if !m.Prefix.IsValid() || !m.Prefix.Addr().Is4() {
		return fmt.Errorf("allocator prefix %q must be an IPv4 prefix", m.Prefix)
	}
	for _, prefix := range m.Exclude {
		if !prefix.IsValid() || !prefix.Addr().Is4() {
			return fmt.Errorf("allocator exclude %q must be an IPv4 prefix", prefix)
		}
	}
	if m.MaxAttempts <= 0 {
		return errors.New("allocator max_attempts must be positive")
	}

	return nil
}
