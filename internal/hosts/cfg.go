package hosts

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/c2h5oh/datasize"
)

// DefaultComment marks lines written by hostbridge.
const DefaultComment = "Do NOT Remove. Added Automatically by hostbridge"

// Config configures the mapping file.
type Config struct {
	// Path is the hosts file.
	Path string `yaml:"path"`
	// Comment is appended to every line hostbridge writes.
	Comment string `yaml:"comment"`
	// MaxSize is the largest file that will be loaded.
	MaxSize datasize.ByteSize `yaml:"max_size"`
	// DryRun keeps all changes in memory, the file is only read.
	DryRun bool `yaml:"dry_run"`
	// WriteRetry bounds retries of failed writes, e.g. when another
	// process holds the file open.
	WriteRetry RetryConfig `yaml:"write_retry"`
}

// RetryConfig describes a bounded exponential backoff.
type RetryConfig struct {
	// MaxTries is the total number of attempts, 1 disables retries.
	MaxTries uint `yaml:"max_tries"`
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration `yaml:"initial_interval"`
	// MaxInterval caps the delay between two attempts.
	MaxInterval time.Duration `yaml:"max_interval"`
}

// DefaultConfig returns the default configuration for the running OS.
func DefaultConfig() *Config {
	return &Config{
		Path:    DefaultPath(),
		Comment: DefaultComment,
		MaxSize: 4 * datasize.MB,
		WriteRetry: RetryConfig{
			MaxTries:        5,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     time.Second,
		},
	}
}

// DefaultPath returns the system hosts file.
func DefaultPath() string {
	if runtime.GOOS == "windows" {
		root := os.Getenv("SystemRoot")
		if root == "" {
			root = `C:\Windows`
		}
		return filepath.Join(root, "System32", "drivers", "etc", "hosts")
	}
	return "/etc/hosts"
}

// Validate checks the configuration.
func (m *Config) Validate() error {
	if m.Path == "" {
		return errors.New("hosts path must not be empty")
	}
	if m.MaxSize == 0 {
		return errors.New("hosts max_size must be positive")
	}
	if m.WriteRetry.MaxTries == 0 {
		return errors.New("hosts write_retry.max_tries must be positive")
	}

	return nil
}
