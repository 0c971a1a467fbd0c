package hosts

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/c2h5oh/datasize"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ErrTooLarge is returned when the mapping file exceeds the configured
// size limit.
var ErrTooLarge = errors.New("hosts file is too large")

// Backend stores the raw mapping file.
type Backend interface {
	// Read returns the whole file.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the whole file.
	Write(ctx context.Context, data []byte) error
}

// FileBackend keeps the mapping file on disk.
type FileBackend struct {
	path    string
	maxSize datasize.ByteSize
	retry   RetryConfig
	log     *zap.SugaredLogger
}

// NewFileBackend constructs a backend for the file described by cfg.
func NewFileBackend(cfg *Config, log *zap.SugaredLogger) *FileBackend {
	return &FileBackend{
		path:    cfg.Path,
		maxSize: cfg.MaxSize,
		retry:   cfg.WriteRetry,
		log:     log,
	}
}

// Read implements Backend.
func (m *FileBackend) Read(_ context.Context) ([]byte, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat hosts file: %w", err)
	}
	if size := datasize.ByteSize(info.Size()); size > m.maxSize {
		return nil, fmt.Errorf("%s is %s, limit is %s: %w",
			m.path, size.HR(), m.maxSize.HR(), ErrTooLarge)
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hosts file: %w", err)
	}

	return data, nil
}

// Write implements Backend.
//
// The file is rewritten in place to keep its ownership and ACLs. Transient
// failures are retried with exponential backoff; permission errors are not.
func (m *FileBackend) Write(ctx context.Context, data []byte) error {
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(m.path); err == nil {
		mode = info.Mode().Perm()
	}

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := os.WriteFile(m.path, data, mode)
		switch {
		case err == nil:
			return struct{}{}, nil
		case errors.Is(err, fs.ErrPermission), errors.Is(err, fs.ErrNotExist):
			return struct{}{}, backoff.Permanent(err)
		default:
			m.log.Warnw("failed to write hosts file, retrying",
				zap.String("path", m.path),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return struct{}{}, err
		}
	},
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     m.retry.InitialInterval,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         m.retry.MaxInterval,
		}),
		backoff.WithMaxTries(m.retry.MaxTries),
	)
	if err != nil {
		return fmt.Errorf("failed to write hosts file: %w", err)
	}

	return nil
}
