package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Runner executes the forwarding-table command with the given arguments and
// returns its standard output.
//
// A non-zero exit status must be reported as *CommandError.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CommandError reports a forwarding-table command that exited with a
// non-zero status.
type CommandError struct {
	// Args are the arguments the command was started with.
	Args []string
	// ExitCode is the exit status.
	ExitCode int
	// Output is whatever the command printed, trimmed.
	Output string
}

func (m *CommandError) Error() string {
	msg := fmt.Sprintf("command %q exited with status %d", strings.Join(m.Args, " "), m.ExitCode)
	if m.Output != "" {
		msg += ": " + m.Output
	}
	return msg
}

// ExecRunner runs the command as a subprocess and blocks until it exits.
type ExecRunner struct {
	path string
	log  *zap.SugaredLogger
}

// NewExecRunner constructs a runner for the given executable.
func NewExecRunner(path string, log *zap.SugaredLogger) *ExecRunner {
	return &ExecRunner{
		path: path,
		log:  log,
	}
}

// Run implements Runner.
func (m *ExecRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, m.path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	m.log.Debugw("exec", zap.String("path", m.path), zap.Strings("args", args))

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// netsh reports its errors on stdout.
			output := strings.TrimSpace(stderr.String())
			if output == "" {
				output = strings.TrimSpace(stdout.String())
			}
			return nil, &CommandError{
				Args:     append([]string{m.path}, args...),
				ExitCode: exitErr.ExitCode(),
				Output:   output,
			}
		}
		return nil, fmt.Errorf("failed to run %s: %w", m.path, err)
	}

	return stdout.Bytes(), nil
}
