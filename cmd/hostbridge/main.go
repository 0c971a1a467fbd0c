package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yanet-platform/hostbridge"
	"github.com/yanet-platform/hostbridge/common/go/logging"
	"github.com/yanet-platform/hostbridge/internal/demo"
	"github.com/yanet-platform/hostbridge/internal/privilege"
	"github.com/yanet-platform/hostbridge/internal/reconcile"
)

// Cmd is the command line arguments shared by every subcommand.
type Cmd struct {
	// ConfigPath is the optional path to the configuration file.
	ConfigPath string
	// HostsFile overrides hosts.path.
	HostsFile string
	// DryRun keeps hosts file changes in memory.
	DryRun bool
	// LogLevel overrides logging.level.
	LogLevel string
}

// app carries the state of one invocation.
type app struct {
	cmd  Cmd
	out  io.Writer
	log  *zap.SugaredLogger
	opts []hostbridge.Option

	checkWrite  func(path string) error
	newListener func(log *zap.SugaredLogger, out io.Writer) reconcile.Listener
}

func newApp(out io.Writer, opts ...hostbridge.Option) *app {
	return &app{
		out:        out,
		log:        zap.NewNop().Sugar(),
		opts:       opts,
		checkWrite: privilege.CheckWrite,
		newListener: func(log *zap.SugaredLogger, out io.Writer) reconcile.Listener {
			return demo.NewListener(demo.WithLog(log), demo.WithOutput(out))
		},
	}
}

func newRootCmd(m *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hostbridge",
		Short:         "Route hostnames to local ports through the hosts file and portproxy",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&m.cmd.ConfigPath, "config", "c", "", "Path to the configuration file")
	flags.StringVar(&m.cmd.HostsFile, "hosts-file", "", "Path to the hosts file, overrides hosts.path")
	flags.BoolVar(&m.cmd.DryRun, "dry-run", false, "Do not write the hosts file")
	flags.StringVar(&m.cmd.LogLevel, "log-level", "", "Logging level, overrides logging.level")

	rootCmd.AddCommand(newAddCmd(m))
	rootCmd.AddCommand(newRemoveCmd(m))
	rootCmd.AddCommand(newListCmd(m))
	rootCmd.AddCommand(newTestCmd(m))

	return rootCmd
}

func main() {
	m := newApp(os.Stdout)
	defer func() { _ = m.log.Sync() }()

	if err := newRootCmd(m).Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

// config loads the configuration file, when given, and applies the flag
// overrides.
func (m *app) config() (*hostbridge.Config, error) {
	cfg := hostbridge.DefaultConfig()
	if m.cmd.ConfigPath != "" {
		var err error
		if cfg, err = hostbridge.LoadConfig(m.cmd.ConfigPath); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if m.cmd.HostsFile != "" {
		cfg.Hosts.Path = m.cmd.HostsFile
	}
	if m.cmd.DryRun {
		cfg.Hosts.DryRun = true
	}
	if m.cmd.LogLevel != "" {
		level, err := zapcore.ParseLevel(m.cmd.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		cfg.Logging.Level = level
	}

	return cfg, nil
}

// open loads the configuration and both snapshots. Mutating commands pass
// write=true and are refused without write access to the hosts file.
func (m *app) open(ctx context.Context, write bool) (*hostbridge.Session, error) {
	cfg, err := m.config()
	if err != nil {
		return nil, err
	}

	log, _, err := logging.Init(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	m.log = log

	if write && !cfg.Hosts.DryRun {
		if err := m.checkWrite(cfg.Hosts.Path); err != nil {
			return nil, err
		}
	}

	opts := append([]hostbridge.Option{hostbridge.WithLog(log)}, m.opts...)
	return hostbridge.Open(ctx, cfg, opts...)
}

// handle turns the benign error kinds into user messages.
func (m *app) handle(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, privilege.ErrPermissionDenied):
		m.log.Debugw("permission denied", zap.Error(err))
		fmt.Fprintln(m.out, "Please run as Administrator.")
		return nil
	case errors.Is(err, reconcile.ErrNotFound):
		fmt.Fprintf(m.out, "Nothing found: %v\n", err)
		return nil
	default:
		return err
	}
}
