// Package hostbridge wires the forwarding table and the hostname mapping
// file together for a single invocation.
package hostbridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanet-platform/hostbridge/internal/allocator"
	"github.com/yanet-platform/hostbridge/internal/bridge"
	"github.com/yanet-platform/hostbridge/internal/hosts"
	"github.com/yanet-platform/hostbridge/internal/reconcile"
)

type options struct {
	Log          *zap.SugaredLogger
	Runner       bridge.Runner
	HostsBackend hosts.Backend
	Allocator    []allocator.Option
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// Option configures Open.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithRunner replaces the forwarding-table command.
func WithRunner(runner bridge.Runner) Option {
	return func(o *options) {
		o.Runner = runner
	}
}

// WithHostsBackend replaces the hosts file storage.
func WithHostsBackend(backend hosts.Backend) Option {
	return func(o *options) {
		o.HostsBackend = backend
	}
}

// WithAllocatorOptions passes options to the address allocator.
func WithAllocatorOptions(opts ...allocator.Option) Option {
	return func(o *options) {
		o.Allocator = append(o.Allocator, opts...)
	}
}

// Session holds the snapshots loaded for one invocation.
type Session struct {
	Bridges    *bridge.Table
	Hosts      *hosts.Registry
	Reconciler *reconcile.Reconciler
}

// Open loads both external resources and returns a Reconciler over them.
func Open(ctx context.Context, cfg *Config, opts ...Option) (*Session, error) {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.Log

	if o.Runner == nil {
		o.Runner = bridge.NewExecRunner(cfg.Bridge.Command, log.Named("exec"))
	}
	if o.HostsBackend == nil {
		o.HostsBackend = hosts.NewFileBackend(cfg.Hosts, log.Named("hosts"))
	}

	allocOpts := []allocator.Option{allocator.WithLog(log.Named("allocator"))}
	if cfg.Allocator.SkipInterfaceAddrs {
		allocOpts = append(allocOpts, allocator.WithReserved(allocator.InterfaceAddrs))
	}
	alloc, err := allocator.New(cfg.Allocator, append(allocOpts, o.Allocator...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize allocator: %w", err)
	}

	table := bridge.NewTable(cfg.Bridge, o.Runner, alloc, bridge.WithLog(log.Named("bridge")))
	if _, err := table.Load(ctx); err != nil {
		return nil, err
	}

	registry := hosts.NewRegistry(
		cfg.Hosts.Comment,
		o.HostsBackend,
		hosts.WithLog(log.Named("hosts")),
		hosts.WithDryRun(cfg.Hosts.DryRun),
	)
	if _, err := registry.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", cfg.Hosts.Path, err)
	}

	return &Session{
		Bridges:    table,
		Hosts:      registry,
		Reconciler: reconcile.New(table, registry, cfg.Bridge.ListenPort, reconcile.WithLog(log.Named("reconcile"))),
	}, nil
}
