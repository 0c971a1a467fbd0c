// Package reconcile implements the hostbridge use cases on top of the
// forwarding table and the mapping file, keeping the two consistent.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
	"github.com/yanet-platform/hostbridge/common/go/xnetip"
	"github.com/yanet-platform/hostbridge/internal/bridge"
	"github.com/yanet-platform/hostbridge/internal/hosts"
)

// ErrNotFound is returned when remove or test resolve nothing.
var ErrNotFound = errors.New("not found")

// BridgeStore is the forwarding table as seen by the Reconciler.
type BridgeStore interface {
	Bridges() []bridge.Bridge
	FindByEndpoint(c netip.AddrPort) (bridge.Bridge, bool)
	GetOrCreate(ctx context.Context, connectTo netip.AddrPort) (bridge.Bridge, bool, error)
	Delete(ctx context.Context, endpoint netip.AddrPort) (bridge.Bridge, bool, error)
}

// HostStore is the mapping file as seen by the Reconciler.
type HostStore interface {
	FindByHost(host string) (hosts.Entry, bool)
	FindByAddress(addr netip.Addr) []hosts.Entry
	CountByAddress(addr netip.Addr) int
	Insert(ctx context.Context, addr netip.Addr, host string) error
	Delete(ctx context.Context, sel hosts.Selector) ([]hosts.Entry, error)
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// Option configures the Reconciler.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// Reconciler runs one operation against both stores.
type Reconciler struct {
	bridges    BridgeStore
	hosts      HostStore
	listenPort uint16
	log        *zap.SugaredLogger
}

// New constructs a Reconciler. listenPort is the port every bridge listens
// on, used to find the bridge behind a mapping entry.
func New(bridges BridgeStore, hosts HostStore, listenPort uint16, opts ...Option) *Reconciler {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Reconciler{
		bridges:    bridges,
		hosts:      hosts,
		listenPort: listenPort,
		log:        o.Log,
	}
}

// AddResult describes the outcome of Add.
type AddResult struct {
	// ConnectTo is the parsed connect endpoint.
	ConnectTo netip.AddrPort
	// Host is the normalized hostname.
	Host string
	// Bridge serves ConnectTo.
	Bridge bridge.Bridge
	// Created is set when the bridge did not exist before.
	Created bool
	// Exists is set when nothing was changed because the bridge and the
	// hostname were already known.
	Exists bool
}

// Add routes host to connectText ("addr:port").
//
// The bridge for the connect endpoint is reused or created, then a mapping
// entry pointing to its listen address is inserted. When the insert fails
// a bridge created by this call is deleted again before the error is
// returned.
func (m *Reconciler) Add(ctx context.Context, connectText string, host string) (*AddResult, error) {
	connectTo, err := xnetip.ParseConnection(connectText)
	if err != nil {
		return nil, err
	}
	host, err = hosts.NormalizeHost(host)
	if err != nil {
		return nil, err
	}

	b, created, err := m.bridges.GetOrCreate(ctx, connectTo)
	if err != nil {
		return nil, err
	}

	result := &AddResult{
		ConnectTo: connectTo,
		Host:      host,
		Bridge:    b,
		Created:   created,
	}

	if !created {
		if _, ok := m.hosts.FindByHost(host); ok {
			result.Exists = true
			return result, nil
		}
	}

	if err := m.hosts.Insert(ctx, b.ListenTo.Addr(), host); err != nil {
		if created {
			err = m.compensate(ctx, connectTo, err)
		}
		return nil, err
	}

	return result, nil
}

// compensate deletes the bridge created for connectTo after the mapping
// insert failed with cause.
func (m *Reconciler) compensate(ctx context.Context, connectTo netip.AddrPort, cause error) error {
	m.log.Warnw("hosts insert failed, deleting the new bridge",
		zap.Stringer("connect", connectTo),
		zap.Error(cause),
	)

	if _, _, err := m.bridges.Delete(ctx, connectTo); err != nil {
		return multierror.Append(
			fmt.Errorf("failed to add hosts entry: %w", cause),
			fmt.Errorf("failed to delete bridge for %s, it is orphaned: %w", connectTo, err),
		)
	}

	return fmt.Errorf("failed to add hosts entry: %w", cause)
}

// RemoveResult describes the outcome of Remove.
type RemoveResult struct {
	// Entries are the mapping entries removed.
	Entries []hosts.Entry
	// Bridges are the bridges removed.
	Bridges []bridge.Bridge
}

// Remove deletes by connection ("addr:port") or by hostname.
//
// By connection, every entry of the resolved bridge and the bridge itself
// are removed. By hostname, an exact match removes that host only, anything
// else removes every host containing target. A bridge is then removed only
// when no entry references its listen address anymore.
func (m *Reconciler) Remove(ctx context.Context, target string) (*RemoveResult, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	if isConnection(target) {
		return m.removeByConnection(ctx, target)
	}
	return m.removeByHost(ctx, target)
}

func (m *Reconciler) removeByConnection(ctx context.Context, target string) (*RemoveResult, error) {
	endpoint, err := xnetip.ParseConnection(target)
	if err != nil {
		return nil, err
	}

	b, ok := m.bridges.FindByEndpoint(endpoint)
	if !ok {
		return nil, fmt.Errorf("no bridge for %s: %w", endpoint, ErrNotFound)
	}

	entries, err := m.hosts.Delete(ctx, hosts.ByAddress(b.ListenTo.Addr()))
	if err != nil {
		return nil, err
	}

	result := &RemoveResult{Entries: entries}
	for _, entry := range entries {
		removed, ok, err := m.bridges.Delete(ctx, m.listenEndpoint(entry.Addr))
		if err != nil {
			return nil, err
		}
		if ok {
			result.Bridges = append(result.Bridges, removed)
		}
	}

	// An orphan bridge has no entries to walk through.
	if len(result.Bridges) == 0 {
		removed, ok, err := m.bridges.Delete(ctx, b.ListenTo)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Bridges = append(result.Bridges, removed)
		}
	}

	return result, nil
}

func (m *Reconciler) removeByHost(ctx context.Context, target string) (*RemoveResult, error) {
	entries, err := m.hosts.Delete(ctx, m.hostSelector(target))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no host matching %q: %w", target, ErrNotFound)
	}

	result := &RemoveResult{Entries: entries}
	for _, entry := range entries {
		b, ok := m.bridges.FindByEndpoint(m.listenEndpoint(entry.Addr))
		if !ok {
			continue
		}
		if n := m.hosts.CountByAddress(b.ListenTo.Addr()); n > 0 {
			m.log.Debugw("bridge is still referenced",
				zap.Stringer("bridge", b),
				zap.Int("entries", n),
			)
			continue
		}

		removed, ok, err := m.bridges.Delete(ctx, b.ListenTo)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Bridges = append(result.Bridges, removed)
		}
	}

	return result, nil
}

// Route is a bridge together with the mapping entries pointing to it.
type Route struct {
	Bridge  bridge.Bridge
	Entries []hosts.Entry
}

// List returns every bridge in table order with its entries.
func (m *Reconciler) List() []Route {
	bridges := m.bridges.Bridges()

	routes := make([]Route, 0, len(bridges))
	for _, b := range bridges {
		routes = append(routes, Route{
			Bridge:  b,
			Entries: m.hosts.FindByAddress(b.ListenTo.Addr()),
		})
	}
	return routes
}

// Resolve finds the route a test listener should serve.
//
// By connection, all entries of the bridge are returned. By hostname, the
// entry with exactly that name and its bridge.
func (m *Reconciler) Resolve(target string) (*Route, error) {
	if err := checkTarget(target); err != nil {
		return nil, err
	}
	if isConnection(target) {
		endpoint, err := xnetip.ParseConnection(target)
		if err != nil {
			return nil, err
		}

		b, ok := m.bridges.FindByEndpoint(endpoint)
		if !ok {
			return nil, fmt.Errorf("no bridge for %s: %w", endpoint, ErrNotFound)
		}

		entries := m.hosts.FindByAddress(b.ListenTo.Addr())
		if len(entries) == 0 {
			return nil, fmt.Errorf("no host for %s: %w", endpoint, ErrNotFound)
		}

		return &Route{Bridge: b, Entries: entries}, nil
	}

	entry, ok := m.hosts.FindByHost(target)
	if !ok {
		return nil, fmt.Errorf("no host %q: %w", target, ErrNotFound)
	}

	b, ok := m.bridges.FindByEndpoint(m.listenEndpoint(entry.Addr))
	if !ok {
		return nil, fmt.Errorf("no bridge for host %q: %w", target, ErrNotFound)
	}

	return &Route{Bridge: b, Entries: []hosts.Entry{entry}}, nil
}

// Listener serves a resolved route for manual verification.
type Listener interface {
	Serve(ctx context.Context, route Route) error
}

// Test resolves target like Resolve and hands the route to the listener,
// blocking until it returns.
func (m *Reconciler) Test(ctx context.Context, target string, listener Listener) error {
	route, err := m.Resolve(target)
	if err != nil {
		return err
	}

	m.log.Infow("starting test listener",
		zap.Stringer("connect", route.Bridge.ConnectTo),
		zap.Int("hosts", len(route.Entries)),
	)
	return listener.Serve(ctx, *route)
}

// hostSelector matches target exactly when such a host exists, otherwise
// as a substring of hostnames.
func (m *Reconciler) hostSelector(target string) hosts.Selector {
	if _, ok := m.hosts.FindByHost(target); ok {
		return hosts.ByHost(target)
	}
	return hosts.ByHostContains(target)
}

func (m *Reconciler) listenEndpoint(addr netip.Addr) netip.AddrPort {
	return netip.AddrPortFrom(addr, m.listenPort)
}

// checkTarget rejects a blank target, which as a substring would match
// every hostname.
func checkTarget(target string) error {
	if strings.TrimSpace(target) == "" {
		return &xerror.ParseError{What: "host", Input: target, Err: errors.New("empty")}
	}
	return nil
}

func isConnection(target string) bool {
	return strings.Contains(target, ":")
}
