package bridge

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"
)

// ErrAlreadyBridged is returned by Create when the connect endpoint is
// already served by a bridge.
var ErrAlreadyBridged = errors.New("endpoint is already bridged")

// Allocator picks a listen address not present in existing.
type Allocator interface {
	Allocate(existing mapset.Set[netip.Addr]) (netip.Addr, error)
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// TableOption configures the Table.
type TableOption func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) TableOption {
	return func(o *options) {
		o.Log = log
	}
}

// Table is the in-memory snapshot of the forwarding table.
//
// Every mutation is applied to the OS first and to memory only after the
// command succeeded.
type Table struct {
	cfg     *Config
	runner  Runner
	alloc   Allocator
	bridges []Bridge
	log     *zap.SugaredLogger
}

// NewTable constructs an empty table. Call Load to read the current rules.
func NewTable(cfg *Config, runner Runner, alloc Allocator, opts ...TableOption) *Table {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Table{
		cfg:    cfg,
		runner: runner,
		alloc:  alloc,
		log:    o.Log,
	}
}

// Load replaces the snapshot with the rules reported by the command.
func (m *Table) Load(ctx context.Context) ([]Bridge, error) {
	out, err := m.runner.Run(ctx, showArgs(m.cfg.Proxy)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list forwarding rules: %w", err)
	}

	bridges, err := ParseTable(out)
	if err != nil {
		return nil, fmt.Errorf("failed to parse forwarding rules: %w", err)
	}

	m.bridges = bridges
	m.log.Debugw("loaded forwarding table", zap.Int("bridges", len(bridges)))

	return m.Bridges(), nil
}

// Bridges returns a copy of the snapshot in table order.
func (m *Table) Bridges() []Bridge {
	return slices.Clone(m.bridges)
}

// FindByEndpoint returns the bridge whose listen or connect side equals c.
func (m *Table) FindByEndpoint(c netip.AddrPort) (Bridge, bool) {
	idx := m.index(c)
	if idx < 0 {
		return Bridge{}, false
	}
	return m.bridges[idx], true
}

// Create allocates a listen address and adds a rule relaying it to
// connectTo.
func (m *Table) Create(ctx context.Context, connectTo netip.AddrPort) (Bridge, error) {
	if m.index(connectTo) >= 0 {
		return Bridge{}, fmt.Errorf("failed to create bridge for %s: %w", connectTo, ErrAlreadyBridged)
	}

	addr, err := m.alloc.Allocate(m.listenAddrs())
	if err != nil {
		return Bridge{}, fmt.Errorf("failed to allocate listen address for %s: %w", connectTo, err)
	}

	bridge := Bridge{
		ListenTo:  netip.AddrPortFrom(addr, m.cfg.ListenPort),
		ConnectTo: connectTo,
	}
	if _, err := m.runner.Run(ctx, addArgs(m.cfg.Proxy, bridge)...); err != nil {
		return Bridge{}, fmt.Errorf("failed to add forwarding rule %s: %w", bridge, err)
	}

	m.bridges = append(m.bridges, bridge)
	m.log.Infow("created bridge",
		zap.Stringer("listen", bridge.ListenTo),
		zap.Stringer("connect", bridge.ConnectTo),
	)

	return bridge, nil
}

// Delete removes the bridge serving endpoint on either side.
//
// Returns false when nothing matched.
func (m *Table) Delete(ctx context.Context, endpoint netip.AddrPort) (Bridge, bool, error) {
	idx := m.index(endpoint)
	if idx < 0 {
		return Bridge{}, false, nil
	}

	bridge := m.bridges[idx]
	if _, err := m.runner.Run(ctx, deleteArgs(m.cfg.Proxy, bridge.ListenTo)...); err != nil {
		return Bridge{}, false, fmt.Errorf("failed to delete forwarding rule %s: %w", bridge, err)
	}

	m.bridges = slices.Delete(m.bridges, idx, idx+1)
	m.log.Infow("deleted bridge",
		zap.Stringer("listen", bridge.ListenTo),
		zap.Stringer("connect", bridge.ConnectTo),
	)

	return bridge, true, nil
}

// GetOrCreate returns the bridge serving connectTo, creating it when
// missing. The flag reports whether a new bridge was created.
func (m *Table) GetOrCreate(ctx context.Context, connectTo netip.AddrPort) (Bridge, bool, error) {
	if bridge, ok := m.FindByEndpoint(connectTo); ok {
		return bridge, false, nil
	}

	bridge, err := m.Create(ctx, connectTo)
	if err != nil {
		return Bridge{}, false, err
	}

	return bridge, true, nil
}

func (m *Table) index(endpoint netip.AddrPort) int {
	return slices.IndexFunc(m.bridges, func(b Bridge) bool {
		return b.Serves(endpoint)
	})
}

func (m *Table) listenAddrs() mapset.Set[netip.Addr] {
	addrs := mapset.NewThreadUnsafeSetWithSize[netip.Addr](len(m.bridges))
	for _, b := range m.bridges {
		addrs.Add(b.ListenTo.Addr())
	}
	return addrs
}
