// Package allocator picks synthetic loopback listen addresses for new
// bridges.
package allocator

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/netip"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/zap"

	"github.com/yanet-platform/hostbridge/common/go/xnetip"
)

// ErrAddressSpaceExhausted is returned when no free address was found
// within the configured number of attempts.
var ErrAddressSpaceExhausted = errors.New("address space exhausted")

// ReservedFunc reports addresses that must not be allocated in addition to
// the ones already used by bridges.
type ReservedFunc func() ([]netip.Addr, error)

type options struct {
	Log      *zap.SugaredLogger
	Rand     *rand.Rand
	Reserved ReservedFunc
}

func newOptions() *options {
	return &options{
		Log:  zap.NewNop().Sugar(),
		Rand: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// Option configures the Allocator.
type Option func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) Option {
	return func(o *options) {
		o.Log = log
	}
}

// WithRand sets the random source, mostly useful for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.Rand = r
	}
}

// WithReserved sets a source of additional addresses to avoid.
func WithReserved(fn ReservedFunc) Option {
	return func(o *options) {
		o.Reserved = fn
	}
}

// Allocator produces random addresses inside a prefix by rejection
// sampling, with a hard cap on the number of candidates tried.
type Allocator struct {
	cfg   *Config
	first uint32
	size  uint64
	rand  *rand.Rand
	log   *zap.SugaredLogger

	reserved ReservedFunc
}

// New constructs an Allocator.
func New(cfg *Config, opts ...Option) (*Allocator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	prefix := cfg.Prefix.Masked()
	first := xnetip.Uint32(prefix.Addr())
	last := xnetip.Uint32(xnetip.LastAddr(prefix))

	return &Allocator{
		cfg:      cfg,
		first:    first,
		size:     uint64(last-first) + 1,
		rand:     o.Rand,
		log:      o.Log,
		reserved: o.Reserved,
	}, nil
}

// Allocate returns a random address from the prefix that is not in
// existing, not inside an excluded block, and not the network or broadcast
// address of the prefix.
func (m *Allocator) Allocate(existing mapset.Set[netip.Addr]) (netip.Addr, error) {
	taken := existing.Clone()
	if m.reserved != nil {
		addrs, err := m.reserved()
		if err != nil {
			// Interface addresses are an extra safety net only.
			m.log.Warnw("failed to list reserved addresses", zap.Error(err))
		}
		taken.Append(addrs...)
	}

	for attempt := 1; attempt <= m.cfg.MaxAttempts; attempt++ {
		candidate := xnetip.FromUint32(m.first + uint32(m.rand.Uint64N(m.size)))

		if !m.usable(candidate) || taken.Contains(candidate) {
			continue
		}

		m.log.Debugw("allocated listen address",
			zap.Stringer("addr", candidate),
			zap.Int("attempts", attempt),
		)
		return candidate, nil
	}

	return netip.Addr{}, fmt.Errorf("no free address in %s after %d attempts: %w",
		m.cfg.Prefix, m.cfg.MaxAttempts, ErrAddressSpaceExhausted)
}

func (m *Allocator) usable(addr netip.Addr) bool {
	if m.size > 2 {
		v := xnetip.Uint32(addr)
		if v == m.first || uint64(v) == uint64(m.first)+m.size-1 {
			return false
		}
	}

	for _, prefix := range m.cfg.Exclude {
		if prefix.Contains(addr) {
			return false
		}
	}

	return true
}
