// Package hosts keeps an in-memory view of the hostname mapping file and
// applies changes to it.
package hosts

import (
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/yanet-platform/hostbridge/common/go/xiter"
)

type options struct {
	Log    *zap.SugaredLogger
	DryRun bool
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// RegistryOption configures the Registry.
type RegistryOption func(*options)

// WithLog sets the logger.
func WithLog(log *zap.SugaredLogger) RegistryOption {
	return func(o *options) {
		o.Log = log
	}
}

// WithDryRun makes the registry mutate memory only. The backend is still
// read on Load.
func WithDryRun(dryRun bool) RegistryOption {
	return func(o *options) {
		o.DryRun = dryRun
	}
}

// Registry is the in-memory snapshot of the mapping file.
type Registry struct {
	comment string
	backend Backend
	entries []Entry
	dryRun  bool
	log     *zap.SugaredLogger
}

// NewRegistry constructs an empty registry. Call Load to read the file.
func NewRegistry(comment string, backend Backend, opts ...RegistryOption) *Registry {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Registry{
		comment: comment,
		backend: backend,
		dryRun:  o.DryRun,
		log:     o.Log,
	}
}

// Load replaces the snapshot with the entries of the file.
func (m *Registry) Load(ctx context.Context) ([]Entry, error) {
	data, err := m.backend.Read(ctx)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	for lineno, line := range xiter.Lines(data) {
		entry, ok, err := ParseLine(line)
		if err != nil {
			return nil, fmt.Errorf("hosts file line %d: %w", lineno, err)
		}
		if ok {
			entries = append(entries, entry)
		}
	}

	m.entries = entries
	m.log.Debugw("loaded hosts file", zap.Int("entries", len(entries)))

	return m.Entries(), nil
}

// Entries returns a copy of the snapshot in file order.
func (m *Registry) Entries() []Entry {
	return slices.Clone(m.entries)
}

// FindByHost returns the first entry for exactly this hostname.
func (m *Registry) FindByHost(host string) (Entry, bool) {
	idx := slices.IndexFunc(m.entries, func(e Entry) bool {
		return strings.EqualFold(e.Host, host)
	})
	if idx < 0 {
		return Entry{}, false
	}
	return m.entries[idx], true
}

// FindByAddress returns all entries mapped to addr.
func (m *Registry) FindByAddress(addr netip.Addr) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.Addr == addr {
			out = append(out, e)
		}
	}
	return out
}

// CountByAddress returns the number of entries mapped to addr.
func (m *Registry) CountByAddress(addr netip.Addr) int {
	n := 0
	for _, e := range m.entries {
		if e.Addr == addr {
			n++
		}
	}
	return n
}

// Insert appends a tool-managed entry.
func (m *Registry) Insert(ctx context.Context, addr netip.Addr, host string) error {
	entry := Entry{Addr: addr, Host: host}

	if !m.dryRun {
		data, err := m.backend.Read(ctx)
		if err != nil {
			return err
		}

		eol := lineEnding(data)
		if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
			data = append(data, eol...)
		}
		data = append(data, FormatLine(entry, m.comment)...)
		data = append(data, eol...)

		if err := m.backend.Write(ctx, data); err != nil {
			return err
		}
	}

	m.entries = append(m.entries, entry)
	m.log.Infow("added hosts entry",
		zap.Stringer("addr", addr),
		zap.String("host", host),
		zap.Bool("dry_run", m.dryRun),
	)

	return nil
}

// Delete removes every entry matched by sel and returns them in file
// order.
//
// Lines of the file that are not matched entries, comments included, are
// kept as they are.
func (m *Registry) Delete(ctx context.Context, sel Selector) ([]Entry, error) {
	var indices []int
	for idx, e := range m.entries {
		if sel.Match(e) {
			indices = append(indices, idx)
		}
	}
	if len(indices) == 0 {
		return nil, nil
	}

	if !m.dryRun {
		if err := m.rewrite(ctx, sel); err != nil {
			return nil, err
		}
	}

	removed := make([]Entry, 0, len(indices))
	for _, idx := range indices {
		removed = append(removed, m.entries[idx])
	}
	// Backwards, so the remaining indices stay valid.
	for _, idx := range slices.Backward(indices) {
		m.entries = slices.Delete(m.entries, idx, idx+1)
	}

	m.log.Infow("removed hosts entries",
		zap.Stringer("selector", sel),
		zap.Int("count", len(removed)),
		zap.Bool("dry_run", m.dryRun),
	)

	return removed, nil
}

func (m *Registry) rewrite(ctx context.Context, sel Selector) error {
	data, err := m.backend.Read(ctx)
	if err != nil {
		return err
	}

	eol := lineEnding(data)
	var out bytes.Buffer
	for lineno, line := range xiter.Lines(data) {
		entry, ok, err := ParseLine(line)
		if err != nil {
			return fmt.Errorf("failed to rewrite hosts file line %d: %w", lineno, err)
		}
		if ok && sel.Match(entry) {
			continue
		}

		out.WriteString(line)
		out.WriteString(eol)
	}

	return m.backend.Write(ctx, out.Bytes())
}

func lineEnding(data []byte) string {
	if bytes.Contains(data, []byte("\r\n")) {
		return "\r\n"
	}
	return "\n"
}
