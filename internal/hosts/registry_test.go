package hosts_test

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
	"github.com/yanet-platform/hostbridge/internal/hosts"
	"github.com/yanet-platform/hostbridge/internal/hosts/hoststest"
)

const systemHosts = `# Copyright (c) 1993-2009 Microsoft Corp.
#
# localhost name resolution is handled within DNS itself.
#	127.0.0.1       localhost
#	::1             localhost

127.0.0.1 intranet.local
127.45.1.2 one.test # managed
127.45.1.2 a.one.test # managed
127.77.0.9 two.test # managed
`

var (
	oneAddr = netip.MustParseAddr("127.45.1.2")
	twoAddr = netip.MustParseAddr("127.77.0.9")
)

func newRegistry(t *testing.T, backend hosts.Backend, opts ...hosts.RegistryOption) *hosts.Registry {
	t.Helper()

	opts = append([]hosts.RegistryOption{hosts.WithLog(zaptest.NewLogger(t).Sugar())}, opts...)
	registry := hosts.NewRegistry("managed", backend, opts...)
	_, err := registry.Load(context.Background())
	require.NoError(t, err)
	return registry
}

func TestRegistryLoad(t *testing.T) {
	registry := newRegistry(t, hoststest.NewMemory(systemHosts))

	require.Equal(t, []hosts.Entry{
		{Addr: netip.MustParseAddr("127.0.0.1"), Host: "intranet.local"},
		{Addr: oneAddr, Host: "one.test"},
		{Addr: oneAddr, Host: "a.one.test"},
		{Addr: twoAddr, Host: "two.test"},
	}, registry.Entries())
}

func TestRegistryLoadBadAddressIsFatal(t *testing.T) {
	registry := hosts.NewRegistry("managed", hoststest.NewMemory("127.0.0.1 ok.test\nlocalhost 127.0.0.1\n"))

	_, err := registry.Load(context.Background())
	var parseErr *xerror.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Contains(t, err.Error(), "line 2")
}

func TestRegistryLoadReadFailure(t *testing.T) {
	backend := hoststest.NewMemory("")
	backend.ReadErr = errors.New("access denied")

	_, err := hosts.NewRegistry("managed", backend).Load(context.Background())
	require.ErrorIs(t, err, backend.ReadErr)
}

func TestRegistryLookups(t *testing.T) {
	registry := newRegistry(t, hoststest.NewMemory(systemHosts))

	entry, ok := registry.FindByHost("a.one.test")
	require.True(t, ok)
	require.Equal(t, oneAddr, entry.Addr)

	_, ok = registry.FindByHost("one")
	require.False(t, ok, "host lookup is exact")

	require.Len(t, registry.FindByAddress(oneAddr), 2)
	require.Equal(t, 2, registry.CountByAddress(oneAddr))
	require.Equal(t, 1, registry.CountByAddress(twoAddr))
	require.Zero(t, registry.CountByAddress(netip.MustParseAddr("127.9.9.9")))
}

func TestRegistryInsert(t *testing.T) {
	backend := hoststest.NewMemory("127.0.0.1 intranet.local")
	registry := newRegistry(t, backend)

	err := registry.Insert(context.Background(), twoAddr, "three.test")
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1 intranet.local\n127.77.0.9 three.test # managed\n", backend.String())
	require.Equal(t, 2, len(registry.Entries()))

	// A reload sees the same state.
	reloaded := newRegistry(t, backend)
	require.Equal(t, registry.Entries(), reloaded.Entries())
}

func TestRegistryInsertKeepsCRLF(t *testing.T) {
	backend := hoststest.NewMemory("# hosts\r\n127.0.0.1 intranet.local\r\n")
	registry := newRegistry(t, backend)

	require.NoError(t, registry.Insert(context.Background(), oneAddr, "one.test"))
	require.Equal(t, "# hosts\r\n127.0.0.1 intranet.local\r\n127.45.1.2 one.test # managed\r\n", backend.String())
}

func TestRegistryInsertWriteFailure(t *testing.T) {
	backend := hoststest.NewMemory(systemHosts)
	registry := newRegistry(t, backend)
	backend.WriteErr = errors.New("file is locked")

	err := registry.Insert(context.Background(), oneAddr, "b.one.test")
	require.ErrorIs(t, err, backend.WriteErr)
	require.Len(t, registry.Entries(), 4)
	require.Equal(t, systemHosts, backend.String())
}

func TestRegistryDeleteByAddress(t *testing.T) {
	backend := hoststest.NewMemory(systemHosts)
	registry := newRegistry(t, backend)

	removed, err := registry.Delete(context.Background(), hosts.ByAddress(oneAddr))
	require.NoError(t, err)
	require.Equal(t, []hosts.Entry{
		{Addr: oneAddr, Host: "one.test"},
		{Addr: oneAddr, Host: "a.one.test"},
	}, removed)

	require.Zero(t, registry.CountByAddress(oneAddr))
	require.Len(t, registry.Entries(), 2)
	require.NotContains(t, backend.String(), "one.test")
	require.Contains(t, backend.String(), "::1             localhost\n")
	require.Contains(t, backend.String(), "127.77.0.9 two.test # managed\n")
}

func TestRegistryDeleteByHostSubstring(t *testing.T) {
	backend := hoststest.NewMemory(systemHosts)
	registry := newRegistry(t, backend)

	removed, err := registry.Delete(context.Background(), hosts.ByHostContains("a.one"))
	require.NoError(t, err)
	require.Equal(t, []hosts.Entry{{Addr: oneAddr, Host: "a.one.test"}}, removed)

	removed, err = registry.Delete(context.Background(), hosts.ByHostContains(".test"))
	require.NoError(t, err)
	require.Equal(t, []hosts.Entry{
		{Addr: oneAddr, Host: "one.test"},
		{Addr: twoAddr, Host: "two.test"},
	}, removed)

	require.Equal(t, []hosts.Entry{
		{Addr: netip.MustParseAddr("127.0.0.1"), Host: "intranet.local"},
	}, registry.Entries())

	reloaded := newRegistry(t, backend)
	require.Equal(t, registry.Entries(), reloaded.Entries())
}

func TestRegistryDeleteNoMatchLeavesFile(t *testing.T) {
	backend := hoststest.NewMemory(systemHosts)
	registry := newRegistry(t, backend)

	removed, err := registry.Delete(context.Background(), hosts.ByHostContains("nothing"))
	require.NoError(t, err)
	require.Empty(t, removed)
	require.Zero(t, backend.Writes)
}

func TestRegistryDryRun(t *testing.T) {
	backend := hoststest.NewMemory(systemHosts)
	backend.WriteErr = errors.New("must not be written")
	registry := newRegistry(t, backend, hosts.WithDryRun(true))

	require.NoError(t, registry.Insert(context.Background(), oneAddr, "b.one.test"))
	require.Equal(t, 3, registry.CountByAddress(oneAddr))

	removed, err := registry.Delete(context.Background(), hosts.ByAddress(oneAddr))
	require.NoError(t, err)
	require.Len(t, removed, 3)
	require.Equal(t, systemHosts, backend.String())
}

func TestRegistryLongLine(t *testing.T) {
	content := "# " + strings.Repeat("x", 70*1024) + "\n" + systemHosts
	backend := hoststest.NewMemory(content)
	registry := newRegistry(t, backend)
	require.Len(t, registry.Entries(), 4)

	_, err := registry.Delete(context.Background(), hosts.ByHost("two.test"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(backend.String(), "# "+strings.Repeat("x", 70*1024)+"\n"))
	require.NotContains(t, backend.String(), "two.test")
}

func TestRegistryByteOrderMark(t *testing.T) {
	backend := hoststest.NewMemory("\uFEFF" + systemHosts)
	registry := newRegistry(t, backend)
	require.Len(t, registry.Entries(), 4)

	_, err := registry.Delete(context.Background(), hosts.ByHost("two.test"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(backend.String(), "\uFEFF# Copyright"))

	reloaded := newRegistry(t, backend)
	require.Equal(t, registry.Entries(), reloaded.Entries())
}
