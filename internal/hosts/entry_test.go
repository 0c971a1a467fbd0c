package hosts

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		entry Entry
		ok    bool
	}{
		{
			name: "blank",
			line: "   ",
		},
		{
			name: "comment",
			line: "# 127.0.0.1 localhost",
		},
		{
			name:  "plain",
			line:  "127.0.0.1 localhost",
			entry: Entry{Addr: netip.MustParseAddr("127.0.0.1"), Host: "localhost"},
			ok:    true,
		},
		{
			name:  "tabs and trailing comment",
			line:  "\t127.45.1.2\tone.test\t# Do NOT Remove",
			entry: Entry{Addr: netip.MustParseAddr("127.45.1.2"), Host: "one.test"},
			ok:    true,
		},
		{
			name:  "comment glued to host",
			line:  "127.45.1.2 one.test#managed",
			entry: Entry{Addr: netip.MustParseAddr("127.45.1.2"), Host: "one.test"},
			ok:    true,
		},
		{
			name:  "aliases after the first host",
			line:  "127.0.1.1 box.local box",
			entry: Entry{Addr: netip.MustParseAddr("127.0.1.1"), Host: "box.local"},
			ok:    true,
		},
		{
			name: "no host",
			line: "127.0.0.1",
		},
		{
			name: "comment in place of host",
			line: "127.0.0.1 # nothing",
		},
		{
			name: "IPv6 mapping",
			line: "::1 localhost ip6-localhost",
		},
		{
			name: "comment after byte order mark",
			line: "\uFEFF# Copyright (c) 1993-2009 Microsoft Corp.",
		},
		{
			name:  "entry after byte order mark",
			line:  "\uFEFF127.0.0.1 localhost",
			entry: Entry{Addr: netip.MustParseAddr("127.0.0.1"), Host: "localhost"},
			ok:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, ok, err := ParseLine(tt.line)
			require.NoError(t, err)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.entry, entry)
		})
	}
}

func TestParseLineBadAddress(t *testing.T) {
	_, _, err := ParseLine("127.0.0.300 broken.test")

	var parseErr *xerror.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestFormatLine(t *testing.T) {
	entry := Entry{Addr: netip.MustParseAddr("127.45.1.2"), Host: "one.test"}

	require.Equal(t, "127.45.1.2 one.test # managed", FormatLine(entry, "managed"))
	require.Equal(t, "127.45.1.2 one.test", FormatLine(entry, ""))

	parsed, ok, err := ParseLine(FormatLine(entry, DefaultComment))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, entry, parsed)
}

func TestNormalizeHost(t *testing.T) {
	host, err := NormalizeHost("Example.COM")
	require.NoError(t, err)
	require.Equal(t, "example.com", host)

	host, err = NormalizeHost("bücher.test")
	require.NoError(t, err)
	require.Equal(t, "xn--bcher-kva.test", host)

	for _, bad := range []string{"", "two words", "evil#comment", "tab\there"} {
		_, err := NormalizeHost(bad)
		var parseErr *xerror.ParseError
		require.ErrorAs(t, err, &parseErr, bad)
	}
}

func TestSelectors(t *testing.T) {
	entry := Entry{Addr: netip.MustParseAddr("127.45.1.2"), Host: "a.One.test"}

	require.True(t, ByAddress(netip.MustParseAddr("127.45.1.2")).Match(entry))
	require.False(t, ByAddress(netip.MustParseAddr("127.45.1.20")).Match(entry))

	require.True(t, ByHostContains("one.test").Match(entry))
	require.True(t, ByHostContains("ONE").Match(entry))
	require.False(t, ByHostContains("two").Match(entry))

	require.True(t, ByHost("A.ONE.TEST").Match(entry))
	require.False(t, ByHost("one.test").Match(entry))
}
