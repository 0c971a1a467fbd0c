package xnetip

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
)

func TestLastAddr(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{
			name:     "IPv4 /0 (entire IPv4 space)",
			prefix:   "0.0.0.0/0",
			expected: "255.255.255.255",
		},
		{
			name:     "loopback /8",
			prefix:   "127.0.0.0/8",
			expected: "127.255.255.255",
		},
		{
			name:     "IPv4 /24 (Class C)",
			prefix:   "192.168.1.0/24",
			expected: "192.168.1.255",
		},
		{
			name:     "IPv4 /30 (point-to-point)",
			prefix:   "192.168.1.0/30",
			expected: "192.168.1.3",
		},
		{
			name:     "IPv4 /32 (host)",
			prefix:   "192.168.1.1/32",
			expected: "192.168.1.1",
		},
		{
			name:     "unmasked prefix",
			prefix:   "127.1.2.3/16",
			expected: "127.1.255.255",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix := netip.MustParsePrefix(tt.prefix)
			require.Equal(t, tt.expected, LastAddr(prefix).String())
		})
	}
}

func TestUint32RoundTrip(t *testing.T) {
	addr := netip.MustParseAddr("127.1.2.3")

	require.Equal(t, uint32(0x7f010203), Uint32(addr))
	require.Equal(t, addr, FromUint32(Uint32(addr)))
}

func TestParseConnection(t *testing.T) {
	conn, err := ParseConnection("127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, netip.MustParseAddrPort("127.0.0.1:8080"), conn)
	require.Equal(t, "127.0.0.1:8080", conn.String())

	invalid := []string{
		"127.0.0.1",
		"127.0.0.1:",
		"127.0.0.1:http",
		"127.0.0.1:70000",
		"localhost:80",
		"::1:80",
		"300.0.0.1:80",
	}
	for _, input := range invalid {
		t.Run(input, func(t *testing.T) {
			_, err := ParseConnection(input)
			var parseErr *xerror.ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestParseAddr4RejectsIPv6(t *testing.T) {
	_, err := ParseAddr4("::1")
	require.ErrorIs(t, err, ErrNotIPv4)
}
