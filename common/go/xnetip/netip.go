package xnetip

import (
	"encoding/binary"
	"errors"
	"net/netip"
	"strconv"
	"strings"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
)

// ErrNotIPv4 is returned when an IPv6 address is given where only IPv4 is
// supported.
var ErrNotIPv4 = errors.New("not an IPv4 address")

// Uint32 returns the IPv4 address as a big-endian integer.
func Uint32(addr netip.Addr) uint32 {
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:])
}

// FromUint32 is the inverse of Uint32.
func FromUint32(v uint32) netip.Addr {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// LastAddr returns the broadcast address of the given IPv4 prefix.
func LastAddr(prefix netip.Prefix) netip.Addr {
	prefix = prefix.Masked()
	wildcardBits := uint32(1<<(32-prefix.Bits()) - 1)

	return FromUint32(Uint32(prefix.Addr()) | wildcardBits)
}

// ParseAddr4 parses a dotted-quad IPv4 address.
func ParseAddr4(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, &xerror.ParseError{What: "address", Input: s, Err: err}
	}
	if !addr.Is4() {
		return netip.Addr{}, &xerror.ParseError{What: "address", Input: s, Err: ErrNotIPv4}
	}

	return addr, nil
}

// ParsePort parses a TCP port number.
func ParsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, &xerror.ParseError{What: "port", Input: s, Err: err}
	}

	return uint16(port), nil
}

// ParseConnection parses an "addr:port" pair where addr is IPv4.
func ParseConnection(s string) (netip.AddrPort, error) {
	addrText, portText, ok := strings.Cut(s, ":")
	if !ok {
		return netip.AddrPort{}, &xerror.ParseError{
			What:  "connection",
			Input: s,
			Err:   errors.New("expected ADDRESS:PORT"),
		}
	}

	addr, err := ParseAddr4(addrText)
	if err != nil {
		return netip.AddrPort{}, err
	}
	port, err := ParsePort(portText)
	if err != nil {
		return netip.AddrPort{}, err
	}

	return netip.AddrPortFrom(addr, port), nil
}
