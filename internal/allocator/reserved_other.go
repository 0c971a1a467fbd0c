//go:build !linux

package allocator

import "net/netip"

// InterfaceAddrs lists IPv4 addresses assigned to local interfaces.
//
// Not supported on this platform, nothing is reserved.
func InterfaceAddrs() ([]netip.Addr, error) {
	return nil, nil
}
