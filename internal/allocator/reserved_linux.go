package allocator

import (
	"fmt"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// InterfaceAddrs lists IPv4 addresses assigned to local interfaces.
func InterfaceAddrs() ([]netip.Addr, error) {
	addrs, err := netlink.AddrList(nil, netlink.FAMILY_V4)
	if err != nil {
		return nil, fmt.Errorf("failed to list interface addresses: %w", err)
	}

	out := make([]netip.Addr, 0, len(addrs))
	for _, addr := range addrs {
		if addr.IPNet == nil {
			continue
		}
		if ip, ok := netip.AddrFromSlice(addr.IP.To4()); ok {
			out = append(out, ip)
		}
	}

	return out, nil
}
