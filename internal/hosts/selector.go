package hosts

import (
	"net/netip"
	"strings"
)

// Selector picks entries for deletion.
type Selector interface {
	Match(entry Entry) bool
	String() string
}

// ByAddress selects entries mapped to addr.
func ByAddress(addr netip.Addr) Selector {
	return byAddress{addr: addr}
}

// ByHostContains selects entries whose hostname contains sub, ignoring
// case.
func ByHostContains(sub string) Selector {
	return byHostContains{sub: strings.ToLower(sub)}
}

// ByHost selects entries whose hostname equals host, ignoring case.
func ByHost(host string) Selector {
	return byHost{host: host}
}

type byAddress struct {
	addr netip.Addr
}

func (m byAddress) Match(entry Entry) bool {
	return entry.Addr == m.addr
}

func (m byAddress) String() string {
	return "address " + m.addr.String()
}

type byHostContains struct {
	sub string
}

func (m byHostContains) Match(entry Entry) bool {
	return strings.Contains(strings.ToLower(entry.Host), m.sub)
}

func (m byHostContains) String() string {
	return "host containing " + m.sub
}

type byHost struct {
	host string
}

func (m byHost) Match(entry Entry) bool {
	return strings.EqualFold(entry.Host, m.host)
}

func (m byHost) String() string {
	return "host " + m.host
}
