// Package bridge keeps an in-memory view of the OS port-forwarding table and
// applies changes to it through the forwarding-table command.
package bridge

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
	"github.com/yanet-platform/hostbridge/common/go/xiter"
	"github.com/yanet-platform/hostbridge/common/go/xnetip"
)

// Bridge is one forwarding rule: traffic to ListenTo is relayed to
// ConnectTo.
type Bridge struct {
	// ListenTo is the synthetic loopback endpoint hostnames resolve to.
	ListenTo netip.AddrPort
	// ConnectTo is the real endpoint traffic is relayed to.
	ConnectTo netip.AddrPort
}

func (m Bridge) String() string {
	return fmt.Sprintf("%s -> %s", m.ListenTo, m.ConnectTo)
}

// Serves reports whether the endpoint is either side of the bridge.
func (m Bridge) Serves(endpoint netip.AddrPort) bool {
	return m.ListenTo == endpoint || m.ConnectTo == endpoint
}

// ParseTable parses the output of the "show" command.
//
// Everything up to and including the first line of dashes is a header.
// Every non-blank line after it must hold exactly four fields: listen
// address, listen port, connect address, connect port.
func ParseTable(out []byte) ([]Bridge, error) {
	var bridges []Bridge

	header := true
	for lineno, line := range xiter.Lines(out) {
		line = strings.TrimSpace(line)

		if header {
			header = !strings.HasPrefix(line, "-")
			continue
		}
		if line == "" {
			continue
		}

		bridge, err := parseRow(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineno, err)
		}
		bridges = append(bridges, bridge)
	}

	return bridges, nil
}

func parseRow(line string) (Bridge, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 {
		return Bridge{}, &xerror.ParseError{
			What:  "forwarding rule",
			Input: line,
			Err:   fmt.Errorf("expected 4 fields, got %d", len(fields)),
		}
	}

	listen, err := parseEndpoint(fields[0], fields[1])
	if err != nil {
		return Bridge{}, err
	}
	connect, err := parseEndpoint(fields[2], fields[3])
	if err != nil {
		return Bridge{}, err
	}

	return Bridge{ListenTo: listen, ConnectTo: connect}, nil
}

func parseEndpoint(addrText string, portText string) (netip.AddrPort, error) {
	addr, err := xnetip.ParseAddr4(addrText)
	if err != nil {
		return netip.AddrPort{}, err
	}
	port, err := xnetip.ParsePort(portText)
	if err != nil {
		return netip.AddrPort{}, err
	}

	return netip.AddrPortFrom(addr, port), nil
}

func showArgs(proxy string) []string {
	return []string{"interface", "portproxy", "show", proxy}
}

func addArgs(proxy string, b Bridge) []string {
	return []string{
		"interface", "portproxy", "add", proxy,
		"listenaddress=" + b.ListenTo.Addr().String(),
		"listenport=" + strconv.Itoa(int(b.ListenTo.Port())),
		"connectaddress=" + b.ConnectTo.Addr().String(),
		"connectport=" + strconv.Itoa(int(b.ConnectTo.Port())),
	}
}

func deleteArgs(proxy string, listen netip.AddrPort) []string {
	return []string{
		"interface", "portproxy", "delete", proxy,
		"listenport=" + strconv.Itoa(int(listen.Port())),
		"listenaddress=" + listen.Addr().String(),
	}
}
