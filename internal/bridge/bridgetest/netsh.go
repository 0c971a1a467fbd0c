// Package bridgetest provides an in-memory forwarding-table command for
// tests.
package bridgetest

import (
	"context"
	"fmt"
	"net/netip"
	"slices"
	"strings"

	"github.com/yanet-platform/hostbridge/internal/bridge"
)

const header = `
Listen on ipv4:             Connect to ipv4:

Address         Port        Address         Port
--------------- ----------  --------------- ----------
`

// Netsh emulates "netsh interface portproxy" for a single proxy table.
type Netsh struct {
	// Rules is the emulated forwarding table.
	Rules []bridge.Bridge
	// Calls records the arguments of every invocation.
	Calls [][]string

	fail map[string]int
}

// NewNetsh constructs an emulator pre-populated with rules.
func NewNetsh(rules ...bridge.Bridge) *Netsh {
	return &Netsh{
		Rules: rules,
		fail:  map[string]int{},
	}
}

// FailNext makes the next invocation of verb ("show", "add" or "delete")
// exit with the given status.
func (m *Netsh) FailNext(verb string, exitCode int) {
	m.fail[verb] = exitCode
}

// Run implements bridge.Runner.
func (m *Netsh) Run(_ context.Context, args ...string) ([]byte, error) {
	m.Calls = append(m.Calls, slices.Clone(args))

	if len(args) < 4 || args[0] != "interface" || args[1] != "portproxy" {
		return nil, m.exit(args, 1, "The following command was not found")
	}

	verb := args[2]
	if code, ok := m.fail[verb]; ok {
		delete(m.fail, verb)
		return nil, m.exit(args, code, "The requested operation requires elevation")
	}

	kv := map[string]string{}
	for _, arg := range args[4:] {
		k, v, _ := strings.Cut(arg, "=")
		kv[k] = v
	}

	switch verb {
	case "show":
		return m.render(), nil
	case "add":
		listen, err := endpoint(kv["listenaddress"], kv["listenport"])
		if err != nil {
			return nil, m.exit(args, 1, err.Error())
		}
		connect, err := endpoint(kv["connectaddress"], kv["connectport"])
		if err != nil {
			return nil, m.exit(args, 1, err.Error())
		}
		m.Rules = append(m.Rules, bridge.Bridge{ListenTo: listen, ConnectTo: connect})
		return nil, nil
	case "delete":
		listen, err := endpoint(kv["listenaddress"], kv["listenport"])
		if err != nil {
			return nil, m.exit(args, 1, err.Error())
		}
		idx := slices.IndexFunc(m.Rules, func(b bridge.Bridge) bool {
			return b.ListenTo == listen
		})
		if idx < 0 {
			return nil, m.exit(args, 1, "The system cannot find the file specified.")
		}
		m.Rules = slices.Delete(m.Rules, idx, idx+1)
		return nil, nil
	default:
		return nil, m.exit(args, 1, "The following command was not found")
	}
}

// CountVerb returns how many times verb was invoked.
func (m *Netsh) CountVerb(verb string) int {
	n := 0
	for _, call := range m.Calls {
		if len(call) > 2 && call[2] == verb {
			n++
		}
	}
	return n
}

func (m *Netsh) render() []byte {
	if len(m.Rules) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(header)
	for _, rule := range m.Rules {
		fmt.Fprintf(&b, "%-15s %-11d %-15s %d\r\n",
			rule.ListenTo.Addr(), rule.ListenTo.Port(),
			rule.ConnectTo.Addr(), rule.ConnectTo.Port(),
		)
	}
	b.WriteString("\r\n")

	return []byte(b.String())
}

func (m *Netsh) exit(args []string, code int, output string) error {
	return &bridge.CommandError{
		Args:     append([]string{"netsh"}, args...),
		ExitCode: code,
		Output:   output,
	}
}

func endpoint(addr string, port string) (netip.AddrPort, error) {
	return netip.ParseAddrPort(addr + ":" + port)
}
