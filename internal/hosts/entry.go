package hosts

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"golang.org/x/net/idna"

	"github.com/yanet-platform/hostbridge/common/go/xerror"
)

const (
	commentDelimiter = "#"
	// byteOrderMark starts files saved as UTF-8 by some Windows editors.
	byteOrderMark = "\uFEFF"
)

// Entry is one address-to-hostname mapping.
type Entry struct {
	Addr netip.Addr
	Host string
}

func (m Entry) String() string {
	return m.Addr.String() + " " + m.Host
}

// ParseLine parses one line of the mapping file.
//
// The second result is false for lines that carry no IPv4 entry: blank
// lines, comments, lines without a hostname, and IPv6 mappings which
// hostbridge never manages. A leading byte order mark is ignored. An
// address that is not an IP at all is an error.
func ParseLine(line string) (Entry, bool, error) {
	line = strings.TrimSpace(strings.TrimPrefix(line, byteOrderMark))
	if line == "" || strings.HasPrefix(line, commentDelimiter) {
		return Entry{}, false, nil
	}

	fields := strings.Fields(line)
	addr, err := netip.ParseAddr(fields[0])
	if err != nil {
		return Entry{}, false, &xerror.ParseError{What: "hosts record address", Input: line, Err: err}
	}
	if !addr.Is4() {
		return Entry{}, false, nil
	}
	if len(fields) < 2 {
		return Entry{}, false, nil
	}

	host, _, _ := strings.Cut(fields[1], commentDelimiter)
	if host == "" {
		return Entry{}, false, nil
	}

	return Entry{Addr: addr, Host: host}, true, nil
}

// FormatLine renders an entry the way hostbridge writes it.
func FormatLine(entry Entry, comment string) string {
	if comment == "" {
		return entry.String()
	}
	return fmt.Sprintf("%s %s %s", entry, commentDelimiter, comment)
}

// NormalizeHost validates a hostname and returns its lower-case ASCII
// form.
func NormalizeHost(host string) (string, error) {
	if host == "" {
		return "", &xerror.ParseError{What: "host", Input: host, Err: errors.New("empty")}
	}
	if strings.ContainsAny(host, " \t\r\n"+commentDelimiter) {
		return "", &xerror.ParseError{What: "host", Input: host, Err: errors.New("must not contain whitespace or '#'")}
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", &xerror.ParseError{What: "host", Input: host, Err: err}
	}

	return ascii, nil
}
