package xerror

import "fmt"

// Unwrap returns t, panicking if e is not nil.
//
// Meant for values that are known to be valid, such as constants in tests.
func Unwrap[T any](t T, e error) T {
	if e != nil {
		panic(e)
	}
	return t
}

// ParseError reports malformed input: an address, a port or a record of
// one of the external resources.
type ParseError struct {
	// What names the kind of value being parsed, e.g. "connection".
	What string
	// Input is the offending text.
	Input string
	// Err is the underlying cause, may be nil.
	Err error
}

func (m *ParseError) Error() string {
	if m.Err == nil {
		return fmt.Sprintf("invalid %s %q", m.What, m.Input)
	}
	return fmt.Sprintf("invalid %s %q: %v", m.What, m.Input, m.Err)
}

func (m *ParseError) Unwrap() error {
	return m.Err
}
