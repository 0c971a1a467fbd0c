// Package hoststest provides in-memory mapping-file backends for tests.
package hoststest

import (
	"context"
	"slices"
)

// Memory is a hosts.Backend holding the file in memory.
type Memory struct {
	// Data is the file content.
	Data []byte
	// ReadErr, when set, is returned by every Read.
	ReadErr error
	// WriteErr, when set, is returned by every Write and the content is
	// left untouched.
	WriteErr error
	// Writes counts successful writes.
	Writes int
}

// NewMemory constructs a backend with the given content.
func NewMemory(content string) *Memory {
	return &Memory{Data: []byte(content)}
}

// Read implements hosts.Backend.
func (m *Memory) Read(_ context.Context) ([]byte, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return slices.Clone(m.Data), nil
}

// Write implements hosts.Backend.
func (m *Memory) Write(_ context.Context, data []byte) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Data = slices.Clone(data)
	m.Writes++
	return nil
}

// String returns the file content.
func (m *Memory) String() string {
	return string(m.Data)
}
