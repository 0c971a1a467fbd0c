// Package privilege detects whether the process may change the system
// resources hostbridge manages.
package privilege

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when the caller lacks write access.
var ErrPermissionDenied = errors.New("permission denied")

// CheckWrite returns ErrPermissionDenied unless the process can modify the
// hosts file at path and the forwarding table.
func CheckWrite(path string) error {
	ok, err := canWrite(path)
	if err != nil {
		return fmt.Errorf("failed to check permissions for %s: %w", path, err)
	}
	if !ok {
		return fmt.Errorf("%s is not writable: %w", path, ErrPermissionDenied)
	}
	return nil
}
