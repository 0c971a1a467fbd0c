//go:build windows

package privilege

import (
	"golang.org/x/sys/windows"
)

// canWrite reports whether the process token is elevated. Both the hosts
// file and netsh portproxy require an administrator.
func canWrite(_ string) (bool, error) {
	return windows.GetCurrentProcessToken().IsElevated(), nil
}
