//go:build unix

package privilege

import (
	"errors"

	"golang.org/x/sys/unix"
)

func canWrite(path string) (bool, error) {
	err := unix.Access(path, unix.W_OK)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM), errors.Is(err, unix.EROFS):
		return false, nil
	default:
		return false, err
	}
}
