//go:build unix

package fileio

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/leocov-dev/launchwiz/core"
)

func tryLock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return core.ErrInstanceBusy
	}
	return err
}

func unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
