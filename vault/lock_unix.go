//go:build !windows

package vault

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an exclusive advisory lock held on a sidecar file for the
// lifetime of a session.
type fileLock struct {
	f *os.File
}

// acquireLock takes a non-blocking exclusive flock on path, creating it if
// needed. A lock held elsewhere is ErrVaultLocked.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("vault: create lock file %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrVaultLocked
		}
		return nil, fmt.Errorf("vault: lock %s: %w", path, err)
	}
	return &fileLock{f: f}, nil
}

// release drops the lock. Closing the descriptor releases the flock too, the
// explicit unlock only makes the order obvious.
func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	err := l.f.Close()
	l.f = nil
	return err
}
