//go:build !windows

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"hushdesk/internal/userutil"
)

// Lock holds an exclusive flock on a per-user lock file. The kernel drops the
// lock when the process exits.
type Lock struct {
	file *os.File
}

// TryLock takes a non-blocking exclusive lock on the file at name.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock file path is required")
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %q: %w", name, err)
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, ErrAlreadyRunning
		}
		return nil, fmt.Errorf("flock %q: %w", name, err)
	}
	return &Lock{file: f}, nil
}

// Release unlocks and closes the lock file. Nil-safe and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	unlockErr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return errors.Join(unlockErr, f.Close())
}

// DefaultName returns the per-user lock file path.
func DefaultName() string {
	return filepath.Join(os.TempDir(), userutil.ObjectName("")+".lock")
}
