//go:build !windows

package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"hushdesk/internal/userutil"
)

// DefaultAddress returns the per-user unix socket path.
func DefaultAddress() string {
	return filepath.Join(os.TempDir(), userutil.ObjectName("activate")+".sock")
}

// listen binds a unix socket readable only by the owner. A stale socket left
// by a crashed process is removed first; callers hold the single-instance
// lock, so no live server owns it.
func listen(address string) (net.Listener, error) {
	if err := os.Remove(address); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	listener, err := net.Listen("unix", address)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(address, 0o600); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return listener, nil
}

func dial(address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", address, timeout)
}
