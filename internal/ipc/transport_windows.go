//go:build windows

package ipc

import (
	"errors"
	"fmt"
	"net"
	"os/user"
	"regexp"
	"strings"
	"time"

	"github.com/Microsoft/go-winio"

	"hushdesk/internal/userutil"
)

// DefaultAddress returns the per-user named pipe path.
func DefaultAddress() string {
	return `\\.\pipe\` + userutil.ObjectName("activate")
}

// listen creates a pipe whose DACL admits only SYSTEM and the current user.
func listen(address string) (net.Listener, error) {
	sd, err := pipeSecurityDescriptor()
	if err != nil {
		return nil, err
	}
	return winio.ListenPipe(address, &winio.PipeConfig{
		SecurityDescriptor: sd,
		InputBufferSize:    maxFrameBytes,
		OutputBufferSize:   maxFrameBytes,
	})
}

func dial(address string, timeout time.Duration) (net.Conn, error) {
	return winio.DialPipe(address, &timeout)
}

var validSIDPattern = regexp.MustCompile(`^S-1(-\d+)+$`)

func pipeSecurityDescriptor() (string, error) {
	current, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("resolve current user: %w", err)
	}
	sid := strings.TrimSpace(current.Uid)
	if sid == "" {
		return "", errors.New("current user SID is unavailable")
	}
	if !validSIDPattern.MatchString(sid) {
		return "", fmt.Errorf("current user SID has unexpected format: %s", sid)
	}
	// D:P protected DACL; GA for SYSTEM and the owner SID.
	return fmt.Sprintf("D:P(A;;GA;;;SY)(A;;GA;;;%s)", sid), nil
}
