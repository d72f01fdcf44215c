package capture

import (
	"errors"
	"fmt"
	"syscall"
)

// Handle is a native window handle (HWND on Windows).
type Handle uintptr

// Display affinity values understood by the OS compositor.
const (
	AffinityNone               uint32 = 0x00
	AffinityExcludeFromCapture uint32 = 0x11
)

// Guard toggles capture exclusion for a window. Implementations do not cache
// state; IsEnabled always asks the OS.
type Guard interface {
	Enable(h Handle) error
	Disable(h Handle) error
	IsEnabled(h Handle) (bool, error)
	// Supported reports whether the platform has the underlying feature.
	Supported() bool
}

// AffinityAPI is the OS surface for reading and writing window display affinity.
type AffinityAPI interface {
	SetDisplayAffinity(h Handle, affinity uint32) error
	GetDisplayAffinity(h Handle) (uint32, error)
}

// OSCallError reports a failed display-affinity call with its OS error code.
type OSCallError struct {
	Op   string
	Code uint32
	Err  error
}

func (e *OSCallError) Error() string {
	return fmt.Sprintf("%s (win32 error code: %d)", e.Op, e.Code)
}

func (e *OSCallError) Unwrap() error { return e.Err }

func newOSCallError(op string, err error) *OSCallError {
	var errno syscall.Errno
	code := uint32(0)
	if errors.As(err, &errno) {
		code = uint32(errno)
	}
	return &OSCallError{Op: op, Code: code, Err: err}
}

// AffinityGuard implements Guard on top of an AffinityAPI.
type AffinityGuard struct {
	api AffinityAPI
}

// NewAffinityGuard returns a guard for a platform that supports display affinity.
func NewAffinityGuard(api AffinityAPI) *AffinityGuard {
	return &AffinityGuard{api: api}
}

// Enable excludes the window from capture. Enabling twice is not an error.
func (g *AffinityGuard) Enable(h Handle) error {
	if err := g.api.SetDisplayAffinity(h, AffinityExcludeFromCapture); err != nil {
		return newOSCallError("Failed to enable screen capture protection", err)
	}
	return nil
}

// Disable restores normal capture behavior.
func (g *AffinityGuard) Disable(h Handle) error {
	if err := g.api.SetDisplayAffinity(h, AffinityNone); err != nil {
		return newOSCallError("Failed to disable screen capture protection", err)
	}
	return nil
}

// IsEnabled reads the current affinity back from the OS.
func (g *AffinityGuard) IsEnabled(h Handle) (bool, error) {
	affinity, err := g.api.GetDisplayAffinity(h)
	if err != nil {
		return false, newOSCallError("Failed to read window display affinity", err)
	}
	return affinity == AffinityExcludeFromCapture, nil
}

// Supported is always true for AffinityGuard.
func (g *AffinityGuard) Supported() bool { return true }

// NoopGuard is used where the OS has no capture-exclusion attribute.
type NoopGuard struct{}

func (NoopGuard) Enable(Handle) error            { return nil }
func (NoopGuard) Disable(Handle) error           { return nil }
func (NoopGuard) IsEnabled(Handle) (bool, error) { return false, nil }
func (NoopGuard) Supported() bool                { return false }

// Set enables or disables protection according to enabled.
func Set(g Guard, h Handle, enabled bool) error {
	if enabled {
		return g.Enable(h)
	}
	return g.Disable(h)
}
