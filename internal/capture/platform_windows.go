//go:build windows

package capture

import (
	"errors"
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procSetWindowDisplayAffinity = user32DLL.NewProc("SetWindowDisplayAffinity")
	procGetWindowDisplayAffinity = user32DLL.NewProc("GetWindowDisplayAffinity")
	procFindWindowW              = user32DLL.NewProc("FindWindowW")
)

type win32AffinityAPI struct{}

func (win32AffinityAPI) SetDisplayAffinity(h Handle, affinity uint32) error {
	if err := procSetWindowDisplayAffinity.Find(); err != nil {
		return fmt.Errorf("SetWindowDisplayAffinity is unavailable: %w", err)
	}
	res, _, err := procSetWindowDisplayAffinity.Call(uintptr(h), uintptr(affinity))
	if res != 0 {
		return nil
	}
	return lastError(err, "SetWindowDisplayAffinity failed")
}

func (win32AffinityAPI) GetDisplayAffinity(h Handle) (uint32, error) {
	if err := procGetWindowDisplayAffinity.Find(); err != nil {
		return 0, fmt.Errorf("GetWindowDisplayAffinity is unavailable: %w", err)
	}
	var affinity uint32
	res, _, err := procGetWindowDisplayAffinity.Call(uintptr(h), uintptr(unsafe.Pointer(&affinity)))
	if res != 0 {
		return affinity, nil
	}
	return 0, lastError(err, "GetWindowDisplayAffinity failed")
}

func lastError(err error, fallback string) error {
	var errno windows.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errno
	}
	return errors.New(fallback)
}

// NewPlatformGuard returns the display-affinity guard.
func NewPlatformGuard() Guard {
	return NewAffinityGuard(win32AffinityAPI{})
}

// FindWindow looks up a top-level window by exact title.
func FindWindow(title string) (Handle, error) {
	titlePtr, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return 0, fmt.Errorf("invalid window title %q: %w", title, err)
	}
	hwnd, _, callErr := procFindWindowW.Call(0, uintptr(unsafe.Pointer(titlePtr)))
	if hwnd == 0 {
		return 0, fmt.Errorf("window %q not found: %w", title, lastError(callErr, "FindWindowW failed"))
	}
	return Handle(hwnd), nil
}
