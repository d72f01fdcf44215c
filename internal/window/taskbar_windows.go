//go:build windows

package window

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

var (
	user32DLL = windows.NewLazySystemDLL("user32.dll")

	procGetWindowLongPtrW = user32DLL.NewProc("GetWindowLongPtrW")
	procSetWindowLongPtrW = user32DLL.NewProc("SetWindowLongPtrW")
	procSetWindowPos      = user32DLL.NewProc("SetWindowPos")
	procShowWindow        = user32DLL.NewProc("ShowWindow")
	procIsWindowVisible   = user32DLL.NewProc("IsWindowVisible")
)

// gwlExStyle is GWL_EXSTYLE; held in a variable so the negative index
// converts to uintptr at run time.
var gwlExStyle int32 = -20

const (
	swHide           = 0
	swShowNoActivate = 4

	swpNoSize        = 0x0001
	swpNoMove        = 0x0002
	swpNoZOrder      = 0x0004
	swpNoActivate    = 0x0010
	swpFrameChanged  = 0x0020
	swpRefreshFrames = swpNoSize | swpNoMove | swpNoZOrder | swpNoActivate | swpFrameChanged
)

type win32StyleAPI struct{}

// NewPlatformTaskbarIcon returns a TaskbarIcon backed by user32.
func NewPlatformTaskbarIcon() *TaskbarIcon {
	return NewTaskbarIcon(win32StyleAPI{})
}

func (win32StyleAPI) ExStyle(h uintptr) (uintptr, error) {
	if err := procGetWindowLongPtrW.Find(); err != nil {
		return 0, fmt.Errorf("GetWindowLongPtrW is unavailable: %w", err)
	}
	style, _, err := procGetWindowLongPtrW.Call(h, uintptr(gwlExStyle))
	if style == 0 {
		var errno windows.Errno
		if errors.As(err, &errno) && errno != 0 {
			return 0, fmt.Errorf("GetWindowLongPtrW failed: %w", errno)
		}
	}
	return style, nil
}

// SetExStyle writes the style and re-shows a visible window so the shell
// picks up the new taskbar state.
func (win32StyleAPI) SetExStyle(h uintptr, style uintptr) error {
	if err := procSetWindowLongPtrW.Find(); err != nil {
		return fmt.Errorf("SetWindowLongPtrW is unavailable: %w", err)
	}
	visible, _, _ := procIsWindowVisible.Call(h)
	if visible != 0 {
		procShowWindow.Call(h, swHide)
	}
	prev, _, err := procSetWindowLongPtrW.Call(h, uintptr(gwlExStyle), style)
	var setErr error
	if prev == 0 {
		var errno windows.Errno
		if errors.As(err, &errno) && errno != 0 {
			setErr = fmt.Errorf("SetWindowLongPtrW failed: %w", errno)
		}
	}
	procSetWindowPos.Call(h, 0, 0, 0, 0, 0, swpRefreshFrames)
	if visible != 0 {
		procShowWindow.Call(h, swShowNoActivate)
	}
	return setErr
}
