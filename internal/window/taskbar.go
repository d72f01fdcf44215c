package window

// Extended window styles that decide whether a window gets a taskbar button.
const (
	ExStyleToolWindow uintptr = 0x00000080
	ExStyleAppWindow  uintptr = 0x00040000
)

// StyleAPI reads and writes the extended style of a native window.
type StyleAPI interface {
	ExStyle(h uintptr) (uintptr, error)
	SetExStyle(h uintptr, style uintptr) error
}

// TaskbarIcon shows or hides a window's taskbar and Alt+Tab entry. A
// TaskbarIcon without a StyleAPI does nothing.
type TaskbarIcon struct {
	api StyleAPI
}

// NewTaskbarIcon returns a TaskbarIcon backed by api.
func NewTaskbarIcon(api StyleAPI) *TaskbarIcon {
	return &TaskbarIcon{api: api}
}

// Supported reports whether the platform can change taskbar presence.
func (t *TaskbarIcon) Supported() bool {
	return t != nil && t.api != nil
}

// SetVisible swaps the tool-window and app-window styles of h. The style is
// left alone when it already matches.
func (t *TaskbarIcon) SetVisible(h uintptr, visible bool) error {
	if !t.Supported() {
		return nil
	}
	style, err := t.api.ExStyle(h)
	if err != nil {
		return err
	}
	next := IconStyle(style, visible)
	if next == style {
		return nil
	}
	return t.api.SetExStyle(h, next)
}

// IconStyle returns style adjusted so the window does or does not get a
// taskbar button.
func IconStyle(style uintptr, visible bool) uintptr {
	if visible {
		return style&^ExStyleToolWindow | ExStyleAppWindow
	}
	return style&^ExStyleAppWindow | ExStyleToolWindow
}
