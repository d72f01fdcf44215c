//go:build !windows

package window

// NewPlatformTaskbarIcon returns a no-op TaskbarIcon.
func NewPlatformTaskbarIcon() *TaskbarIcon {
	return &TaskbarIcon{}
}
