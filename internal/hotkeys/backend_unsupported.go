//go:build !windows && !darwin && !(linux && x11)

package hotkeys

import (
	"fmt"
	"runtime"

	"hushdesk/internal/shortcuts"
)

// Linux builds only get the X11 backend with the x11 build tag: the X11
// hotkey library panics at init when no display can be opened, which would
// take down the whole process on Wayland-only or headless hosts.
type unsupportedBackend struct{}

func newPlatformBackend() backend {
	return unsupportedBackend{}
}

func (unsupportedBackend) register(combo shortcuts.Combo, _ func(shortcuts.Event)) (registration, error) {
	if runtime.GOOS == "linux" {
		return nil, fmt.Errorf("global hotkeys need an X11 build (-tags x11) on linux (%s)", combo)
	}
	return nil, fmt.Errorf("global hotkeys are not supported on %s (%s)", runtime.GOOS, combo)
}
