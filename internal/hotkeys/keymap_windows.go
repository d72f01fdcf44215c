//go:build windows

package hotkeys

import (
	"fmt"

	"hushdesk/internal/shortcuts"
)

// RegisterHotKey modifier flags.
const (
	modAlt      uint32 = 0x0001
	modControl  uint32 = 0x0002
	modShift    uint32 = 0x0004
	modWin      uint32 = 0x0008
	modNoRepeat uint32 = 0x4000
)

const vkF1 uint32 = 0x70

var win32Modifiers = []struct {
	mod  shortcuts.Modifier
	flag uint32
}{
	{shortcuts.ModCtrl, modControl},
	{shortcuts.ModShift, modShift},
	{shortcuts.ModAlt, modAlt},
	{shortcuts.ModSuper, modWin},
}

var win32NamedKeys = map[shortcuts.Key]uint32{
	shortcuts.KeyBackspace: 0x08,
	shortcuts.KeyTab:       0x09,
	shortcuts.KeyEnter:     0x0D,
	shortcuts.KeyEscape:    0x1B,
	shortcuts.KeySpace:     0x20,
	shortcuts.KeyPageUp:    0x21,
	shortcuts.KeyPageDown:  0x22,
	shortcuts.KeyEnd:       0x23,
	shortcuts.KeyHome:      0x24,
	shortcuts.KeyLeft:      0x25,
	shortcuts.KeyUp:        0x26,
	shortcuts.KeyRight:     0x27,
	shortcuts.KeyDown:      0x28,
	shortcuts.KeyInsert:    0x2D,
	shortcuts.KeyDelete:    0x2E,
	shortcuts.KeyBackquote: 0xC0, // VK_OEM_3
}

// win32Codes maps combo to RegisterHotKey modifiers and a virtual-key code.
// MOD_NOREPEAT keeps auto-repeat from producing extra presses.
func win32Codes(combo shortcuts.Combo) (mods, vk uint32, err error) {
	mods = modNoRepeat
	for _, m := range win32Modifiers {
		if combo.Mods&m.mod != 0 {
			mods |= m.flag
		}
	}

	if code, ok := win32NamedKeys[combo.Key]; ok {
		return mods, code, nil
	}
	if n, ok := combo.Key.FunctionNumber(); ok {
		return mods, vkF1 + uint32(n-1), nil
	}
	if k := string(combo.Key); len(k) == 1 && (k[0] >= 'A' && k[0] <= 'Z' || k[0] >= '0' && k[0] <= '9') {
		return mods, uint32(k[0]), nil
	}
	return 0, 0, fmt.Errorf("key %q has no virtual-key mapping", combo.Key)
}
