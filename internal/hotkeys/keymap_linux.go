//go:build linux && x11

package hotkeys

import (
	"golang.design/x/hotkey"

	"hushdesk/internal/shortcuts"
)

// X11 maps Alt to Mod1 and Super to Mod4 on common layouts.
var xModifiers = map[shortcuts.Modifier]hotkey.Modifier{
	shortcuts.ModCtrl:  hotkey.ModCtrl,
	shortcuts.ModShift: hotkey.ModShift,
	shortcuts.ModAlt:   hotkey.Mod1,
	shortcuts.ModSuper: hotkey.Mod4,
}

// X keysyms the library has no constant for.
var xPlatformKeys = map[shortcuts.Key]hotkey.Key{
	shortcuts.KeyBackspace: hotkey.Key(0xff08),
	shortcuts.KeyDelete:    hotkey.KeyDelete,
	shortcuts.KeyInsert:    hotkey.Key(0xff63),
	shortcuts.KeyHome:      hotkey.Key(0xff50),
	shortcuts.KeyEnd:       hotkey.Key(0xff57),
	shortcuts.KeyPageUp:    hotkey.Key(0xff55), // Prior
	shortcuts.KeyPageDown:  hotkey.Key(0xff56), // Next
	shortcuts.KeyBackquote: hotkey.Key(0x0060), // grave
}

// F21..F24 continue the F-key keysym range after F20.
var xExtraFunctionKeys = map[int]hotkey.Key{
	21: hotkey.Key(0xffd2),
	22: hotkey.Key(0xffd3),
	23: hotkey.Key(0xffd4),
	24: hotkey.Key(0xffd5),
}
