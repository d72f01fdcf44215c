//go:build darwin

package hotkeys

import (
	"golang.design/x/hotkey"

	"hushdesk/internal/shortcuts"
)

var xModifiers = map[shortcuts.Modifier]hotkey.Modifier{
	shortcuts.ModCtrl:  hotkey.ModCtrl,
	shortcuts.ModShift: hotkey.ModShift,
	shortcuts.ModAlt:   hotkey.ModOption,
	shortcuts.ModSuper: hotkey.ModCmd,
}

// Carbon virtual key codes. The library's KeyDelete is kVK_Delete, which is
// the backspace key; forward delete is kVK_ForwardDelete.
var xPlatformKeys = map[shortcuts.Key]hotkey.Key{
	shortcuts.KeyBackspace: hotkey.KeyDelete,
	shortcuts.KeyDelete:    hotkey.Key(0x75),
	shortcuts.KeyInsert:    hotkey.Key(0x72), // kVK_Help sits where Insert is
	shortcuts.KeyHome:      hotkey.Key(0x73),
	shortcuts.KeyEnd:       hotkey.Key(0x77),
	shortcuts.KeyPageUp:    hotkey.Key(0x74),
	shortcuts.KeyPageDown:  hotkey.Key(0x79),
	shortcuts.KeyBackquote: hotkey.Key(0x32), // kVK_ANSI_Grave
}

// Mac keyboards stop at F20.
var xExtraFunctionKeys = map[int]hotkey.Key{}
