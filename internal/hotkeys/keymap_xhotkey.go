//go:build darwin || (linux && x11)

package hotkeys

import (
	"fmt"

	"golang.design/x/hotkey"

	"hushdesk/internal/shortcuts"
)

var xNamedKeys = map[shortcuts.Key]hotkey.Key{
	shortcuts.KeySpace:  hotkey.KeySpace,
	shortcuts.KeyEnter:  hotkey.KeyReturn,
	shortcuts.KeyEscape: hotkey.KeyEscape,
	shortcuts.KeyTab:    hotkey.KeyTab,
	shortcuts.KeyLeft:   hotkey.KeyLeft,
	shortcuts.KeyRight:  hotkey.KeyRight,
	shortcuts.KeyUp:     hotkey.KeyUp,
	shortcuts.KeyDown:   hotkey.KeyDown,
}

var xLetterKeys = [...]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

var xDigitKeys = [...]hotkey.Key{
	hotkey.Key0, hotkey.Key1, hotkey.Key2, hotkey.Key3, hotkey.Key4,
	hotkey.Key5, hotkey.Key6, hotkey.Key7, hotkey.Key8, hotkey.Key9,
}

var xFunctionKeys = [...]hotkey.Key{
	hotkey.KeyF1, hotkey.KeyF2, hotkey.KeyF3, hotkey.KeyF4, hotkey.KeyF5,
	hotkey.KeyF6, hotkey.KeyF7, hotkey.KeyF8, hotkey.KeyF9, hotkey.KeyF10,
	hotkey.KeyF11, hotkey.KeyF12, hotkey.KeyF13, hotkey.KeyF14, hotkey.KeyF15,
	hotkey.KeyF16, hotkey.KeyF17, hotkey.KeyF18, hotkey.KeyF19, hotkey.KeyF20,
}

func xhotkeyCodes(combo shortcuts.Combo) ([]hotkey.Modifier, hotkey.Key, error) {
	var mods []hotkey.Modifier
	for _, m := range []shortcuts.Modifier{shortcuts.ModCtrl, shortcuts.ModShift, shortcuts.ModAlt, shortcuts.ModSuper} {
		if combo.Mods&m != 0 {
			mods = append(mods, xModifiers[m])
		}
	}

	key, err := xKey(combo.Key)
	if err != nil {
		return nil, 0, err
	}
	return mods, key, nil
}

func xKey(k shortcuts.Key) (hotkey.Key, error) {
	if key, ok := xNamedKeys[k]; ok {
		return key, nil
	}
	if key, ok := xPlatformKeys[k]; ok {
		return key, nil
	}
	if n, ok := k.FunctionNumber(); ok {
		if n <= len(xFunctionKeys) {
			return xFunctionKeys[n-1], nil
		}
		if key, ok := xExtraFunctionKeys[n]; ok {
			return key, nil
		}
		return 0, fmt.Errorf("key %q is not supported on this platform", k)
	}
	if s := string(k); len(s) == 1 {
		switch ch := s[0]; {
		case ch >= 'A' && ch <= 'Z':
			return xLetterKeys[ch-'A'], nil
		case ch >= '0' && ch <= '9':
			return xDigitKeys[ch-'0'], nil
		}
	}
	return 0, fmt.Errorf("key %q is not supported on this platform", k)
}
