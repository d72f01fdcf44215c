package shortcuts

import (
	"fmt"
	"runtime"
	"strings"
)

// Modifier is a bitmask of held modifier keys.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModShift
	ModAlt
	ModSuper
)

// Key names a non-modifier key in canonical upper-case form ("A", "F12", "SPACE").
type Key string

const (
	KeySpace     Key = "SPACE"
	KeyTab       Key = "TAB"
	KeyEnter     Key = "ENTER"
	KeyEscape    Key = "ESC"
	KeyBackspace Key = "BACKSPACE"
	KeyDelete    Key = "DELETE"
	KeyInsert    Key = "INSERT"
	KeyHome      Key = "HOME"
	KeyEnd       Key = "END"
	KeyPageUp    Key = "PAGEUP"
	KeyPageDown  Key = "PAGEDOWN"
	KeyLeft      Key = "LEFT"
	KeyRight     Key = "RIGHT"
	KeyUp        Key = "UP"
	KeyDown      Key = "DOWN"
	KeyBackquote Key = "`"
)

// goos is a test seam for CommandOrControl resolution.
var goos = runtime.GOOS

var modifierByName = map[string]Modifier{
	"CTRL":    ModCtrl,
	"CONTROL": ModCtrl,
	"SHIFT":   ModShift,
	"ALT":     ModAlt,
	"OPTION":  ModAlt,
	"SUPER":   ModSuper,
	"WIN":     ModSuper,
	"CMD":     ModSuper,
	"COMMAND": ModSuper,
	"META":    ModSuper,
}

var namedKeys = map[string]Key{
	"SPACE":     KeySpace,
	"TAB":       KeyTab,
	"ENTER":     KeyEnter,
	"RETURN":    KeyEnter,
	"ESC":       KeyEscape,
	"ESCAPE":    KeyEscape,
	"BACKSPACE": KeyBackspace,
	"DELETE":    KeyDelete,
	"DEL":       KeyDelete,
	"INSERT":    KeyInsert,
	"HOME":      KeyHome,
	"END":       KeyEnd,
	"PAGEUP":    KeyPageUp,
	"PAGEDOWN":  KeyPageDown,
	"LEFT":      KeyLeft,
	"RIGHT":     KeyRight,
	"UP":        KeyUp,
	"DOWN":      KeyDown,
	"BACKQUOTE": KeyBackquote,
	"GRAVE":     KeyBackquote,
	"`":         KeyBackquote,

	"ARROWLEFT":  KeyLeft,
	"ARROWRIGHT": KeyRight,
	"ARROWUP":    KeyUp,
	"ARROWDOWN":  KeyDown,
}

// Combo is a parsed key combination. Two combos are equal when they hold the
// same modifiers and key, so they can be compared with ==.
type Combo struct {
	Mods Modifier
	Key  Key
}

// ParseError reports a shortcut string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid shortcut %q: %s", e.Input, e.Reason)
}

// ParseCombo parses a shortcut like "CommandOrControl+Shift+Space".
func ParseCombo(input string) (Combo, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Combo{}, &ParseError{Input: input, Reason: "empty"}
	}

	parts := strings.Split(raw, "+")
	var mods Modifier
	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, err := parseModifier(name)
		if err != nil {
			return Combo{}, &ParseError{Input: input, Reason: err.Error()}
		}
		mods |= mod
	}

	key, err := parseKey(parts[len(parts)-1])
	if err != nil {
		return Combo{}, &ParseError{Input: input, Reason: err.Error()}
	}
	if mods == 0 && !isFunctionKey(key) {
		return Combo{}, &ParseError{Input: input, Reason: "at least one modifier is required"}
	}
	return Combo{Mods: mods, Key: key}, nil
}

// MustParseCombo is ParseCombo for literals known to be valid.
func MustParseCombo(input string) Combo {
	c, err := ParseCombo(input)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns the canonical form, e.g. "Ctrl+Shift+SPACE".
func (c Combo) String() string {
	var b strings.Builder
	for _, m := range []struct {
		mod  Modifier
		name string
	}{
		{ModCtrl, "Ctrl"},
		{ModAlt, "Alt"},
		{ModShift, "Shift"},
		{ModSuper, "Super"},
	} {
		if c.Mods&m.mod != 0 {
			b.WriteString(m.name)
			b.WriteByte('+')
		}
	}
	b.WriteString(string(c.Key))
	return b.String()
}

func parseModifier(name string) (Modifier, error) {
	switch name {
	case "COMMANDORCONTROL", "CMDORCTRL", "COMMANDORCTRL", "CMDORCONTROL":
		if goos == "darwin" {
			return ModSuper, nil
		}
		return ModCtrl, nil
	case "":
		return 0, fmt.Errorf("empty modifier")
	}
	mod, ok := modifierByName[name]
	if !ok {
		return 0, fmt.Errorf("unknown modifier %q", name)
	}
	return mod, nil
}

func parseKey(raw string) (Key, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return "", fmt.Errorf("missing key")
	}
	if key, ok := namedKeys[token]; ok {
		return key, nil
	}
	if _, ok := modifierByName[token]; ok {
		return "", fmt.Errorf("modifier %q used as key", raw)
	}
	if len(token) == 1 {
		ch := token[0]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			return Key(token), nil
		}
	}
	if isFunctionKey(Key(token)) {
		return Key(token), nil
	}
	return "", fmt.Errorf("unknown key %q", raw)
}

// FunctionNumber returns n for the function key Fn (1 through 24).
func (k Key) FunctionNumber() (int, bool) {
	s := string(k)
	if len(s) < 2 || len(s) > 3 || s[0] != 'F' || s[1] == '0' {
		return 0, false
	}
	n := 0
	for _, ch := range s[1:] {
		if ch < '0' || ch > '9' {
			return 0, false
		}
		n = n*10 + int(ch-'0')
	}
	if n < 1 || n > 24 {
		return 0, false
	}
	return n, true
}

func isFunctionKey(key Key) bool {
	_, ok := key.FunctionNumber()
	return ok
}
