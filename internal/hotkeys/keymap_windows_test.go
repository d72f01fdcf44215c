//go:build windows

package hotkeys

import (
	"testing"
	"unsafe"

	"hushdesk/internal/shortcuts"
)

func TestWin32Codes(t *testing.T) {
	tests := []struct {
		input    string
		wantMods uint32
		wantVK   uint32
	}{
		{input: "Ctrl+Shift+H", wantMods: modNoRepeat | modControl | modShift, wantVK: 'H'},
		{input: "Alt+3", wantMods: modNoRepeat | modAlt, wantVK: '3'},
		{input: "Super+SPACE", wantMods: modNoRepeat | modWin, wantVK: 0x20},
		{input: "Ctrl+`", wantMods: modNoRepeat | modControl, wantVK: 0xC0},
		{input: "F1", wantMods: modNoRepeat, wantVK: 0x70},
		{input: "Ctrl+F12", wantMods: modNoRepeat | modControl, wantVK: 0x7B},
		{input: "Ctrl+F24", wantMods: modNoRepeat | modControl, wantVK: 0x87},
		{input: "Ctrl+PageDown", wantMods: modNoRepeat | modControl, wantVK: 0x22},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			mods, vk, err := win32Codes(shortcuts.MustParseCombo(tt.input))
			if err != nil {
				t.Fatalf("win32Codes() error = %v", err)
			}
			if mods != tt.wantMods || vk != tt.wantVK {
				t.Fatalf("win32Codes() = 0x%X, 0x%X; want 0x%X, 0x%X", mods, vk, tt.wantMods, tt.wantVK)
			}
		})
	}
}

func TestWinMsgLayout(t *testing.T) {
	want := uintptr(48)
	if unsafe.Sizeof(uintptr(0)) == 4 {
		want = 32
	}
	if got := unsafe.Sizeof(winMsg{}); got != want {
		t.Fatalf("sizeof(winMsg) = %d, want %d", got, want)
	}
}
