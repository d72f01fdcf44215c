//go:build windows

package main

import "golang.org/x/sys/windows"

const codePageUTF8 = 65001

func setConsoleUTF8() {
	_ = windows.SetConsoleOutputCP(codePageUTF8)
	_ = windows.SetConsoleCP(codePageUTF8)
}
