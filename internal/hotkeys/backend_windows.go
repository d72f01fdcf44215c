//go:build windows

package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"hushdesk/internal/shortcuts"
)

var (
	user32DLL   = windows.NewLazySystemDLL("user32.dll")
	kernel32DLL = windows.NewLazySystemDLL("kernel32.dll")

	procRegisterHotKey     = user32DLL.NewProc("RegisterHotKey")
	procUnregisterHotKey   = user32DLL.NewProc("UnregisterHotKey")
	procGetMessageW        = user32DLL.NewProc("GetMessageW")
	procTranslateMessage   = user32DLL.NewProc("TranslateMessage")
	procDispatchMessageW   = user32DLL.NewProc("DispatchMessageW")
	procPostThreadMessageW = user32DLL.NewProc("PostThreadMessageW")
	procPeekMessageW       = user32DLL.NewProc("PeekMessageW")
	procGetCurrentThreadID = kernel32DLL.NewProc("GetCurrentThreadId")
)

const (
	wmHotkey   = 0x0312
	wmQuit     = 0x0012
	pmNoRemove = 0x0000

	// Application hotkey ids must stay within 0x0000-0xBFFF.
	maxHotkeyID int32 = 0xBFFF

	loopStopTimeout = 2 * time.Second
)

var nextHotkeyID atomic.Int32

func init() {
	nextHotkeyID.Store(0x4000)
}

// point mirrors the Win32 POINT struct.
type point struct {
	x int32
	y int32
}

// winMsg mirrors the Win32 MSG struct. Field order and sizes must match the
// native layout on 32-bit and 64-bit Windows.
type winMsg struct {
	hWnd     uintptr
	message  uint32
	wParam   uintptr
	lParam   uintptr
	time     uint32
	pt       point
	lPrivate uint32
}

type loopReady struct {
	threadID uint32
	err      error
}

type win32Backend struct{}

func newPlatformBackend() backend {
	return win32Backend{}
}

// win32Hotkey is one RegisterHotKey registration owned by a dedicated
// OS-thread message loop.
type win32Hotkey struct {
	id       int32
	threadID uint32
	doneCh   chan struct{}
	combo    string
}

// register starts a message loop thread for combo. RegisterHotKey delivers
// WM_HOTKEY only to the registering thread and reports presses only, so each
// event is emitted as shortcuts.Pressed.
func (win32Backend) register(combo shortcuts.Combo, emit func(shortcuts.Event)) (registration, error) {
	if err := user32DLL.Load(); err != nil {
		return nil, fmt.Errorf("user32.dll is unavailable: %w", err)
	}
	if err := kernel32DLL.Load(); err != nil {
		return nil, fmt.Errorf("kernel32.dll is unavailable: %w", err)
	}

	mods, vk, err := win32Codes(combo)
	if err != nil {
		return nil, err
	}

	id := nextHotkeyID.Add(1)
	if id < 0 || id > maxHotkeyID {
		return nil, fmt.Errorf("hotkey ID range exhausted (ID=%d)", id)
	}

	readyCh := make(chan loopReady, 1)
	doneCh := make(chan struct{})
	onPress := func() { emit(shortcuts.Event{Combo: combo, State: shortcuts.Pressed}) }

	go runHotkeyLoop(id, mods, vk, onPress, readyCh, doneCh)

	ready := <-readyCh
	if ready.err != nil {
		return nil, ready.err
	}
	if ready.threadID == 0 {
		return nil, errors.New("hotkey loop started but returned invalid thread ID 0")
	}
	return &win32Hotkey{
		id:       id,
		threadID: ready.threadID,
		doneCh:   doneCh,
		combo:    combo.String(),
	}, nil
}

func (h *win32Hotkey) unregister() error {
	stopErr := postQuit(h.threadID)
	if stopErr != nil {
		// Cross-thread unregister usually fails; the loop owns the registration.
		if err := unregisterHotKey(h.id); err != nil {
			slog.Warn("[DEBUG-hotkey] fallback UnregisterHotKey failed",
				"error", err, "hotkeyID", h.id, "shortcut", h.combo)
		}
	}

	timer := time.NewTimer(loopStopTimeout)
	defer timer.Stop()

	select {
	case <-h.doneCh:
	case <-timer.C:
		slog.Warn("[DEBUG-hotkey] message loop stop timed out, thread may leak",
			"hotkeyID", h.id, "shortcut", h.combo)
		stopErr = errors.Join(stopErr, fmt.Errorf("hotkey message loop stop timed out (hotkeyID=%d)", h.id))
	}
	return stopErr
}

func runHotkeyLoop(id int32, mods, vk uint32, onPress func(), readyCh chan<- loopReady, doneCh chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(doneCh)

	threadID, err := getCurrentThreadID()
	if err != nil {
		readyCh <- loopReady{err: err}
		return
	}

	// Creates the thread message queue so PostThreadMessageW can reach it.
	var qmsg winMsg
	ret, _, peekErr := procPeekMessageW.Call(uintptr(unsafe.Pointer(&qmsg)), 0, 0, 0, pmNoRemove)
	if ret == 0 && peekErr != windows.Errno(0) {
		slog.Debug("[DEBUG-hotkey] PeekMessageW for queue init returned error",
			"error", peekErr, "hotkeyID", id)
	}

	if err := registerHotKey(id, mods, vk); err != nil {
		readyCh <- loopReady{err: err}
		return
	}
	defer func() {
		if err := unregisterHotKey(id); err != nil {
			slog.Error("[DEBUG-hotkey] UnregisterHotKey on loop exit failed",
				"error", err, "hotkeyID", id)
		}
	}()

	readyCh <- loopReady{threadID: threadID}

	for {
		var msg winMsg
		ret, _, lastErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
		switch int32(ret) {
		case -1:
			slog.Warn("[DEBUG-hotkey] GetMessageW failed, exiting loop", "error", lastErr, "hotkeyID", id)
			return
		case 0:
			slog.Debug("[DEBUG-hotkey] message loop received WM_QUIT", "hotkeyID", id)
			return
		}

		if msg.message == wmHotkey && int32(msg.wParam) == id {
			onPress()
			continue
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&msg)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&msg)))
	}
}

func registerHotKey(id int32, mods, vk uint32) error {
	res, _, err := procRegisterHotKey.Call(0, uintptr(id), uintptr(mods), uintptr(vk))
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("RegisterHotKey failed")
	}
	return err
}

func unregisterHotKey(id int32) error {
	res, _, err := procUnregisterHotKey.Call(0, uintptr(id))
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("UnregisterHotKey failed")
	}
	return err
}

func postQuit(threadID uint32) error {
	if threadID == 0 {
		return errors.New("cannot post WM_QUIT: threadID is 0")
	}
	res, _, err := procPostThreadMessageW.Call(uintptr(threadID), wmQuit, 0, 0)
	if res != 0 {
		return nil
	}
	if err == windows.Errno(0) {
		return errors.New("PostThreadMessageW failed")
	}
	return err
}

func getCurrentThreadID() (uint32, error) {
	tid, _, err := procGetCurrentThreadID.Call()
	if tid == 0 {
		return 0, fmt.Errorf("GetCurrentThreadId returned 0: %w", err)
	}
	return uint32(tid), nil
}
