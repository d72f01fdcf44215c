package main

import (
	"context"
	"sync"
	"sync/atomic"

	"hushdesk/internal/capture"
	"hushdesk/internal/config"
	"hushdesk/internal/diaglog"
	"hushdesk/internal/hotkeys"
	"hushdesk/internal/screenshot"
	"hushdesk/internal/shortcuts"
	"hushdesk/internal/window"
)

// appVersion is reported to the frontend by GetAppVersion.
const appVersion = "0.3.1"

// hotkeyHost is the OS hotkey surface the app drives. *hotkeys.Manager
// implements it.
type hotkeyHost interface {
	Init(handler func(shortcuts.Event)) error
	Register(combos []shortcuts.Combo) error
	Active() []string
	Close() error
}

// taskbarIcon toggles the window's taskbar entry. *window.TaskbarIcon
// implements it.
type taskbarIcon interface {
	Supported() bool
	SetVisible(h uintptr, visible bool) error
}

type screenCapturer interface {
	CapturePrimary(opts screenshot.Options) (screenshot.Result, error)
}

// App is the Wails-bound application service.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// Configuration state and startup warnings.
	// Lock ordering (outer -> inner):
	//   runtimeApplyMu -> shortcutsMu
	//   cfgSaveMu -> cfgMu
	//
	// shortcutsMu is never held while acquiring cfgSaveMu.
	// Independent locks: startupWarnMu, ctxMu.
	cfgMu              sync.RWMutex
	cfgSaveMu          sync.Mutex
	configEventVersion atomic.Uint64
	cfg                config.Config
	configPath         string
	startupWarnMu      sync.Mutex
	configLoadWarnings []string

	// runtimeApplyMu orders config applications coming from SaveConfig and
	// the file watcher. runtimeAppliedVersion is guarded by it.
	runtimeApplyMu        sync.Mutex
	runtimeAppliedVersion uint64

	// shortcutsMu serializes registry replacement with OS re-registration so
	// the live hotkey set always follows the last committed mapping.
	shortcutsMu sync.Mutex
	registry    *shortcuts.Registry
	dispatcher  *shortcuts.Dispatcher
	hotkeys     hotkeyHost
	// hotkeysReady is set once the dispatch handler is installed on hotkeys.
	hotkeysReady atomic.Bool

	visibility *window.VisibilityState
	guard      capture.Guard
	taskbar    taskbarIcon
	capturer   screenCapturer

	diagnostics   *diaglog.Store
	ipcServer     ipcServer
	configWatcher configWatcher

	shuttingDown atomic.Bool // set at the start of shutdown()
}

// NewApp creates the app service.
func NewApp() *App {
	registry := shortcuts.NewRegistry()
	app := &App{
		registry:   registry,
		dispatcher: shortcuts.NewDispatcher(registry),
		hotkeys:    hotkeys.NewManager(),
		visibility: window.NewVisibilityState(),
		guard:      capture.NewPlatformGuard(),
		taskbar:    window.NewPlatformTaskbarIcon(),
		capturer:   screenshot.New(),
	}
	app.diagnostics = diaglog.NewStore(diaglog.DefaultCapacity, diagnosticsEmitMinInterval, app.notifyDiagnosticsUpdated)
	app.registerActions()
	return app
}
