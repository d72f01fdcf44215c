package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hushdesk/internal/capture"
	"hushdesk/internal/config"
	"hushdesk/internal/ipc"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

type appRuntimeLogger interface {
	Warningf(context.Context, string, ...interface{})
	Infof(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
}

type wailsRuntimeLogger struct{}

func formatRuntimeLogMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (wailsRuntimeLogger) Warningf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Warn(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogWarningf(ctx, message, args...)
}

func (wailsRuntimeLogger) Infof(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Info(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogInfof(ctx, message, args...)
}

func (wailsRuntimeLogger) Errorf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Error(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogErrorf(ctx, message, args...)
}

var (
	runtimeEventsEmitFn                            = runtime.EventsEmit
	runtimeLogger                 appRuntimeLogger = wailsRuntimeLogger{}
	runtimeWindowHideFn                            = runtime.WindowHide
	runtimeWindowShowFn                            = runtime.WindowShow
	runtimeWindowUnminimiseFn                      = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn                  = runtime.WindowSetAlwaysOnTop
	runtimeWindowSetTitleFn                        = runtime.WindowSetTitle
	runtimeWindowGetSizeFn                         = runtime.WindowGetSize
	runtimeWindowSetSizeFn                         = runtime.WindowSetSize
	findWindowFn                                   = capture.FindWindow
	newIPCServerFn                                 = func(handler ipc.Handler) ipcServer { return ipc.NewServer("", handler) }
	newConfigWatcherFn                             = func(path string, onChange func(config.Config)) (configWatcher, error) {
		return config.NewWatcher(path, onChange)
	}
)

type ipcServer interface {
	Address() string
	Start() error
	Stop() error
}

type configWatcher interface {
	Close() error
}

const shutdownWaitTimeout = 10 * time.Second

func (a *App) addPendingConfigLoadWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.configLoadWarnings = append(a.configLoadWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumePendingConfigLoadWarning() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.configLoadWarnings) == 0 {
		return ""
	}
	message := strings.Join(a.configLoadWarnings, "\n")
	a.configLoadWarnings = nil
	return message
}

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()

	a.setRuntimeContext(ctx)
	a.visibility.SetHidden(false)

	a.configPath = config.DefaultPath()
	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addPendingConfigLoadWarning(message)
	}

	cfg, err := config.EnsureFile(a.configPath)
	if err != nil {
		// A broken config file must not keep the app from starting.
		cfg = config.DefaultConfig()
		a.addPendingConfigLoadWarning(
			"Failed to load config file at startup. Running with defaults. Error: " + err.Error(),
		)
		runtimeLogger.Warningf(ctx, "failed to load config from %s: %v", a.configPath, err)
	}
	a.setConfigSnapshot(cfg)
	runtimeWindowSetTitleFn(ctx, cfg.WindowTitle)
	runtimeWindowSetAlwaysOnTopFn(ctx, cfg.AlwaysOnTop)

	a.configureGlobalHotkeys(cfg.Shortcuts)
	a.startConfigWatcher()
	a.startIPCServer()
}

// domReady runs once the window exists, which is when the OS can resolve
// its handle for capture protection.
func (a *App) domReady(_ context.Context) {
	cfg := a.getConfigSnapshot()
	if cfg.ScreenProtection {
		a.ensureScreenProtection()
	}
	if !cfg.AppIconVisible {
		if err := a.applyAppIconVisibility(false); err != nil {
			a.addPendingConfigLoadWarning("App icon could not be hidden: " + err.Error())
		}
	}
	a.flushPendingConfigLoadWarnings()
}

// ensureScreenProtection applies the default protection policy. Failures are
// surfaced as a startup warning and never stop the app.
func (a *App) ensureScreenProtection() {
	h, err := a.windowHandle()
	if err != nil {
		slog.Warn("[capture] window handle unavailable, skipping screen protection", "error", err)
		a.addPendingConfigLoadWarning("Screen capture protection could not be applied: " + err.Error())
		return
	}
	report := capture.Ensure(a.guard, h)
	switch report.Status {
	case capture.EnsureFailed, capture.EnsureUnverified:
		a.addPendingConfigLoadWarning(report.Message)
	}
	a.emitRuntimeEvent("window:screen-protection", report)
}

func (a *App) shutdown(_ context.Context) {
	a.shuttingDown.Store(true)
	logCtx := a.runtimeContext()

	if a.configWatcher != nil {
		if err := a.configWatcher.Close(); err != nil {
			runtimeLogger.Warningf(logCtx, "config watcher stop failed: %v", err)
		}
	}
	if a.ipcServer != nil {
		if err := a.ipcServer.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "activation server stop failed: %v", err)
		}
	}
	if a.hotkeys != nil {
		if !waitWithTimeout(func() {
			if err := a.hotkeys.Close(); err != nil {
				runtimeLogger.Warningf(logCtx, "hotkeys stop failed: %v", err)
			}
		}, shutdownWaitTimeout) {
			runtimeLogger.Warningf(logCtx, "timed out releasing global shortcuts during shutdown")
		}
	}
	a.setRuntimeContext(nil)
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// The waiting goroutine may outlive timeout when waitFn blocks; this is
	// only used on shutdown paths where completion is expected.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// configureGlobalHotkeys loads the startup bindings, installs the single
// dispatch handler and registers the combos with the OS. The registry is
// loaded even when no hotkey host is available.
func (a *App) configureGlobalHotkeys(bindings map[string]string) {
	logCtx := a.runtimeContext()

	a.shortcutsMu.Lock()
	defer a.shortcutsMu.Unlock()
	a.registry.Update(bindings)
	for combo, ids := range a.registry.Duplicates() {
		slog.Warn("[WARN-hotkey] shortcut bound to several actions, first in order wins", "shortcut", combo, "actions", ids)
	}

	if a.hotkeys == nil {
		slog.Debug("[DEBUG-hotkey] hotkey host unavailable, skipping")
		return
	}
	if err := a.hotkeys.Init(a.handleHotkeyEvent); err != nil {
		runtimeLogger.Warningf(logCtx, "global hotkey handler install failed: %v", err)
		a.addPendingConfigLoadWarning("Global shortcuts are unavailable: " + err.Error())
		return
	}
	a.hotkeysReady.Store(true)

	if err := a.registerHotkeysLocked(); err != nil {
		runtimeLogger.Warningf(logCtx, "global hotkey registration failed: %v", err)
		a.addPendingConfigLoadWarning("Some global shortcuts could not be registered: " + err.Error())
	}
	runtimeLogger.Infof(logCtx, "global hotkeys registered: %s", strings.Join(a.hotkeys.Active(), ", "))
}

func (a *App) startConfigWatcher() {
	w, err := newConfigWatcherFn(a.configPath, a.applyConfigFromDisk)
	if err != nil {
		slog.Warn("[WARN-CONFIG] config file watcher unavailable", "path", a.configPath, "error", err)
		return
	}
	a.configWatcher = w
}

func (a *App) startIPCServer() {
	logCtx := a.runtimeContext()
	server := newIPCServerFn(ipc.HandlerFunc(a.handleIPCRequest))
	if err := server.Start(); err != nil {
		runtimeLogger.Errorf(logCtx, "activation server failed: %v", err)
		return
	}
	a.ipcServer = server
	runtimeLogger.Infof(logCtx, "activation server listening: %s", server.Address())
}
