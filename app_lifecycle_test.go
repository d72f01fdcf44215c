package main

import (
	"context"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hushdesk/internal/config"
	"hushdesk/internal/shortcuts"
)

func TestStartupLoadsConfigAndRegistersHotkeys(t *testing.T) {
	app, h := newTestApp(t)
	app.setRuntimeContext(nil)

	app.startup(context.Background())

	if got := app.GetRegisteredShortcuts(); len(got) != len(config.DefaultShortcuts()) {
		t.Fatalf("registered shortcuts = %v", got)
	}
	if !app.CheckShortcutsRegistered() {
		t.Fatal("default shortcuts should be live after startup")
	}
	if _, err := os.Stat(app.configPath); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if len(h.titles) != 1 || h.titles[0] != config.DefaultWindowTitle {
		t.Fatalf("window titles = %v", h.titles)
	}
	if !h.ipc.started {
		t.Fatal("activation server not started")
	}
	if h.onChange == nil {
		t.Fatal("config watcher not started")
	}
	if app.IsWindowHidden() {
		t.Fatal("window should be visible after startup")
	}
}

func TestStartupFallsBackToDefaultsOnBrokenConfig(t *testing.T) {
	app, h := newTestApp(t)
	path := config.DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("shortcuts: [not, a, map"), 0o600); err != nil {
		t.Fatal(err)
	}

	app.startup(context.Background())
	app.domReady(context.Background())

	if got := app.GetConfig(); got.WindowTitle != config.DefaultWindowTitle || !got.ScreenProtection {
		t.Fatalf("config = %+v, want defaults", got)
	}
	events := h.eventsNamed("config:load-failed")
	if len(events) != 1 || !strings.Contains(events[0].payload.(map[string]string)["message"], "Running with defaults") {
		t.Fatalf("load-failed events = %+v", events)
	}
}

func TestStartupSurvivesIPCServerFailure(t *testing.T) {
	app, h := newTestApp(t)
	h.ipc.startErr = errors.New("pipe busy")

	var logged string
	runtimeLogger = lifecycleTestLogger{errorf: func(_ context.Context, msg string, args ...any) {
		logged = formatRuntimeLogMessage(msg, args...)
	}}

	app.startup(context.Background())

	if !strings.Contains(logged, "pipe busy") {
		t.Fatalf("error log = %q", logged)
	}
	if app.ipcServer != nil {
		t.Fatal("failed server must not be kept")
	}
	if app.registry.Len() == 0 {
		t.Fatal("startup should continue after activation server failure")
	}
}

func TestDomReadyEnsuresScreenProtection(t *testing.T) {
	app, h := newTestApp(t)

	app.domReady(context.Background())

	if !h.guard.enabled[testWindowHandle] {
		t.Fatal("screen protection not enabled at window creation")
	}
	if len(h.eventsNamed("window:screen-protection")) != 1 {
		t.Fatal("protection report not emitted")
	}
	if len(h.eventsNamed("config:load-failed")) != 0 {
		t.Fatal("successful protection should not warn")
	}
}

func TestDomReadyProtectionFailureIsAWarningOnly(t *testing.T) {
	app, h := newTestApp(t)
	h.guard.enableErr = errors.New("access denied")

	app.domReady(context.Background())

	events := h.eventsNamed("config:load-failed")
	if len(events) != 1 || !strings.Contains(events[0].payload.(map[string]string)["message"], "19041") {
		t.Fatalf("load-failed events = %+v", events)
	}
}

func TestDomReadySkipsProtectionWhenDisabled(t *testing.T) {
	app, h := newTestApp(t)
	cfg := app.GetConfig()
	cfg.ScreenProtection = false
	app.setConfigSnapshot(cfg)

	app.domReady(context.Background())

	if h.guard.sets != 0 {
		t.Fatalf("guard touched %d times with protection off", h.guard.sets)
	}
}

func TestShutdownReleasesResources(t *testing.T) {
	app, h := newTestApp(t)
	app.startup(context.Background())

	app.shutdown(context.Background())

	if !h.hotkeys.closed || !h.ipc.stopped || !h.watcher.closed {
		t.Fatalf("closed: hotkeys=%v ipc=%v watcher=%v", h.hotkeys.closed, h.ipc.stopped, h.watcher.closed)
	}
	if app.runtimeContext() != nil {
		t.Fatal("runtime context should be cleared on shutdown")
	}
	if !app.shuttingDown.Load() {
		t.Fatal("shuttingDown not set")
	}
}

func TestConfigureGlobalHotkeysReportsRegistrationFailure(t *testing.T) {
	app, h := newTestApp(t)
	h.hotkeys.failOn["Ctrl+Shift+H"] = errors.New("in use")

	app.configureGlobalHotkeys(map[string]string{config.ActionToggleVisibility: "Ctrl+Shift+H"})

	if msg := app.consumePendingConfigLoadWarning(); !strings.Contains(msg, "in use") {
		t.Fatalf("pending warning = %q", msg)
	}
	if app.registry.Len() != 1 {
		t.Fatal("registry should hold the binding even if the OS refused it")
	}
}

func TestConfigureGlobalHotkeysLoadsRegistryWhenHandlerInstallFails(t *testing.T) {
	app, h := newTestApp(t)
	if err := h.hotkeys.Init(func(shortcuts.Event) {}); err != nil {
		t.Fatal(err)
	}
	bindings := map[string]string{config.ActionToggleVisibility: "Ctrl+Shift+H"}

	app.configureGlobalHotkeys(bindings)

	if got := app.GetRegisteredShortcuts(); !maps.Equal(got, bindings) {
		t.Fatalf("GetRegisteredShortcuts() = %v, want %v", got, bindings)
	}
	if h.hotkeys.calls != 0 {
		t.Fatal("combos registered without the app handler installed")
	}
	if msg := app.consumePendingConfigLoadWarning(); !strings.Contains(msg, "unavailable") {
		t.Fatalf("pending warning = %q", msg)
	}
}

func TestConfigureGlobalHotkeysWithoutHost(t *testing.T) {
	app, _ := newTestApp(t)
	app.hotkeys = nil
	bindings := map[string]string{config.ActionFocusInput: "Ctrl+Shift+K"}

	app.configureGlobalHotkeys(bindings)

	if got := app.GetRegisteredShortcuts(); !maps.Equal(got, bindings) {
		t.Fatalf("GetRegisteredShortcuts() = %v, want %v", got, bindings)
	}
}

func TestDomReadyHidesAppIconFromConfig(t *testing.T) {
	app, h := newTestApp(t)
	cfg := app.GetConfig()
	cfg.AppIconVisible = false
	app.setConfigSnapshot(cfg)

	app.domReady(context.Background())

	if visible, ok := h.taskbar.visible[uintptr(testWindowHandle)]; !ok || visible {
		t.Fatalf("taskbar visible = %v (set=%v), want hidden", visible, ok)
	}
}

func TestWaitWithTimeout(t *testing.T) {
	if !waitWithTimeout(func() {}, time.Second) {
		t.Fatal("waitWithTimeout() = false for immediate return")
	}
	block := make(chan struct{})
	defer close(block)
	if waitWithTimeout(func() { <-block }, 20*time.Millisecond) {
		t.Fatal("waitWithTimeout() = true for blocked wait")
	}
}
