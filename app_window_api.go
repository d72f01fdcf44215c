package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hushdesk/internal/capture"
	"hushdesk/internal/config"
)

const (
	minWindowHeight = 120
	maxWindowHeight = 4320
)

type screenProtectionChangedEvent struct {
	Enabled bool `json:"enabled"`
}

type visibilityChangedEvent struct {
	Hidden bool `json:"hidden"`
}

// ToggleScreenProtection enables or disables capture exclusion for the main
// window and persists the choice. On failure the window keeps its previous
// state.
func (a *App) ToggleScreenProtection(enabled bool) error {
	if err := a.setScreenProtection(enabled); err != nil {
		return err
	}
	if _, err := a.updateConfigField(func(cfg *config.Config) { cfg.ScreenProtection = enabled }); err != nil {
		slog.Warn("[WARN-CONFIG] screen protection applied but not saved", "enabled", enabled, "error", err)
	}
	a.emitRuntimeEvent("window:screen-protection-changed", screenProtectionChangedEvent{Enabled: enabled})
	return nil
}

// IsScreenProtectionEnabled reads the window attribute back from the OS.
// Platforms without the feature always report false.
func (a *App) IsScreenProtectionEnabled() (bool, error) {
	h, err := a.windowHandle()
	if err != nil {
		return false, err
	}
	return a.guard.IsEnabled(h)
}

func (a *App) setScreenProtection(enabled bool) error {
	h, err := a.windowHandle()
	if err != nil {
		return err
	}
	if err := capture.Set(a.guard, h, enabled); err != nil {
		slog.Warn("[capture] screen protection toggle failed", "enabled", enabled, "error", err)
		return err
	}
	slog.Info("[capture] screen protection updated", "enabled", enabled)
	return nil
}

// windowHandle resolves the native handle of the main window. Guards that
// have no OS feature get a zero handle without a lookup.
func (a *App) windowHandle() (capture.Handle, error) {
	if a.guard == nil {
		return 0, errors.New("screen capture guard is unavailable")
	}
	if !a.guard.Supported() {
		return 0, nil
	}
	return a.lookupMainWindow()
}

// lookupMainWindow finds the main window by the title startup and config
// updates give it.
func (a *App) lookupMainWindow() (capture.Handle, error) {
	title := a.getConfigSnapshot().WindowTitle
	if title == "" {
		title = config.DefaultWindowTitle
	}
	h, err := findWindowFn(title)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve main window: %w", err)
	}
	return h, nil
}

// SetWindowHidden hides or shows the main window and records the state.
func (a *App) SetWindowHidden(hidden bool) error {
	ctx, err := a.requireRuntimeContext()
	if err != nil {
		return err
	}
	a.applyWindowVisibility(ctx, hidden)
	return nil
}

// IsWindowHidden returns the last recorded visibility state.
func (a *App) IsWindowHidden() bool {
	return a.visibility.Hidden()
}

// SetAlwaysOnTop pins or unpins the main window and persists the choice.
func (a *App) SetAlwaysOnTop(enabled bool) error {
	ctx, err := a.requireRuntimeContext()
	if err != nil {
		return err
	}
	runtimeWindowSetAlwaysOnTopFn(ctx, enabled)
	if _, err := a.updateConfigField(func(cfg *config.Config) { cfg.AlwaysOnTop = enabled }); err != nil {
		return fmt.Errorf("always-on-top applied but not saved: %w", err)
	}
	return nil
}

// SetAppIconVisibility shows or hides the taskbar and Alt+Tab entry of the
// main window and persists the choice. Platforms without the feature only
// persist it.
func (a *App) SetAppIconVisibility(visible bool) error {
	if err := a.applyAppIconVisibility(visible); err != nil {
		return err
	}
	if _, err := a.updateConfigField(func(cfg *config.Config) { cfg.AppIconVisible = visible }); err != nil {
		return fmt.Errorf("app icon visibility applied but not saved: %w", err)
	}
	return nil
}

func (a *App) applyAppIconVisibility(visible bool) error {
	if a.taskbar == nil || !a.taskbar.Supported() {
		return nil
	}
	h, err := a.lookupMainWindow()
	if err != nil {
		return err
	}
	if err := a.taskbar.SetVisible(uintptr(h), visible); err != nil {
		slog.Warn("[window] app icon visibility change failed", "visible", visible, "error", err)
		return fmt.Errorf("failed to change app icon visibility: %w", err)
	}
	slog.Info("[window] app icon visibility updated", "visible", visible)
	return nil
}

// SetWindowHeight resizes the main window height, keeping its width.
func (a *App) SetWindowHeight(height int) error {
	if height < minWindowHeight || height > maxWindowHeight {
		return fmt.Errorf("window height %d out of range [%d, %d]", height, minWindowHeight, maxWindowHeight)
	}
	ctx, err := a.requireRuntimeContext()
	if err != nil {
		return err
	}
	width, _ := runtimeWindowGetSizeFn(ctx)
	runtimeWindowSetSizeFn(ctx, width, height)
	return nil
}

// GetAppVersion returns the application version string.
func (a *App) GetAppVersion() string {
	return appVersion
}

// toggleWindowVisibility flips the recorded state and applies it to the
// window. The recorded flag, not the OS state, decides the direction.
func (a *App) toggleWindowVisibility(ctx context.Context) bool {
	hidden := a.visibility.Toggle()
	a.applyWindowState(ctx, hidden)
	return hidden
}

func (a *App) applyWindowVisibility(ctx context.Context, hidden bool) {
	a.visibility.SetHidden(hidden)
	a.applyWindowState(ctx, hidden)
}

// applyWindowState performs the OS window calls outside any lock.
func (a *App) applyWindowState(ctx context.Context, hidden bool) {
	if hidden {
		runtimeWindowHideFn(ctx)
	} else {
		a.raiseWindow(ctx)
	}
	a.emitRuntimeEventWithContext(ctx, "window:visibility-changed", visibilityChangedEvent{Hidden: hidden})
}

// bringWindowToFront shows and raises the window. Used when a second
// instance asks the running one to activate.
func (a *App) bringWindowToFront() {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Warn("[DEBUG-IPC] bringWindowToFront dropped because runtime context is nil")
		return
	}
	a.applyWindowVisibility(ctx, false)
}

func (a *App) raiseWindow(ctx context.Context) {
	runtimeWindowShowFn(ctx)
	runtimeWindowUnminimiseFn(ctx)
	if !a.getConfigSnapshot().AlwaysOnTop {
		// Pulse always-on-top to bring the window in front of others.
		runtimeWindowSetAlwaysOnTopFn(ctx, true)
		runtimeWindowSetAlwaysOnTopFn(ctx, false)
	}
}
