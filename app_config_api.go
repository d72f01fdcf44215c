package main

import (
	"fmt"
	"log/slog"
	"maps"
	"time"

	"hushdesk/internal/config"
)

type configUpdatedEvent struct {
	Config             config.Config `json:"config"`
	Version            uint64        `json:"version"`
	UpdatedAtUnixMilli int64         `json:"updated_at_unix_milli"`
}

// GetConfig returns loaded config.
func (a *App) GetConfig() config.Config {
	return a.getConfigSnapshot()
}

// GetConfigAndFlushWarnings returns loaded config and emits any pending startup warnings.
func (a *App) GetConfigAndFlushWarnings() config.Config {
	a.flushPendingConfigLoadWarnings()
	return a.getConfigSnapshot()
}

func (a *App) flushPendingConfigLoadWarnings() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	if warning := a.consumePendingConfigLoadWarning(); warning != "" {
		a.emitRuntimeEventWithContext(ctx, "config:load-failed", map[string]string{
			"message": warning,
		})
	}
}

// SaveConfig validates and persists cfg to disk, then applies it to the
// running app. Shortcut entries are held to the same rules as
// UpdateShortcuts, and a mapping the OS refuses leaves both the live
// shortcuts and the file unchanged. The config:updated event carries the
// normalized config.
func (a *App) SaveConfig(cfg config.Config) error {
	var prevShortcuts map[string]string
	swapped := false
	if cfg.Shortcuts != nil {
		cleaned, err := validateShortcutEntries(cfg.Shortcuts)
		if err != nil {
			return err
		}
		cfg.Shortcuts = cleaned
		if !maps.Equal(cleaned, a.registry.Snapshot()) {
			prev, err := a.applyShortcuts(cleaned)
			if err != nil {
				return fmt.Errorf("shortcuts could not be registered, config not saved: %w", err)
			}
			prevShortcuts, swapped = prev, true
		}
	}
	event, err := a.saveConfigWithLock(cfg)
	if err != nil {
		if swapped {
			a.restoreShortcuts(prevShortcuts)
		}
		return err
	}
	a.applyRuntimeConfigUpdate(event)
	// Concurrent saves are ordered by Version; the frontend treats the
	// highest version as authoritative.
	a.emitRuntimeEvent("config:updated", event)
	return nil
}

// applyConfigFromDisk handles external edits reported by the config watcher.
func (a *App) applyConfigFromDisk(cfg config.Config) {
	if a.shuttingDown.Load() {
		return
	}
	event, changed := a.replaceConfigFromDisk(cfg)
	if !changed {
		slog.Debug("[DEBUG-CONFIG] config file changed without effective difference")
		return
	}
	slog.Info("[CONFIG] reloaded config after external edit", "path", a.configPath, "version", event.Version)
	a.applyRuntimeConfigUpdate(event)
	a.emitRuntimeEvent("config:updated", event)
}

// replaceConfigFromDisk swaps in cfg under cfgSaveMu so an in-flight save
// cannot interleave between the comparison and the write.
func (a *App) replaceConfigFromDisk(cfg config.Config) (configUpdatedEvent, bool) {
	a.cfgSaveMu.Lock()
	defer a.cfgSaveMu.Unlock()
	if configsEqual(cfg, a.getConfigSnapshot()) {
		return configUpdatedEvent{}, false
	}
	a.setConfigSnapshot(cfg)
	return configUpdatedEvent{
		Config:             config.Clone(cfg),
		Version:            a.configEventVersion.Add(1),
		UpdatedAtUnixMilli: time.Now().UnixMilli(),
	}, true
}

// applyRuntimeConfigUpdate pushes shortcuts and window settings to the live
// app while rejecting out-of-order events from concurrent saves and reloads.
func (a *App) applyRuntimeConfigUpdate(event configUpdatedEvent) {
	a.runtimeApplyMu.Lock()
	defer a.runtimeApplyMu.Unlock()

	// A duplicate version is also stale; only a strictly newer one applies.
	if event.Version <= a.runtimeAppliedVersion {
		slog.Debug("[DEBUG-CONFIG] skipped stale runtime update", "received", event.Version, "applied", a.runtimeAppliedVersion)
		return
	}
	a.runtimeAppliedVersion = event.Version

	if !maps.Equal(event.Config.Shortcuts, a.registry.Snapshot()) {
		if _, err := a.applyShortcuts(event.Config.Shortcuts); err != nil {
			slog.Warn("[WARN-hotkey] shortcuts from config could not be registered, previous mapping kept", "error", err)
		}
	}

	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	// The title must be live before the window handle is resolved by it.
	if title := event.Config.WindowTitle; title != "" {
		runtimeWindowSetTitleFn(ctx, title)
	}
	runtimeWindowSetAlwaysOnTopFn(ctx, event.Config.AlwaysOnTop)
	if err := a.applyAppIconVisibility(event.Config.AppIconVisible); err != nil {
		slog.Warn("[WARN-CONFIG] failed to apply app icon visibility from config", "error", err)
	}
	if err := a.setScreenProtection(event.Config.ScreenProtection); err != nil {
		slog.Warn("[WARN-CONFIG] failed to apply screen protection from config", "error", err)
	}
}

// markRuntimeApplied records a version whose effects were applied directly
// by the caller, so a later reload of the same content is not re-applied.
func (a *App) markRuntimeApplied(version uint64) {
	a.runtimeApplyMu.Lock()
	if version > a.runtimeAppliedVersion {
		a.runtimeAppliedVersion = version
	}
	a.runtimeApplyMu.Unlock()
}

// saveConfigWithLock persists cfg, updates the in-memory snapshot, and bumps event version under cfgSaveMu.
func (a *App) saveConfigWithLock(cfg config.Config) (configUpdatedEvent, error) {
	a.cfgSaveMu.Lock()
	defer a.cfgSaveMu.Unlock()

	normalized, err := config.Save(a.configPath, cfg)
	if err != nil {
		return configUpdatedEvent{}, err
	}
	a.setConfigSnapshot(normalized)
	version := a.configEventVersion.Add(1)

	return configUpdatedEvent{
		Config:             config.Clone(normalized),
		Version:            version,
		UpdatedAtUnixMilli: time.Now().UnixMilli(),
	}, nil
}

func configsEqual(a, b config.Config) bool {
	return maps.Equal(a.Shortcuts, b.Shortcuts) &&
		a.ScreenProtection == b.ScreenProtection &&
		a.AlwaysOnTop == b.AlwaysOnTop &&
		a.AppIconVisible == b.AppIconVisible &&
		a.ScreenshotMaxWidth == b.ScreenshotMaxWidth &&
		a.ScreenshotToClipboard == b.ScreenshotToClipboard &&
		a.WindowTitle == b.WindowTitle
}
