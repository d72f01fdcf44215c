package main

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"hushdesk/internal/shortcuts"
)

// GetRegisteredShortcuts returns the current action id to shortcut mapping.
func (a *App) GetRegisteredShortcuts() map[string]string {
	return a.registry.Snapshot()
}

// ValidateShortcutKey reports whether shortcut parses into a key combination.
// Nothing is registered.
func (a *App) ValidateShortcutKey(shortcut string) bool {
	return a.registry.Validate(shortcut)
}

// UpdateShortcuts validates entries, replaces the registry, re-registers the
// OS hotkeys and persists the mapping. If validation, OS registration or the
// save fails, the previous mapping stays in effect and the error is returned.
func (a *App) UpdateShortcuts(entries map[string]string) error {
	cleaned, err := validateShortcutEntries(entries)
	if err != nil {
		slog.Warn("[WARN-hotkey] rejected shortcut update", "error", err)
		return err
	}

	prev, err := a.applyShortcuts(cleaned)
	if err != nil {
		return fmt.Errorf("shortcuts could not be registered, previous mapping kept: %w", err)
	}

	cfg := a.getConfigSnapshot()
	cfg.Shortcuts = cleaned
	event, err := a.saveConfigWithLock(cfg)
	if err != nil {
		slog.Warn("[WARN-CONFIG] failed to persist shortcuts, restoring previous mapping", "error", err)
		a.restoreShortcuts(prev)
		return fmt.Errorf("failed to save shortcuts: %w", err)
	}
	a.markRuntimeApplied(event.Version)
	a.emitRuntimeEvent("config:updated", event)
	return nil
}

// CheckShortcutsRegistered reports whether every parseable binding is live at
// the OS level. An empty registry reports false.
func (a *App) CheckShortcutsRegistered() bool {
	if a.hotkeys == nil || a.registry.Len() == 0 {
		return false
	}
	active := map[string]struct{}{}
	for _, s := range a.hotkeys.Active() {
		active[s] = struct{}{}
	}
	for _, entry := range a.registry.Entries() {
		combo, err := shortcuts.ParseCombo(entry.Shortcut)
		if err != nil {
			continue
		}
		if _, ok := active[combo.String()]; !ok {
			return false
		}
	}
	return true
}

// handleHotkeyEvent is the single handler installed on the hotkey host.
func (a *App) handleHotkeyEvent(ev shortcuts.Event) {
	if a.shuttingDown.Load() {
		return
	}
	a.dispatcher.HandleEvent(ev)
}

// applyShortcuts replaces the mapping and re-registers the OS hotkeys. When
// any combo fails to register, the previous mapping is put back and the
// error returned. prev is the mapping that was replaced.
func (a *App) applyShortcuts(bindings map[string]string) (prev map[string]string, err error) {
	a.shortcutsMu.Lock()
	defer a.shortcutsMu.Unlock()
	prev = a.registry.Snapshot()
	a.registry.Update(bindings)
	if err := a.registerHotkeysLocked(); err != nil {
		a.registry.Update(prev)
		if rbErr := a.registerHotkeysLocked(); rbErr != nil {
			slog.Warn("[WARN-hotkey] previous shortcuts could not be fully restored", "error", rbErr)
		}
		return prev, err
	}
	return prev, nil
}

// restoreShortcuts puts back a mapping replaced by applyShortcuts.
func (a *App) restoreShortcuts(prev map[string]string) {
	a.shortcutsMu.Lock()
	defer a.shortcutsMu.Unlock()
	a.registry.Update(prev)
	if err := a.registerHotkeysLocked(); err != nil {
		slog.Warn("[WARN-hotkey] previous shortcuts could not be fully restored", "error", err)
	}
}

// registerHotkeysLocked pushes the registry's parseable combos to the OS.
// Caller holds shortcutsMu.
func (a *App) registerHotkeysLocked() error {
	if a.hotkeys == nil || !a.hotkeysReady.Load() {
		slog.Debug("[DEBUG-hotkey] hotkey host not ready, registry updated without OS registration")
		return nil
	}
	var combos []shortcuts.Combo
	for _, entry := range a.registry.Entries() {
		combo, err := shortcuts.ParseCombo(entry.Shortcut)
		if err != nil {
			slog.Debug("[DEBUG-hotkey] not registering unparseable binding", "action", entry.ActionID, "error", err)
			continue
		}
		combos = append(combos, combo)
	}
	return a.hotkeys.Register(combos)
}

// validateShortcutEntries trims ids and shortcuts and rejects empty ids,
// unparseable shortcuts and combos bound to more than one action.
func validateShortcutEntries(entries map[string]string) (map[string]string, error) {
	cleaned := make(map[string]string, len(entries))
	var errs []error
	for _, rawID := range slices.Sorted(maps.Keys(entries)) {
		id := strings.TrimSpace(rawID)
		shortcut := strings.TrimSpace(entries[rawID])
		if id == "" {
			errs = append(errs, errors.New("action id must not be empty"))
			continue
		}
		if _, err := shortcuts.ParseCombo(shortcut); err != nil {
			errs = append(errs, fmt.Errorf("action %q: %w", id, err))
			continue
		}
		cleaned[id] = shortcut
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	entryList := make([]shortcuts.Entry, 0, len(cleaned))
	for id, shortcut := range cleaned {
		entryList = append(entryList, shortcuts.Entry{ActionID: id, Shortcut: shortcut})
	}
	dups := shortcuts.FindDuplicates(entryList)
	for _, combo := range slices.Sorted(maps.Keys(dups)) {
		errs = append(errs, fmt.Errorf("shortcut %s is assigned to multiple actions: %s",
			combo, strings.Join(dups[combo], ", ")))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cleaned, nil
}
