package main

import "hushdesk/internal/config"

// getConfigSnapshot returns a deep-copied config protected by cfgMu.
// All read access to App.cfg should go through this helper.
func (a *App) getConfigSnapshot() config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return config.Clone(a.cfg)
}

// setConfigSnapshot stores a deep-copied config protected by cfgMu.
// All write access to App.cfg should go through this helper.
func (a *App) setConfigSnapshot(cfg config.Config) {
	a.cfgMu.Lock()
	a.cfg = config.Clone(cfg)
	a.cfgMu.Unlock()
}

// updateConfigField applies mutate to a copy of the current config and
// persists it. Used by window commands that change a single setting.
func (a *App) updateConfigField(mutate func(*config.Config)) (configUpdatedEvent, error) {
	cfg := a.getConfigSnapshot()
	mutate(&cfg)
	event, err := a.saveConfigWithLock(cfg)
	if err != nil {
		return configUpdatedEvent{}, err
	}
	a.markRuntimeApplied(event.Version)
	a.emitRuntimeEvent("config:updated", event)
	return event, nil
}
