package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"hushdesk/internal/config"
	"hushdesk/internal/screenshot"
	"hushdesk/internal/shortcuts"
)

// shortcutTriggeredEvent is the payload of shortcut:<action> events.
type shortcutTriggeredEvent struct {
	InvocationID string `json:"invocation_id"`
	Action       string `json:"action"`
	Shortcut     string `json:"shortcut"`
}

type screenshotCapturedEvent struct {
	shortcutTriggeredEvent
	Image  string `json:"image"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type screenProtectionShortcutEvent struct {
	shortcutTriggeredEvent
	Enabled bool `json:"enabled"`
}

func shortcutEventName(actionID string) string {
	return "shortcut:" + actionID
}

func newShortcutTriggeredEvent(inv shortcuts.Invocation) shortcutTriggeredEvent {
	return shortcutTriggeredEvent{
		InvocationID: inv.ID,
		Action:       inv.ActionID,
		Shortcut:     inv.Shortcut,
	}
}

// registerActions installs the action table on the dispatcher.
func (a *App) registerActions() {
	a.dispatcher.Handle(config.ActionToggleVisibility, a.actionToggleVisibility)
	a.dispatcher.Handle(config.ActionCaptureScreenshot, a.actionCaptureScreenshot)
	a.dispatcher.Handle(config.ActionFocusInput, a.actionFocusInput)
	a.dispatcher.Handle(config.ActionSystemAudio, a.forwardToFrontend)
	a.dispatcher.Handle(config.ActionAudioRecording, a.forwardToFrontend)
	a.dispatcher.Handle(config.ActionToggleScreenProtection, a.actionToggleScreenProtection)
}

func (a *App) actionToggleVisibility(_ context.Context, inv shortcuts.Invocation) error {
	ctx, err := a.requireRuntimeContext()
	if err != nil {
		return err
	}
	hidden := a.toggleWindowVisibility(ctx)
	slog.Debug("[DEBUG-hotkey] window visibility toggled", "hidden", hidden, "id", inv.ID)
	return nil
}

func (a *App) actionCaptureScreenshot(_ context.Context, inv shortcuts.Invocation) error {
	res, err := a.captureScreenshot()
	if err != nil {
		return err
	}
	a.emitRuntimeEvent(shortcutEventName(inv.ActionID), screenshotCapturedEvent{
		shortcutTriggeredEvent: newShortcutTriggeredEvent(inv),
		Image:                  res.Base64,
		Width:                  res.Width,
		Height:                 res.Height,
	})
	return nil
}

// actionFocusInput brings a hidden window back before the frontend focuses
// its input box.
func (a *App) actionFocusInput(ctx context.Context, inv shortcuts.Invocation) error {
	if a.visibility.Hidden() {
		rctx, err := a.requireRuntimeContext()
		if err != nil {
			return err
		}
		a.applyWindowVisibility(rctx, false)
	}
	return a.forwardToFrontend(ctx, inv)
}

func (a *App) actionToggleScreenProtection(_ context.Context, inv shortcuts.Invocation) error {
	enabled := !a.getConfigSnapshot().ScreenProtection
	if err := a.ToggleScreenProtection(enabled); err != nil {
		return fmt.Errorf("toggle screen protection: %w", err)
	}
	a.emitRuntimeEvent(shortcutEventName(inv.ActionID), screenProtectionShortcutEvent{
		shortcutTriggeredEvent: newShortcutTriggeredEvent(inv),
		Enabled:                enabled,
	})
	return nil
}

// forwardToFrontend handles actions whose work lives in the UI.
func (a *App) forwardToFrontend(_ context.Context, inv shortcuts.Invocation) error {
	if _, err := a.requireRuntimeContext(); err != nil {
		return err
	}
	a.emitRuntimeEvent(shortcutEventName(inv.ActionID), newShortcutTriggeredEvent(inv))
	return nil
}

// CaptureScreenshot captures the primary display and returns it as base64
// PNG, downscaled per screenshot_max_width.
func (a *App) CaptureScreenshot() (string, error) {
	res, err := a.captureScreenshot()
	if err != nil {
		return "", err
	}
	return res.Base64, nil
}

func (a *App) captureScreenshot() (screenshot.Result, error) {
	if a.capturer == nil {
		return screenshot.Result{}, errors.New("screen capture is unavailable")
	}
	cfg := a.getConfigSnapshot()
	res, err := a.capturer.CapturePrimary(screenshot.Options{
		MaxWidth:    cfg.ScreenshotMaxWidth,
		ToClipboard: cfg.ScreenshotToClipboard,
	})
	if err != nil {
		slog.Warn("[WARN-screenshot] capture failed", "error", err)
		return screenshot.Result{}, err
	}
	return res, nil
}
