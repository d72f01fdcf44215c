package main

import (
	"log/slog"
	"os"
	"time"

	"hushdesk/internal/diaglog"
)

// diagnosticsEmitMinInterval throttles app:diagnostics-updated pings.
const diagnosticsEmitMinInterval = 50 * time.Millisecond

// DiagnosticEntry is one warning or error record kept for the UI.
type DiagnosticEntry = diaglog.Entry

// GetDiagnostics returns recent warning and error log records, oldest first.
// The frontend calls it after an app:diagnostics-updated ping, so throttled
// pings never lose entries.
func (a *App) GetDiagnostics() []DiagnosticEntry {
	if a.diagnostics == nil {
		return nil
	}
	return a.diagnostics.Snapshot()
}

// notifyDiagnosticsUpdated runs inside slog handling and must not log.
func (a *App) notifyDiagnosticsUpdated() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	// nil payload: the event is a trigger, not a data carrier.
	runtimeEventsEmitFn(ctx, "app:diagnostics-updated", nil)
}

// installDiagnosticsLogger makes the default slog logger tee warnings and
// errors into the app's diagnostics store.
func installDiagnosticsLogger(app *App) {
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(diaglog.NewTeeHandler(base, slog.LevelWarn, app.diagnostics.Append)))
}
