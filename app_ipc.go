package main

import (
	"log/slog"

	"hushdesk/internal/ipc"
)

// handleIPCRequest serves requests from later instances of the app.
func (a *App) handleIPCRequest(req ipc.Request) ipc.Response {
	slog.Debug("[DEBUG-IPC] request received", "command", req.Command)
	switch req.Command {
	case ipc.CommandPing:
		return ipc.Response{OK: true}
	case ipc.CommandActivate:
		a.bringWindowToFront()
		return ipc.Response{OK: true}
	case ipc.CommandToggle:
		ctx, err := a.requireRuntimeContext()
		if err != nil {
			return ipc.ErrorResponse("%v", err)
		}
		a.toggleWindowVisibility(ctx)
		return ipc.Response{OK: true}
	default:
		return ipc.ErrorResponse("unknown command %q", req.Command)
	}
}
