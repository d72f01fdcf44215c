package main

import (
	"embed"
	"errors"
	"log/slog"

	"hushdesk/internal/config"
	"hushdesk/internal/ipc"
	"hushdesk/internal/singleinstance"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// Single-instance check before any Wails initialization. A second launch
	// only asks the running instance to show its window.
	lock, err := singleinstance.TryLock(singleinstance.DefaultName())
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		slog.Info("[DEBUG-SINGLE] another instance is already running, signaling activation")
		if _, sendErr := ipc.Send("", ipc.Request{Command: ipc.CommandActivate}); sendErr != nil {
			slog.Warn("[DEBUG-SINGLE] failed to signal existing instance", "error", sendErr)
		}
		return
	}
	if err != nil {
		slog.Warn("[DEBUG-SINGLE] instance lock failed, proceeding without single-instance guard", "error", err)
	}
	if lock != nil {
		defer func() {
			if releaseErr := lock.Release(); releaseErr != nil {
				slog.Warn("[DEBUG-SINGLE] instance lock release failed", "error", releaseErr)
			}
		}()
	}

	app := NewApp()
	installDiagnosticsLogger(app)

	err = wails.Run(&options.App{
		Title:       config.DefaultWindowTitle,
		Width:       720,
		Height:      480,
		MinWidth:    360,
		MinHeight:   minWindowHeight,
		AlwaysOnTop: true,
		Frameless:   true,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 10, G: 16, B: 22, A: 0},
		OnStartup:        app.startup,
		OnDomReady:       app.domReady,
		OnShutdown:       app.shutdown,
		Bind: []any{
			app,
		},
	})

	if err != nil {
		slog.Error("[DEBUG-SINGLE] wails run failed", "error", err)
	}
}
