package main

import (
	"context"
	"errors"
)

var errAppContextNotReady = errors.New("app context is not ready")

func (a *App) setRuntimeContext(ctx context.Context) {
	a.ctxMu.Lock()
	a.ctx = ctx
	a.ctxMu.Unlock()
}

func (a *App) runtimeContext() context.Context {
	a.ctxMu.RLock()
	ctx := a.ctx
	a.ctxMu.RUnlock()
	return ctx
}

// requireRuntimeContext returns the Wails context or errAppContextNotReady
// before startup and after shutdown.
func (a *App) requireRuntimeContext() (context.Context, error) {
	ctx := a.runtimeContext()
	if ctx == nil {
		return nil, errAppContextNotReady
	}
	return ctx, nil
}
