// Package workerutil runs long-lived background goroutines that survive panics.
package workerutil

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
)

const (
	defaultInitialBackoff = 100 * time.Millisecond
	defaultMaxBackoff     = 5 * time.Second
	defaultMaxRetries     = 10
)

// RecoveryOptions tunes RunWithPanicRecovery. Zero values select defaults
// (100ms initial backoff, 5s cap, 10 attempts). MaxRetries of 1 disables
// restarts.
type RecoveryOptions struct {
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxRetries     int

	// OnPanic fires after each recovered panic with a 1-based attempt number.
	OnPanic func(worker string, attempt int)
	// OnFatal fires once when the worker is abandoned.
	OnFatal func(worker string, maxRetries int)
	// IsShutdown stops restarts while the host is tearing down.
	IsShutdown func() bool
}

func (opts RecoveryOptions) withDefaults() RecoveryOptions {
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = defaultInitialBackoff
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = defaultMaxBackoff
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}
	if opts.MaxBackoff < opts.InitialBackoff {
		slog.Warn("[WARN-WORKER] MaxBackoff below InitialBackoff, clamping",
			"initialBackoff", opts.InitialBackoff,
			"maxBackoff", opts.MaxBackoff,
		)
		opts.MaxBackoff = opts.InitialBackoff
	}
	return opts
}

// RunWithPanicRecovery starts fn on a goroutine tracked by wg. A panic in fn
// is logged with its stack and fn is restarted with exponential backoff until
// MaxRetries is reached, ctx is cancelled, or IsShutdown reports true. A
// normal return from fn ends the worker.
func RunWithPanicRecovery(
	ctx context.Context,
	name string,
	wg *sync.WaitGroup,
	fn func(ctx context.Context),
	opts RecoveryOptions,
) {
	opts = opts.withDefaults()
	wg.Go(func() {
		superviseWorker(ctx, name, fn, opts)
	})
}

func superviseWorker(ctx context.Context, name string, fn func(ctx context.Context), opts RecoveryOptions) {
	delay := opts.InitialBackoff

	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if !runGuarded(ctx, name, fn) || ctx.Err() != nil {
			return
		}
		if opts.IsShutdown != nil && opts.IsShutdown() {
			slog.Info("[DEBUG-PANIC] shutdown in progress, worker not restarted", "worker", name)
			return
		}

		slog.Warn("[DEBUG-PANIC] restarting worker after panic",
			"worker", name,
			"attempt", attempt,
			"restartDelay", delay,
		)
		if opts.OnPanic != nil {
			opts.OnPanic(name, attempt)
		}
		if attempt == opts.MaxRetries {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay = nextBackoff(delay, opts.MaxBackoff)
	}

	slog.Error("[DEBUG-PANIC] worker gave up after repeated panics",
		"worker", name,
		"maxRetries", opts.MaxRetries,
	)
	if opts.OnFatal != nil {
		opts.OnFatal(name, opts.MaxRetries)
	}
}

// runGuarded runs fn once and reports whether it panicked.
func runGuarded(ctx context.Context, name string, fn func(ctx context.Context)) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[DEBUG-PANIC] worker recovered from panic",
				"worker", name,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			panicked = true
		}
	}()
	fn(ctx)
	return false
}

func nextBackoff(current, limit time.Duration) time.Duration {
	if current <= 0 {
		return defaultInitialBackoff
	}
	next := current * 2
	if next > limit || next < current {
		return limit
	}
	return next
}
