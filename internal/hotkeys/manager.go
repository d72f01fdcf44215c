// Package hotkeys registers global hotkeys with the host OS and delivers
// their press and release events to a single handler.
package hotkeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"hushdesk/internal/shortcuts"
	"hushdesk/internal/workerutil"
)

var (
	// ErrHandlerInstalled is returned by a second Init call.
	ErrHandlerInstalled = errors.New("hotkey handler already installed")
	// ErrNotInitialized is returned by Register before Init.
	ErrNotInitialized = errors.New("hotkey handler not installed")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("hotkey manager closed")
)

// eventBufferSize bounds events queued between the OS callback and the handler.
const eventBufferSize = 32

// backend performs the OS-level registration of one combo. emit is safe to
// call from any goroutine until the registration is released.
type backend interface {
	register(combo shortcuts.Combo, emit func(shortcuts.Event)) (registration, error)
}

type registration interface {
	unregister() error
}

// liveHotkey pairs a backend registration with the channel that releases
// its pending emits. stop is closed before the backend is asked to
// unregister, so a forwarder blocked on a full queue can return.
type liveHotkey struct {
	reg  registration
	stop chan struct{}
}

func (h liveHotkey) release() error {
	close(h.stop)
	return h.reg.unregister()
}

// Manager owns the OS hotkey registrations of the process.
type Manager struct {
	backend backend

	mu      sync.Mutex
	handler func(shortcuts.Event)
	live    map[shortcuts.Combo]liveHotkey
	closed  bool

	events chan shortcuts.Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a manager bound to the platform hotkey backend.
func NewManager() *Manager {
	return newManager(newPlatformBackend())
}

func newManager(b backend) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		backend: b,
		live:    map[shortcuts.Combo]liveHotkey{},
		events:  make(chan shortcuts.Event, eventBufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Init installs the event handler and starts delivery. It may succeed once
// per manager.
func (m *Manager) Init(handler func(shortcuts.Event)) error {
	if handler == nil {
		return errors.New("hotkey handler is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.handler != nil {
		return ErrHandlerInstalled
	}
	m.handler = handler

	workerutil.RunWithPanicRecovery(m.ctx, "hotkey-pump", &m.wg, m.pump, workerutil.RecoveryOptions{
		IsShutdown: func() bool { return m.ctx.Err() != nil },
		OnFatal: func(worker string, maxRetries int) {
			slog.Error("[hotkey] event pump stopped, global shortcuts disabled",
				"worker", worker, "maxRetries", maxRetries)
		},
	})
	return nil
}

// Register replaces the set of OS-level hotkeys with combos. Combos already
// registered stay live. Failures are joined into the returned error; the
// combos that did register remain active.
func (m *Manager) Register(combos []shortcuts.Combo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.handler == nil {
		return ErrNotInitialized
	}

	want := make(map[shortcuts.Combo]struct{}, len(combos))
	for _, c := range combos {
		want[c] = struct{}{}
	}

	var errs []error
	for combo, h := range m.live {
		if _, keep := want[combo]; keep {
			continue
		}
		if err := h.release(); err != nil {
			errs = append(errs, fmt.Errorf("unregister %s: %w", combo, err))
		}
		delete(m.live, combo)
	}

	for _, combo := range sortedCombos(want) {
		if _, ok := m.live[combo]; ok {
			continue
		}
		stop := make(chan struct{})
		reg, err := m.backend.register(combo, func(ev shortcuts.Event) { m.emit(ev, stop) })
		if err != nil {
			slog.Warn("[WARN-hotkey] global shortcut registration failed", "shortcut", combo.String(), "error", err)
			errs = append(errs, fmt.Errorf("register %s: %w", combo, err))
			continue
		}
		m.live[combo] = liveHotkey{reg: reg, stop: stop}
	}

	slog.Debug("[DEBUG-hotkey] global shortcuts registered", "requested", len(want), "active", len(m.live))
	return errors.Join(errs...)
}

// Active returns the canonical strings of the registered combos, sorted.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.live))
	for combo := range m.live {
		out = append(out, combo.String())
	}
	slices.Sort(out)
	return out
}

// Close releases every registration and stops delivery. It is idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	live := m.live
	m.live = map[shortcuts.Combo]liveHotkey{}
	m.mu.Unlock()

	var errs []error
	for combo, h := range live {
		if err := h.release(); err != nil {
			errs = append(errs, fmt.Errorf("unregister %s: %w", combo, err))
		}
	}
	m.cancel()
	m.wg.Wait()
	return errors.Join(errs...)
}

// emit queues ev for the pump. It gives up once the registration is
// released or the manager shuts down.
func (m *Manager) emit(ev shortcuts.Event, stop <-chan struct{}) {
	select {
	case m.events <- ev:
	case <-stop:
	case <-m.ctx.Done():
	}
}

func (m *Manager) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-m.events:
			m.handler(ev)
		}
	}
}

func sortedCombos(set map[shortcuts.Combo]struct{}) []shortcuts.Combo {
	out := make([]shortcuts.Combo, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b shortcuts.Combo) int {
		return strings.Compare(a.String(), b.String())
	})
	return out
}
