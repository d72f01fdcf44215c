package shortcuts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// KeyState is the transition reported by the host input subsystem.
type KeyState uint8

const (
	Pressed KeyState = iota + 1
	Released
)

func (s KeyState) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Event is one hotkey notification from the host.
type Event struct {
	Combo Combo
	State KeyState
}

// DispatchState is the dispatcher state machine.
type DispatchState int32

const (
	StateIdle DispatchState = iota
	StateDispatching
)

func (s DispatchState) String() string {
	if s == StateDispatching {
		return "dispatching"
	}
	return "idle"
}

// Invocation describes one matched dispatch.
type Invocation struct {
	ID       string
	ActionID string
	Shortcut string
	Combo    Combo
}

// ActionFunc runs an action. Returned errors are logged by the dispatcher.
type ActionFunc func(ctx context.Context, inv Invocation) error

// Stats counts dispatcher outcomes since construction.
type Stats struct {
	Dispatched      uint64 `json:"dispatched"`
	Failed          uint64 `json:"failed"`
	Unmatched       uint64 `json:"unmatched"`
	Unhandled       uint64 `json:"unhandled"`
	SkippedInvalid  uint64 `json:"skipped_invalid"`
	IgnoredReleased uint64 `json:"ignored_released"`
}

var newInvocationID = uuid.NewString

// Dispatcher resolves host hotkey events against a Registry and runs the
// matching action. The host serializes calls to HandleEvent.
type Dispatcher struct {
	registry *Registry

	handlersMu sync.RWMutex
	handlers   map[string]ActionFunc

	state atomic.Int32

	dispatched      atomic.Uint64
	failed          atomic.Uint64
	unmatched       atomic.Uint64
	unhandled       atomic.Uint64
	skippedInvalid  atomic.Uint64
	ignoredReleased atomic.Uint64
}

// NewDispatcher creates a dispatcher reading bindings from registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		handlers: map[string]ActionFunc{},
	}
}

// Handle registers fn for actionID, replacing any earlier handler.
func (d *Dispatcher) Handle(actionID string, fn ActionFunc) {
	d.handlersMu.Lock()
	defer d.handlersMu.Unlock()
	if fn == nil {
		delete(d.handlers, actionID)
		return
	}
	d.handlers[actionID] = fn
}

// State returns the current state machine state.
func (d *Dispatcher) State() DispatchState {
	return DispatchState(d.state.Load())
}

// Stats returns a copy of the dispatch counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Dispatched:      d.dispatched.Load(),
		Failed:          d.failed.Load(),
		Unmatched:       d.unmatched.Load(),
		Unhandled:       d.unhandled.Load(),
		SkippedInvalid:  d.skippedInvalid.Load(),
		IgnoredReleased: d.ignoredReleased.Load(),
	}
}

// HandleEvent dispatches a pressed event to the first matching binding.
// Released events and unmatched combos are dropped. It reports whether an
// action was invoked.
func (d *Dispatcher) HandleEvent(ev Event) bool {
	if ev.State != Pressed {
		d.ignoredReleased.Add(1)
		return false
	}

	entry, ok := d.match(ev.Combo)
	if !ok {
		d.unmatched.Add(1)
		return false
	}

	d.handlersMu.RLock()
	fn := d.handlers[entry.ActionID]
	d.handlersMu.RUnlock()
	if fn == nil {
		d.unhandled.Add(1)
		slog.Warn("[WARN-hotkey] no handler for bound action", "action", entry.ActionID, "shortcut", entry.Shortcut)
		return false
	}

	inv := Invocation{
		ID:       newInvocationID(),
		ActionID: entry.ActionID,
		Shortcut: entry.Shortcut,
		Combo:    ev.Combo,
	}
	slog.Info("[hotkey] shortcut triggered", "action", inv.ActionID, "shortcut", inv.Shortcut, "id", inv.ID)

	d.state.Store(int32(StateDispatching))
	defer d.state.Store(int32(StateIdle))

	d.dispatched.Add(1)
	if err := runAction(fn, inv); err != nil {
		d.failed.Add(1)
		slog.Error("[hotkey] action failed", "action", inv.ActionID, "id", inv.ID, "error", err)
	}
	return true
}

func (d *Dispatcher) match(combo Combo) (Entry, bool) {
	if d.registry == nil {
		return Entry{}, false
	}
	for _, entry := range d.registry.Entries() {
		parsed, err := ParseCombo(entry.Shortcut)
		if err != nil {
			d.skippedInvalid.Add(1)
			slog.Debug("[DEBUG-hotkey] skipping unparseable binding", "action", entry.ActionID, "error", err)
			continue
		}
		if parsed == combo {
			return entry, true
		}
	}
	return Entry{}, false
}

// errActionPanic wraps a recovered action panic.
var errActionPanic = errors.New("action panicked")

func runAction(fn ActionFunc, inv Invocation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] action recovered from panic",
				"action", inv.ActionID,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("%w: %v", errActionPanic, rec)
		}
	}()
	return fn(context.Background(), inv)
}
