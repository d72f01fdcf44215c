package shortcuts

import (
	"context"
	"errors"
	"testing"
)

func newTestDispatcher(t *testing.T, entries map[string]string) (*Dispatcher, map[string]int) {
	t.Helper()
	orig := newInvocationID
	t.Cleanup(func() { newInvocationID = orig })
	newInvocationID = func() string { return "test-id" }

	r := NewRegistry()
	r.Update(entries)
	d := NewDispatcher(r)
	calls := map[string]int{}
	for id := range entries {
		d.Handle(id, func(context.Context, Invocation) error {
			calls[id]++
			return nil
		})
	}
	return d, calls
}

func press(input string) Event {
	return Event{Combo: MustParseCombo(input), State: Pressed}
}

func TestDispatcherFiresOncePerPress(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{
		"toggle-visibility":  "Ctrl+Shift+H",
		"capture-screenshot": "Ctrl+Shift+S",
	})

	if !d.HandleEvent(press("Ctrl+Shift+H")) {
		t.Fatal("HandleEvent(pressed) = false, want true")
	}
	if d.HandleEvent(Event{Combo: MustParseCombo("Ctrl+Shift+H"), State: Released}) {
		t.Fatal("HandleEvent(released) = true, want false")
	}

	if calls["toggle-visibility"] != 1 {
		t.Fatalf("toggle-visibility calls = %d, want 1", calls["toggle-visibility"])
	}
	if calls["capture-screenshot"] != 0 {
		t.Fatalf("capture-screenshot calls = %d, want 0", calls["capture-screenshot"])
	}
	stats := d.Stats()
	if stats.Dispatched != 1 || stats.IgnoredReleased != 1 {
		t.Fatalf("Stats() = %+v", stats)
	}
}

func TestDispatcherMatchesEquivalentSpelling(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{"focus-input": "shift + ctrl + k"})

	d.HandleEvent(press("Ctrl+Shift+K"))
	if calls["focus-input"] != 1 {
		t.Fatalf("focus-input calls = %d, want 1", calls["focus-input"])
	}
}

func TestDispatcherDropsUnmatched(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{"toggle-visibility": "Ctrl+Shift+H"})

	if d.HandleEvent(press("Ctrl+Shift+Z")) {
		t.Fatal("unregistered combo should not dispatch")
	}
	if len(calls) != 0 {
		t.Fatalf("unexpected calls: %v", calls)
	}
	if d.Stats().Unmatched != 1 {
		t.Fatalf("Unmatched = %d, want 1", d.Stats().Unmatched)
	}
}

func TestDispatcherSkipsUnparseableAndKeepsScanning(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{
		"aaa-broken": "Ctrl+Shift+Nope",
		"zzz-valid":  "Ctrl+Shift+H",
	})

	d.HandleEvent(press("Ctrl+Shift+H"))
	if calls["zzz-valid"] != 1 {
		t.Fatalf("zzz-valid calls = %d, want 1", calls["zzz-valid"])
	}
	if d.Stats().SkippedInvalid != 1 {
		t.Fatalf("SkippedInvalid = %d, want 1", d.Stats().SkippedInvalid)
	}
}

func TestDispatcherMalformedEntryNeverMatches(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{"broken": "Ctrl+"})

	for _, input := range []string{"Ctrl+A", "Ctrl+Shift+H", "F1"} {
		d.HandleEvent(press(input))
	}
	if calls["broken"] != 0 {
		t.Fatalf("malformed binding fired %d times", calls["broken"])
	}
}

func TestDispatcherDuplicateBindingFirstInOrderWins(t *testing.T) {
	d, calls := newTestDispatcher(t, map[string]string{
		"beta":  "Ctrl+D",
		"alpha": "Ctrl+D",
	})

	d.HandleEvent(press("Ctrl+D"))
	if calls["alpha"] != 1 || calls["beta"] != 0 {
		t.Fatalf("calls = %v, want only alpha", calls)
	}
}

func TestDispatcherActionFailureDoesNotBlockLaterDispatch(t *testing.T) {
	r := NewRegistry()
	r.Update(map[string]string{"fails": "Ctrl+F", "panics": "Ctrl+P", "ok": "Ctrl+O"})
	d := NewDispatcher(r)

	okCalls := 0
	d.Handle("fails", func(context.Context, Invocation) error { return errors.New("collaborator down") })
	d.Handle("panics", func(context.Context, Invocation) error { panic("handler bug") })
	d.Handle("ok", func(context.Context, Invocation) error {
		okCalls++
		return nil
	})

	d.HandleEvent(press("Ctrl+F"))
	d.HandleEvent(press("Ctrl+P"))
	if d.State() != StateIdle {
		t.Fatalf("State() = %v after failures, want idle", d.State())
	}
	d.HandleEvent(press("Ctrl+O"))

	if okCalls != 1 {
		t.Fatalf("ok calls = %d, want 1", okCalls)
	}
	stats := d.Stats()
	if stats.Failed != 2 || stats.Dispatched != 3 {
		t.Fatalf("Stats() = %+v, want Failed=2 Dispatched=3", stats)
	}
}

func TestDispatcherStateDuringAction(t *testing.T) {
	r := NewRegistry()
	r.Update(map[string]string{"sample": "Ctrl+Q"})
	d := NewDispatcher(r)

	var during DispatchState
	var inv Invocation
	d.Handle("sample", func(_ context.Context, got Invocation) error {
		during = d.State()
		inv = got
		return nil
	})

	d.HandleEvent(press("Ctrl+Q"))
	if during != StateDispatching {
		t.Fatalf("state during action = %v, want dispatching", during)
	}
	if d.State() != StateIdle {
		t.Fatalf("state after action = %v, want idle", d.State())
	}
	if inv.ActionID != "sample" || inv.Shortcut != "Ctrl+Q" || inv.ID == "" {
		t.Fatalf("invocation = %+v", inv)
	}
}

func TestDispatcherObservesUpdateImmediately(t *testing.T) {
	d, _ := newTestDispatcher(t, map[string]string{"a": "Ctrl+A"})
	hits := 0
	d.Handle("b", func(context.Context, Invocation) error {
		hits++
		return nil
	})

	d.registry.Update(map[string]string{"b": "Ctrl+A"})
	d.HandleEvent(press("Ctrl+A"))
	if hits != 1 {
		t.Fatalf("b hits = %d, want 1 after update", hits)
	}
}

func TestDispatcherUnhandledAction(t *testing.T) {
	r := NewRegistry()
	r.Update(map[string]string{"orphan": "Ctrl+Shift+O"})
	d := NewDispatcher(r)

	if d.HandleEvent(press("Ctrl+Shift+O")) {
		t.Fatal("binding without handler should not report dispatch")
	}
	if d.Stats().Unhandled != 1 {
		t.Fatalf("Unhandled = %d, want 1", d.Stats().Unhandled)
	}
}
