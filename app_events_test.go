package main

import (
	"context"
	"testing"
)

func TestEmitRuntimeEventWithContextSkipsNilContext(t *testing.T) {
	app, h := newTestApp(t)

	app.emitRuntimeEventWithContext(nil, "config:updated", map[string]any{"ok": true})

	if len(h.events) != 0 {
		t.Fatalf("events = %+v, want none", h.events)
	}
}

func TestEmitRuntimeEventWithContextEmitsWhenContextIsReady(t *testing.T) {
	app, h := newTestApp(t)

	app.emitRuntimeEventWithContext(context.Background(), "config:updated", map[string]any{"ok": true})

	if len(h.events) != 1 || h.events[0].name != "config:updated" {
		t.Fatalf("events = %+v", h.events)
	}
}

func TestShortcutEventName(t *testing.T) {
	if got := shortcutEventName("focus-input"); got != "shortcut:focus-input" {
		t.Fatalf("shortcutEventName() = %q", got)
	}
}
