package main

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"hushdesk/internal/capture"
	"hushdesk/internal/config"
	"hushdesk/internal/ipc"
	"hushdesk/internal/screenshot"
	"hushdesk/internal/shortcuts"
)

// NOTE: Tests in this package override package-level function variables
// (runtimeEventsEmitFn, runtimeWindow*Fn, findWindowFn, ...). They are
// process-global, so no test here uses t.Parallel().

type lifecycleTestLogger struct {
	warnf  func(context.Context, string, ...any)
	infof  func(context.Context, string, ...any)
	errorf func(context.Context, string, ...any)
}

func (l lifecycleTestLogger) Warningf(ctx context.Context, message string, args ...any) {
	if l.warnf != nil {
		l.warnf(ctx, message, args...)
	}
}

func (l lifecycleTestLogger) Infof(ctx context.Context, message string, args ...any) {
	if l.infof != nil {
		l.infof(ctx, message, args...)
	}
}

func (l lifecycleTestLogger) Errorf(ctx context.Context, message string, args ...any) {
	if l.errorf != nil {
		l.errorf(ctx, message, args...)
	}
}

type fakeHotkeys struct {
	mu      sync.Mutex
	handler func(shortcuts.Event)
	active  map[string]struct{}
	failOn  map[string]error
	calls   int
	closed  bool
}

func newFakeHotkeys() *fakeHotkeys {
	return &fakeHotkeys{active: map[string]struct{}{}, failOn: map[string]error{}}
}

func (f *fakeHotkeys) Init(handler func(shortcuts.Event)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handler != nil {
		return errors.New("handler already installed")
	}
	f.handler = handler
	return nil
}

func (f *fakeHotkeys) Register(combos []shortcuts.Combo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.active = map[string]struct{}{}
	var errs []error
	for _, c := range combos {
		if err := f.failOn[c.String()]; err != nil {
			errs = append(errs, err)
			continue
		}
		f.active[c.String()] = struct{}{}
	}
	return errors.Join(errs...)
}

func (f *fakeHotkeys) Active() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.active))
	for s := range f.active {
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}

func (f *fakeHotkeys) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// press delivers a pressed event the way the hotkey pump would.
func (f *fakeHotkeys) press(t *testing.T, input string) {
	t.Helper()
	f.mu.Lock()
	handler := f.handler
	f.mu.Unlock()
	if handler == nil {
		t.Fatal("hotkey handler not installed")
	}
	handler(shortcuts.Event{Combo: shortcuts.MustParseCombo(input), State: shortcuts.Pressed})
}

type fakeGuard struct {
	supported  bool
	enabled    map[capture.Handle]bool
	enableErr  error
	disableErr error
	sets       int
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{supported: true, enabled: map[capture.Handle]bool{}}
}

func (g *fakeGuard) Enable(h capture.Handle) error {
	g.sets++
	if g.enableErr != nil {
		return g.enableErr
	}
	g.enabled[h] = true
	return nil
}

func (g *fakeGuard) Disable(h capture.Handle) error {
	g.sets++
	if g.disableErr != nil {
		return g.disableErr
	}
	g.enabled[h] = false
	return nil
}

func (g *fakeGuard) IsEnabled(h capture.Handle) (bool, error) { return g.enabled[h], nil }
func (g *fakeGuard) Supported() bool                          { return g.supported }

type fakeTaskbar struct {
	supported bool
	visible   map[uintptr]bool
	err       error
	calls     int
}

func (f *fakeTaskbar) Supported() bool { return f.supported }

func (f *fakeTaskbar) SetVisible(h uintptr, visible bool) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.visible[h] = visible
	return nil
}

type fakeCapturer struct {
	res  screenshot.Result
	err  error
	opts []screenshot.Options
}

func (c *fakeCapturer) CapturePrimary(opts screenshot.Options) (screenshot.Result, error) {
	c.opts = append(c.opts, opts)
	return c.res, c.err
}

type fakeIPCServer struct {
	startErr error
	started  bool
	stopped  bool
}

func (s *fakeIPCServer) Address() string { return "test-address" }
func (s *fakeIPCServer) Start() error {
	s.started = s.startErr == nil
	return s.startErr
}
func (s *fakeIPCServer) Stop() error {
	s.stopped = true
	return nil
}

type fakeWatcher struct{ closed bool }

func (w *fakeWatcher) Close() error {
	w.closed = true
	return nil
}

type recordedEvent struct {
	name    string
	payload any
}

// testHarness records every Wails runtime call made through the seams.
type testHarness struct {
	mu          sync.Mutex
	events      []recordedEvent
	hides       int
	shows       int
	alwaysOnTop []bool
	titles      []string
	size        [2]int

	hotkeys  *fakeHotkeys
	guard    *fakeGuard
	taskbar  *fakeTaskbar
	capturer *fakeCapturer
	ipc      *fakeIPCServer
	watcher  *fakeWatcher
	onChange func(config.Config)
}

const testWindowHandle capture.Handle = 0x1234

func (h *testHarness) eventsNamed(name string) []recordedEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []recordedEvent
	for _, ev := range h.events {
		if ev.name == name {
			out = append(out, ev)
		}
	}
	return out
}

// newTestApp builds an App with fake collaborators and a config directory
// under t.TempDir. The runtime context is set as if startup had run.
func newTestApp(t *testing.T) (*App, *testHarness) {
	t.Helper()
	t.Setenv("LOCALAPPDATA", t.TempDir())

	h := &testHarness{
		hotkeys:  newFakeHotkeys(),
		guard:    newFakeGuard(),
		taskbar:  &fakeTaskbar{supported: true, visible: map[uintptr]bool{}},
		capturer: &fakeCapturer{res: screenshot.Result{Base64: "iVBORw0KGgo=", Width: 2, Height: 1}},
		ipc:      &fakeIPCServer{},
		watcher:  &fakeWatcher{},
		size:     [2]int{720, 480},
	}
	stubRuntime(t, h)

	app := NewApp()
	app.hotkeys = h.hotkeys
	app.guard = h.guard
	app.taskbar = h.taskbar
	app.capturer = h.capturer
	app.configPath = config.DefaultPath()
	app.setConfigSnapshot(config.DefaultConfig())
	app.setRuntimeContext(context.Background())
	return app, h
}

func stubRuntime(t *testing.T, h *testHarness) {
	t.Helper()
	origEmit := runtimeEventsEmitFn
	origLogger := runtimeLogger
	origHide := runtimeWindowHideFn
	origShow := runtimeWindowShowFn
	origUnminimise := runtimeWindowUnminimiseFn
	origOnTop := runtimeWindowSetAlwaysOnTopFn
	origTitle := runtimeWindowSetTitleFn
	origGetSize := runtimeWindowGetSizeFn
	origSetSize := runtimeWindowSetSizeFn
	origFind := findWindowFn
	origIPC := newIPCServerFn
	origWatcher := newConfigWatcherFn
	t.Cleanup(func() {
		runtimeEventsEmitFn = origEmit
		runtimeLogger = origLogger
		runtimeWindowHideFn = origHide
		runtimeWindowShowFn = origShow
		runtimeWindowUnminimiseFn = origUnminimise
		runtimeWindowSetAlwaysOnTopFn = origOnTop
		runtimeWindowSetTitleFn = origTitle
		runtimeWindowGetSizeFn = origGetSize
		runtimeWindowSetSizeFn = origSetSize
		findWindowFn = origFind
		newIPCServerFn = origIPC
		newConfigWatcherFn = origWatcher
	})

	runtimeEventsEmitFn = func(_ context.Context, name string, data ...any) {
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		h.mu.Lock()
		h.events = append(h.events, recordedEvent{name: name, payload: payload})
		h.mu.Unlock()
	}
	runtimeLogger = lifecycleTestLogger{}
	runtimeWindowHideFn = func(context.Context) {
		h.mu.Lock()
		h.hides++
		h.mu.Unlock()
	}
	runtimeWindowShowFn = func(context.Context) {
		h.mu.Lock()
		h.shows++
		h.mu.Unlock()
	}
	runtimeWindowUnminimiseFn = func(context.Context) {}
	runtimeWindowSetAlwaysOnTopFn = func(_ context.Context, b bool) {
		h.mu.Lock()
		h.alwaysOnTop = append(h.alwaysOnTop, b)
		h.mu.Unlock()
	}
	runtimeWindowSetTitleFn = func(_ context.Context, title string) {
		h.mu.Lock()
		h.titles = append(h.titles, title)
		h.mu.Unlock()
	}
	runtimeWindowGetSizeFn = func(context.Context) (int, int) {
		h.mu.Lock()
		defer h.mu.Unlock()
		return h.size[0], h.size[1]
	}
	runtimeWindowSetSizeFn = func(_ context.Context, w, height int) {
		h.mu.Lock()
		h.size = [2]int{w, height}
		h.mu.Unlock()
	}
	findWindowFn = func(string) (capture.Handle, error) { return testWindowHandle, nil }
	newIPCServerFn = func(ipc.Handler) ipcServer { return h.ipc }
	newConfigWatcherFn = func(_ string, onChange func(config.Config)) (configWatcher, error) {
		h.onChange = onChange
		return h.watcher, nil
	}
}
