package workerutil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions(maxRetries int) RecoveryOptions {
	return RecoveryOptions{
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
		MaxRetries:     maxRetries,
	}
}

func TestRunWithPanicRecoveryNormalExit(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var panics, fatals atomic.Int32

	opts := fastOptions(3)
	opts.OnPanic = func(string, int) { panics.Add(1) }
	opts.OnFatal = func(string, int) { fatals.Add(1) }

	started := make(chan struct{})
	RunWithPanicRecovery(ctx, "normal", &wg, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}, opts)

	<-started
	cancel()
	wg.Wait()

	if panics.Load() != 0 || fatals.Load() != 0 {
		t.Fatalf("OnPanic=%d OnFatal=%d, want 0/0", panics.Load(), fatals.Load())
	}
}

func TestRunWithPanicRecoveryRestartsAfterPanic(t *testing.T) {
	var wg sync.WaitGroup
	var calls atomic.Int32
	var attempts []int
	var mu sync.Mutex

	opts := fastOptions(5)
	opts.OnPanic = func(_ string, attempt int) {
		mu.Lock()
		attempts = append(attempts, attempt)
		mu.Unlock()
	}

	RunWithPanicRecovery(context.Background(), "single", &wg, func(context.Context) {
		if calls.Add(1) == 1 {
			panic("first run fails")
		}
	}, opts)
	wg.Wait()

	if calls.Load() != 2 {
		t.Fatalf("fn calls = %d, want 2", calls.Load())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 1 || attempts[0] != 1 {
		t.Fatalf("OnPanic attempts = %v, want [1]", attempts)
	}
}

func TestRunWithPanicRecoveryGivesUp(t *testing.T) {
	var wg sync.WaitGroup
	var calls atomic.Int32
	var fatalRetries atomic.Int32

	opts := fastOptions(3)
	opts.OnFatal = func(_ string, maxRetries int) { fatalRetries.Store(int32(maxRetries)) }

	RunWithPanicRecovery(context.Background(), "always-panics", &wg, func(context.Context) {
		calls.Add(1)
		panic(struct{ code int }{code: 7})
	}, opts)
	wg.Wait()

	if calls.Load() != 3 {
		t.Fatalf("fn calls = %d, want 3", calls.Load())
	}
	if fatalRetries.Load() != 3 {
		t.Fatalf("OnFatal maxRetries = %d, want 3", fatalRetries.Load())
	}
}

func TestRunWithPanicRecoveryStopsOnShutdown(t *testing.T) {
	var wg sync.WaitGroup
	var calls, panics atomic.Int32

	opts := fastOptions(5)
	opts.IsShutdown = func() bool { return true }
	opts.OnPanic = func(string, int) { panics.Add(1) }

	RunWithPanicRecovery(context.Background(), "shutdown", &wg, func(context.Context) {
		calls.Add(1)
		panic("during teardown")
	}, opts)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("fn calls = %d, want 1", calls.Load())
	}
	if panics.Load() != 0 {
		t.Fatalf("OnPanic called %d times during shutdown", panics.Load())
	}
}

func TestRunWithPanicRecoveryCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var calls atomic.Int32

	opts := RecoveryOptions{
		InitialBackoff: time.Hour,
		MaxBackoff:     time.Hour,
		MaxRetries:     5,
		OnPanic:        func(string, int) { cancel() },
	}

	RunWithPanicRecovery(ctx, "cancel-backoff", &wg, func(context.Context) {
		calls.Add(1)
		panic("trigger backoff")
	}, opts)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancellation during backoff")
	}
	if calls.Load() != 1 {
		t.Fatalf("fn calls = %d, want 1", calls.Load())
	}
}

func TestWithDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   RecoveryOptions
		want RecoveryOptions
	}{
		{
			name: "zero values",
			want: RecoveryOptions{
				InitialBackoff: defaultInitialBackoff,
				MaxBackoff:     defaultMaxBackoff,
				MaxRetries:     defaultMaxRetries,
			},
		},
		{
			name: "max below initial is clamped",
			in:   RecoveryOptions{InitialBackoff: time.Second, MaxBackoff: time.Millisecond, MaxRetries: 2},
			want: RecoveryOptions{InitialBackoff: time.Second, MaxBackoff: time.Second, MaxRetries: 2},
		},
		{
			name: "negative values",
			in:   RecoveryOptions{InitialBackoff: -1, MaxBackoff: -1, MaxRetries: -1},
			want: RecoveryOptions{
				InitialBackoff: defaultInitialBackoff,
				MaxBackoff:     defaultMaxBackoff,
				MaxRetries:     defaultMaxRetries,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.withDefaults()
			if got.InitialBackoff != tt.want.InitialBackoff ||
				got.MaxBackoff != tt.want.MaxBackoff ||
				got.MaxRetries != tt.want.MaxRetries {
				t.Fatalf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		current time.Duration
		limit   time.Duration
		want    time.Duration
	}{
		{current: 100 * time.Millisecond, limit: time.Second, want: 200 * time.Millisecond},
		{current: 600 * time.Millisecond, limit: time.Second, want: time.Second},
		{current: time.Second, limit: time.Second, want: time.Second},
		{current: 0, limit: time.Second, want: defaultInitialBackoff},
		{current: time.Duration(1 << 62), limit: time.Duration(1<<63 - 1), want: time.Duration(1<<63 - 1)},
	}

	for _, tt := range tests {
		if got := nextBackoff(tt.current, tt.limit); got != tt.want {
			t.Errorf("nextBackoff(%v, %v) = %v, want %v", tt.current, tt.limit, got, tt.want)
		}
	}
}
