package capture

import (
	"strings"
	"syscall"
	"testing"
)

func TestEnsure(t *testing.T) {
	tests := []struct {
		name       string
		guard      func() Guard
		wantStatus EnsureStatus
		wantHint   bool
	}{
		{
			name:       "unsupported platform is skipped",
			guard:      func() Guard { return NoopGuard{} },
			wantStatus: EnsureSkipped,
		},
		{
			name:       "nil guard is skipped",
			guard:      func() Guard { return nil },
			wantStatus: EnsureSkipped,
		},
		{
			name:       "enabled and verified",
			guard:      func() Guard { return NewAffinityGuard(newFakeAffinityAPI()) },
			wantStatus: EnsureEnabled,
		},
		{
			name: "enable call fails",
			guard: func() Guard {
				api := newFakeAffinityAPI()
				api.setErr = syscall.Errno(87)
				return NewAffinityGuard(api)
			},
			wantStatus: EnsureFailed,
			wantHint:   true,
		},
		{
			name: "enable accepted but not applied",
			guard: func() Guard {
				api := newFakeAffinityAPI()
				api.ignoreSet = true
				return NewAffinityGuard(api)
			},
			wantStatus: EnsureUnverified,
			wantHint:   true,
		},
		{
			name: "verification read fails",
			guard: func() Guard {
				api := newFakeAffinityAPI()
				api.getErr = syscall.Errno(1400)
				return NewAffinityGuard(api)
			},
			wantStatus: EnsureUnverified,
			wantHint:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Ensure(tt.guard(), testHandle)
			if report.Status != tt.wantStatus {
				t.Fatalf("Status = %q, want %q (message %q)", report.Status, tt.wantStatus, report.Message)
			}
			if got := strings.Contains(report.Message, "19041"); got != tt.wantHint {
				t.Fatalf("message %q contains OS hint = %v, want %v", report.Message, got, tt.wantHint)
			}
		})
	}
}
