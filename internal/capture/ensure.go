package capture

import "log/slog"

// EnsureStatus is the outcome of Ensure.
type EnsureStatus string

const (
	EnsureSkipped    EnsureStatus = "skipped"
	EnsureEnabled    EnsureStatus = "enabled"
	EnsureUnverified EnsureStatus = "unverified"
	EnsureFailed     EnsureStatus = "failed"
)

const osRequirementHint = "This feature requires Windows 10 build 19041+ or Windows 11"

// Report describes what Ensure did.
type Report struct {
	Status  EnsureStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Err     error        `json:"-"`
}

// Ensure enables protection and verifies it took effect. It never fails the
// caller: problems are logged and returned as a diagnostic report.
func Ensure(g Guard, h Handle) Report {
	if g == nil || !g.Supported() {
		return Report{Status: EnsureSkipped}
	}

	if err := g.Enable(h); err != nil {
		slog.Warn("[capture] failed to enable screen protection", "error", err, "hint", osRequirementHint)
		return Report{
			Status:  EnsureFailed,
			Message: err.Error() + ". " + osRequirementHint + ".",
			Err:     err,
		}
	}

	enabled, err := g.IsEnabled(h)
	if err != nil || !enabled {
		slog.Warn("[capture] screen protection could not be verified", "error", err, "hint", osRequirementHint)
		msg := "Screen capture protection was requested but is not active. " + osRequirementHint + "."
		if err != nil {
			msg = err.Error() + ". " + osRequirementHint + "."
		}
		return Report{Status: EnsureUnverified, Message: msg, Err: err}
	}

	slog.Info("[capture] screen capture protection enabled")
	return Report{Status: EnsureEnabled}
}
