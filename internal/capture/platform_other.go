//go:build !windows

package capture

// NewPlatformGuard returns a no-op guard on platforms without display affinity.
func NewPlatformGuard() Guard {
	return NoopGuard{}
}

// FindWindow returns a zero handle; no-op guards ignore it.
func FindWindow(string) (Handle, error) {
	return 0, nil
}
