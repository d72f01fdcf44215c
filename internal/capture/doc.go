// Package capture excludes the application window from third-party screen
// capture. On Windows it drives the window display affinity; elsewhere every
// operation is a successful no-op so callers never branch on platform.
package capture
