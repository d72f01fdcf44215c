// Package singleinstance keeps a second hushdesk process from starting
// alongside the first.
package singleinstance

import "errors"

// ErrAlreadyRunning is returned by TryLock when another process holds the lock.
var ErrAlreadyRunning = errors.New("another instance is already running")
