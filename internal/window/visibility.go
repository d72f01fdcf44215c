// Package window holds shared window state mutated by shortcut actions and
// UI commands.
package window

import "sync"

// VisibilityState records whether the main window is intended to be hidden.
// It reflects the last state set through it, not the OS-reported state.
type VisibilityState struct {
	mu     sync.Mutex
	hidden bool
}

// NewVisibilityState returns a state that starts visible.
func NewVisibilityState() *VisibilityState {
	return &VisibilityState{}
}

// Hidden reports the last recorded state.
func (s *VisibilityState) Hidden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden
}

// SetHidden records hidden and reports whether the value changed.
func (s *VisibilityState) SetHidden(hidden bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := s.hidden != hidden
	s.hidden = hidden
	return changed
}

// Toggle flips the state and returns the new value.
func (s *VisibilityState) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hidden = !s.hidden
	return s.hidden
}
