package shortcuts

import (
	"log/slog"
	"maps"
	"slices"
	"sort"
	"sync"
)

// Entry is one action binding as stored in the registry.
type Entry struct {
	ActionID string `json:"action_id"`
	Shortcut string `json:"shortcut"`
}

// commitHook runs inside the registry lock just before a new mapping is
// swapped in. Tests use it to simulate a panic mid-mutation.
var commitHook func()

// Registry maps action ids to shortcut strings.
//
// All access goes through the registry lock. Updates build the replacement
// outside the lock and swap it in, so the committed mapping is never
// partially written. A panic while the lock is held marks the registry as
// poisoned; the next holder logs it and keeps serving the last committed
// mapping instead of refusing to dispatch.
type Registry struct {
	mu       sync.Mutex
	entries  []Entry // sorted by ActionID, replaced wholesale
	poisoned bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Update replaces the full set of bindings. Shortcut strings are stored as
// given; callers validate them first. Unparseable strings never match.
func (r *Registry) Update(entries map[string]string) {
	next := make([]Entry, 0, len(entries))
	for _, id := range slices.Sorted(maps.Keys(entries)) {
		next = append(next, Entry{ActionID: id, Shortcut: entries[id]})
	}
	r.withLock(func() {
		if commitHook != nil {
			commitHook()
		}
		r.entries = next
	})
	slog.Debug("[DEBUG-shortcuts] registry updated", "count", len(next))
}

// Snapshot returns a point-in-time copy of the mapping.
func (r *Registry) Snapshot() map[string]string {
	out := map[string]string{}
	r.withLock(func() {
		for _, e := range r.entries {
			out[e.ActionID] = e.Shortcut
		}
	})
	return out
}

// Entries returns a copy of the bindings in dispatch order.
func (r *Registry) Entries() []Entry {
	var out []Entry
	r.withLock(func() {
		out = slices.Clone(r.entries)
	})
	return out
}

// Get returns the shortcut bound to actionID.
func (r *Registry) Get(actionID string) (string, bool) {
	var (
		shortcut string
		found    bool
	)
	r.withLock(func() {
		for _, e := range r.entries {
			if e.ActionID == actionID {
				shortcut, found = e.Shortcut, true
				return
			}
		}
	})
	return shortcut, found
}

// Len returns the number of stored bindings.
func (r *Registry) Len() int {
	n := 0
	r.withLock(func() { n = len(r.entries) })
	return n
}

// Validate reports whether shortcut parses into a key combination.
// It does not register anything.
func (r *Registry) Validate(shortcut string) bool {
	return Validate(shortcut)
}

// Validate reports whether shortcut parses into a key combination.
func Validate(shortcut string) bool {
	_, err := ParseCombo(shortcut)
	return err == nil
}

// Duplicates reports canonical combos bound to more than one action.
// Unparseable entries are ignored.
func (r *Registry) Duplicates() map[string][]string {
	return FindDuplicates(r.Entries())
}

// FindDuplicates groups entries whose shortcuts parse to the same combo.
// Action ids in each group are sorted.
func FindDuplicates(entries []Entry) map[string][]string {
	byCombo := map[string][]string{}
	for _, e := range entries {
		combo, err := ParseCombo(e.Shortcut)
		if err != nil {
			continue
		}
		key := combo.String()
		byCombo[key] = append(byCombo[key], e.ActionID)
	}
	out := map[string][]string{}
	for key, ids := range byCombo {
		if len(ids) > 1 {
			sort.Strings(ids)
			out[key] = ids
		}
	}
	return out
}

func (r *Registry) withLock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.poisoned {
		slog.Warn("[WARN-shortcuts] registry lock poisoned by an earlier panic, continuing with last committed mapping",
			"entries", len(r.entries))
		r.poisoned = false
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.poisoned = true
			panic(rec)
		}
	}()
	fn()
}
