package diaglog

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DefaultCapacity bounds the number of retained entries.
const DefaultCapacity = 500

// Entry is one retained log record as shown to the UI.
type Entry struct {
	// Seq increases by one per entry for the life of the store.
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"ts"` // "20060102150405"
	Level     string `json:"level"`
	Message   string `json:"msg"`
	Source    string `json:"source"`
}

// ring is a fixed-capacity circular buffer that overwrites its oldest entry.
// Callers synchronize access.
type ring struct {
	buf   []Entry
	head  int
	count int
}

func newRing(capacity int) ring {
	return ring{buf: make([]Entry, max(capacity, 1))}
}

func (r *ring) push(e Entry) {
	n := len(r.buf)
	if r.count < n {
		r.buf[(r.head+r.count)%n] = e
		r.count++
		return
	}
	r.buf[r.head] = e
	r.head = (r.head + 1) % n
}

// snapshot returns the entries oldest first in a new slice.
func (r *ring) snapshot() []Entry {
	out := make([]Entry, r.count)
	first := min(len(r.buf)-r.head, r.count)
	copy(out, r.buf[r.head:r.head+first])
	copy(out[first:], r.buf[:r.count-first])
	return out
}

// Store retains recent entries and throttles change notifications.
type Store struct {
	mu         sync.Mutex
	seq        uint64
	entries    ring
	lastNotify time.Time

	notifyEvery time.Duration
	notify      func()
	now         func() time.Time
}

// NewStore creates a store holding up to capacity entries. notify, when set,
// is called outside the store lock at most once per notifyEvery. The
// notification carries no payload; receivers read Snapshot.
func NewStore(capacity int, notifyEvery time.Duration, notify func()) *Store {
	return &Store{
		entries:     newRing(capacity),
		notifyEvery: notifyEvery,
		notify:      notify,
		now:         time.Now,
	}
}

// Append records one entry. Its signature matches EntryFunc so a Store can
// be handed straight to NewTeeHandler. Must not log through slog.
func (s *Store) Append(ts time.Time, level slog.Level, msg string, group string) {
	entry := Entry{
		Timestamp: ts.Format("20060102150405"),
		Level:     strings.ToLower(level.String()),
		Message:   msg,
		Source:    group,
	}

	s.mu.Lock()
	s.seq++
	entry.Seq = s.seq
	s.entries.push(entry)
	shouldNotify := false
	if now := s.now(); now.Sub(s.lastNotify) >= s.notifyEvery {
		s.lastNotify = now
		shouldNotify = true
	}
	s.mu.Unlock()

	if shouldNotify && s.notify != nil {
		s.notify()
	}
}

// Snapshot returns retained entries, oldest first.
func (s *Store) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.snapshot()
}

// Len returns the number of retained entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries.count
}
