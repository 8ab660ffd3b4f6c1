// Package notify implements the toast queue shown on every dashboard page:
// an insertion-ordered list of transient messages, each with its own
// auto-dismiss timer. Timers are created through an injected Scheduler so
// expiry can be driven deterministically in tests.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a notification for styling.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Valid reports whether s is one of the known severities.
func (s Severity) Valid() bool {
	switch s {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// DefaultTTL is the auto-dismiss delay when none is configured.
const DefaultTTL = 5 * time.Second

// Entry is one notification. Entries are values: the queue hands out copies
// and never changes an entry after it was pushed.
type Entry struct {
	ID        string
	Severity  Severity
	Title     string
	Message   string
	TTL       time.Duration
	CreatedAt time.Time
}

// Recorder receives queue events for metrics.
type Recorder interface {
	RecordNotification(severity string)
	RecordNotificationExpired()
}

// Queue is safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	entries  []Entry
	timers   map[string]Timer
	closed   bool
	sched    Scheduler
	now      func() time.Time
	ttl      time.Duration
	recorder Recorder
}

// Option configures a Queue.
type Option func(*Queue)

// WithScheduler replaces the wall-clock scheduler.
func WithScheduler(s Scheduler) Option {
	return func(q *Queue) { q.sched = s }
}

// WithClock replaces time.Now for CreatedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithDefaultTTL sets the TTL used by the Notifier helpers.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(q *Queue) { q.ttl = ttl }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(q *Queue) { q.recorder = r }
}

// NewQueue creates an empty queue.
func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		timers: make(map[string]Timer),
		sched:  RealScheduler{},
		now:    time.Now,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// DefaultTTL returns the TTL the Notifier helpers use.
func (q *Queue) DefaultTTL() time.Duration {
	return q.ttl
}

// Push appends a notification and, when ttl > 0, schedules its removal.
// ttl == 0 keeps the entry until it is removed or the queue is cleared.
// Pushing on a closed queue is a no-op that still returns the entry.
func (q *Queue) Push(severity Severity, title, message string, ttl time.Duration) Entry {
	if ttl < 0 {
		ttl = 0
	}

	e := Entry{
		ID:        uuid.NewString(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		TTL:       ttl,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return e
	}

	q.entries = append(q.entries, e)

	if ttl > 0 {
		id := e.ID
		q.timers[id] = q.sched.AfterFunc(ttl, func() { q.expire(id) })
	}

	if q.recorder != nil {
		q.recorder.RecordNotification(string(severity))
	}

	return e
}

// Remove deletes the entry with the given id. Unknown ids are ignored, so
// an expiry timer and a manual dismiss can race safely.
func (q *Queue) Remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.removeLocked(id)
}

// Clear drops every entry. Pending timers are left to fire; they find
// nothing to remove.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.entries = nil
	q.mu.Unlock()
}

// List returns the live entries in insertion order.
func (q *Queue) List() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, len(q.entries))
	copy(out, q.entries)
	return out
}

// Len returns the number of live entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

// Close stops every pending timer and rejects further pushes. Called when
// the owning workspace is torn down.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for id, t := range q.timers {
		t.Stop()
		delete(q.timers, id)
	}
	q.entries = nil
}

// expire is the timer callback for one entry.
func (q *Queue) expire(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.timers, id)
	if q.removeLocked(id) && q.recorder != nil {
		q.recorder.RecordNotificationExpired()
	}
}

// removeLocked deletes id from entries, preserving order. Caller holds mu.
func (q *Queue) removeLocked(id string) bool {
	for i, e := range q.entries {
		if e.ID == id {
			q.entries = append(q.entries[:i:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}
