// Package toast is the transient notification queue of the client.
// Every toast removes itself after its display duration.
package toast

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// DefaultDuration is how long a toast stays when no duration is given.
const DefaultDuration = 3 * time.Second

// Category classifies a toast for rendering.
type Category string

const (
	Info    Category = "info"
	Success Category = "success"
	Warning Category = "warning"
	Error   Category = "error"
)

// Toast is one queued notification.
type Toast struct {
	ID        string
	Message   string
	Category  Category
	CreatedAt time.Time
}

// EventKind tells subscribers what happened to a toast.
type EventKind int

const (
	Added EventKind = iota
	Removed
)

// Event is published to subscribers on every queue change.
type Event struct {
	Kind  EventKind
	Toast Toast
}

// Timer is the handle of a scheduled removal.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Notifier holds the live toasts. It is safe for concurrent use.
type Notifier struct {
	mu       sync.Mutex
	toasts   []Toast
	timers   map[string]Timer
	subs     map[chan Event]struct{}
	entropy  io.Reader
	closed   bool
	duration time.Duration

	now       func() time.Time
	afterFunc AfterFunc
	log       *zap.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// WithAfterFunc replaces time.AfterFunc for scheduling removals.
func WithAfterFunc(f AfterFunc) Option {
	return func(n *Notifier) { n.afterFunc = f }
}

// WithDefaultDuration changes the duration used when Add gets zero.
func WithDefaultDuration(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.duration = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(n *Notifier) { n.log = l }
}

// New creates an empty notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		timers:    make(map[string]Timer),
		subs:      make(map[chan Event]struct{}),
		entropy:   ulid.Monotonic(rand.Reader, 0),
		duration:  DefaultDuration,
		now:       time.Now,
		afterFunc: realAfterFunc,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Add queues a toast and schedules its removal after duration. An empty
// category means Info and a non-positive duration means the default.
// It returns the toast id, or an empty string once the notifier is closed.
func (n *Notifier) Add(message string, category Category, duration time.Duration) string {
	if category == "" {
		category = Info
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return ""
	}
	if duration <= 0 {
		duration = n.duration
	}
	now := n.now()
	id := ulid.MustNew(ulid.Timestamp(now), n.entropy).String()
	t := Toast{ID: id, Message: message, Category: category, CreatedAt: now}
	n.toasts = append(n.toasts, t)
	n.publish(Event{Kind: Added, Toast: t})
	n.mu.Unlock()

	// Scheduled without mu: the timer may fire before afterFunc returns.
	timer := n.afterFunc(duration, func() { n.Remove(id) })
	n.mu.Lock()
	if n.closed || !n.liveLocked(id) {
		timer.Stop()
	} else {
		n.timers[id] = timer
	}
	n.mu.Unlock()

	n.log.Debug("toast added", zap.String("id", id), zap.String("category", string(category)))
	return id
}

func (n *Notifier) Info(message string) string    { return n.Add(message, Info, 0) }
func (n *Notifier) Success(message string) string { return n.Add(message, Success, 0) }
func (n *Notifier) Warning(message string) string { return n.Add(message, Warning, 0) }
func (n *Notifier) Error(message string) string   { return n.Add(message, Error, 0) }

// Remove drops the toast with id. Unknown ids are ignored.
func (n *Notifier) Remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.timers[id]; ok {
		timer.Stop()
		delete(n.timers, id)
	}
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			n.publish(Event{Kind: Removed, Toast: t})
			return
		}
	}
}

func (n *Notifier) liveLocked(id string) bool {
	for _, t := range n.toasts {
		if t.ID == id {
			return true
		}
	}
	return false
}

// List returns the live toasts in insertion order.
func (n *Notifier) List() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// Subscribe returns a channel receiving queue changes and a function that
// ends the subscription. Events are dropped for subscribers that fall behind.
func (n *Notifier) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		close(ch)
		return ch, func() {}
	}
	n.subs[ch] = struct{}{}
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[ch]; ok {
			delete(n.subs, ch)
			close(ch)
		}
	}
}

// Close cancels every pending removal, empties the queue and ends all
// subscriptions. It is safe to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, timer := range n.timers {
		timer.Stop()
		delete(n.timers, id)
	}
	n.toasts = nil
	for ch := range n.subs {
		delete(n.subs, ch)
		close(ch)
	}
}

// publish must be called with mu held.
func (n *Notifier) publish(ev Event) {
	for ch := range n.subs {
		select {
		case ch <- ev:
		default:
			n.log.Debug("toast subscriber lagging, event dropped")
		}
	}
}
