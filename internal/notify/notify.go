package notify

import (
	"encoding/json"
	"sync"
	"time"

	apperrors "houseofstone-client/internal/errors"
	"houseofstone-client/pkg/logger"
	"houseofstone-client/pkg/metrics"

	"github.com/google/uuid"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps unknown or empty values to SeverityInfo.
func ParseSeverity(s string) Severity {
	switch Severity(s) {
	case SeveritySuccess, SeverityError, SeverityWarning, SeverityInfo:
		return Severity(s)
	}
	return SeverityInfo
}

const (
	DefaultMaxItems = 5
	DefaultDuration = 5 * time.Second

	SuccessDuration = 4 * time.Second
	ErrorDuration   = 6 * time.Second
	WarningDuration = 5 * time.Second
	InfoDuration    = 4 * time.Second
)

type Notification struct {
	ID        string
	Severity  Severity
	Title     string
	Message   string
	Duration  time.Duration
	CreatedAt time.Time
}

// MarshalJSON renders durations in milliseconds and times as unix milliseconds.
func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        string   `json:"id"`
		Type      Severity `json:"type"`
		Title     string   `json:"title,omitempty"`
		Message   string   `json:"message"`
		Duration  int64    `json:"duration"`
		CreatedAt int64    `json:"createdAt"`
	}{
		ID:        n.ID,
		Type:      n.Severity,
		Title:     n.Title,
		Message:   n.Message,
		Duration:  n.Duration.Milliseconds(),
		CreatedAt: n.CreatedAt.UnixMilli(),
	})
}

type EventType string

const (
	EventPushed    EventType = "pushed"
	EventDismissed EventType = "dismissed"
	EventExpired   EventType = "expired"
	EventEvicted   EventType = "evicted"
	EventCleared   EventType = "cleared"
)

type Event struct {
	Type         EventType
	Notification Notification
}

type item struct {
	n     Notification
	timer *time.Timer
}

// Queue holds the visible notifications. It never holds more than its
// capacity; pushing onto a full queue evicts the oldest entry. Each entry
// removes itself when its duration elapses.
type Queue struct {
	mu              sync.Mutex
	items           []*item
	maxItems        int
	defaultDuration time.Duration
	closed          bool
	now             func() time.Time
	log             *logger.Logger

	// emitMu keeps observer delivery in mutation order.
	emitMu sync.Mutex
	subSeq int
	subs   map[int]func(Event)
}

type Option func(*Queue)

func WithMaxItems(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxItems = n
		}
	}
}

func WithDefaultDuration(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.defaultDuration = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(q *Queue) { q.log = l }
}

func NewQueue(opts ...Option) *Queue {
	q := &Queue{
		maxItems:        DefaultMaxItems,
		defaultDuration: DefaultDuration,
		now:             time.Now,
		log:             logger.Default(),
		subs:            make(map[int]func(Event)),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push appends a notification and returns its id. A non-positive duration
// uses the queue default. Push on a closed queue is a no-op returning "".
func (q *Queue) Push(severity Severity, title, message string, duration time.Duration) string {
	if duration <= 0 {
		duration = q.defaultDuration
	}
	n := Notification{
		ID:        uuid.NewString(),
		Severity:  ParseSeverity(string(severity)),
		Title:     title,
		Message:   message,
		Duration:  duration,
		CreatedAt: q.now(),
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ""
	}
	events := make([]Event, 0, 2)
	it := &item{n: n}
	q.items = append(q.items, it)
	for len(q.items) > q.maxItems {
		oldest := q.items[0]
		oldest.timer.Stop()
		q.items = q.items[1:]
		events = append(events, Event{Type: EventEvicted, Notification: oldest.n})
	}
	id := n.ID
	it.timer = time.AfterFunc(duration, func() { q.expire(id) })
	events = append(events, Event{Type: EventPushed, Notification: n})
	q.dispatch(events)

	metrics.NotificationsPushedTotal.WithLabelValues(string(n.Severity)).Inc()
	q.log.Debugf("Notification pushed: id=%s, type=%s, duration=%s", n.ID, n.Severity, duration)
	return n.ID
}

// Dismiss removes the notification with id. It reports whether one was removed.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	it := q.removeLocked(id)
	if it == nil {
		q.mu.Unlock()
		return false
	}
	it.timer.Stop()
	q.dispatch([]Event{{Type: EventDismissed, Notification: it.n}})
	return true
}

func (q *Queue) expire(id string) {
	q.mu.Lock()
	it := q.removeLocked(id)
	if it == nil {
		q.mu.Unlock()
		return
	}
	q.dispatch([]Event{{Type: EventExpired, Notification: it.n}})
}

// List returns the notifications in insertion order.
func (q *Queue) List() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	for i, it := range q.items {
		out[i] = it.n
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue) Clear() {
	q.mu.Lock()
	q.stopAllLocked()
	q.dispatch([]Event{{Type: EventCleared}})
}

// Close stops every pending timer and empties the queue.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.stopAllLocked()
	q.mu.Unlock()
}

// Subscribe registers fn for queue events, delivered in mutation order.
// fn runs while the queue is locked for delivery and must not call back
// into the queue.
func (q *Queue) Subscribe(fn func(Event)) func() {
	q.emitMu.Lock()
	defer q.emitMu.Unlock()
	q.subSeq++
	id := q.subSeq
	q.subs[id] = fn
	return func() {
		q.emitMu.Lock()
		defer q.emitMu.Unlock()
		delete(q.subs, id)
	}
}

func (q *Queue) Success(message, title string) string {
	return q.Push(SeveritySuccess, orDefault(title, "Success"), message, SuccessDuration)
}

// Error shows the user-facing text for err.
func (q *Queue) Error(err error, title string) string {
	return q.Push(SeverityError, orDefault(title, "Error"), apperrors.FriendlyMessage(err), ErrorDuration)
}

func (q *Queue) Warning(message, title string) string {
	return q.Push(SeverityWarning, orDefault(title, "Warning"), message, WarningDuration)
}

func (q *Queue) Info(message, title string) string {
	return q.Push(SeverityInfo, orDefault(title, "Info"), message, InfoDuration)
}

// dispatch must be called with q.mu held; it releases q.mu after taking
// emitMu so events from concurrent mutations are delivered in order.
func (q *Queue) dispatch(events []Event) {
	q.emitMu.Lock()
	q.mu.Unlock()
	defer q.emitMu.Unlock()
	for _, ev := range events {
		for _, fn := range q.subs {
			fn(ev)
		}
	}
}

func (q *Queue) removeLocked(id string) *item {
	for i, it := range q.items {
		if it.n.ID == id {
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return it
		}
	}
	return nil
}

func (q *Queue) stopAllLocked() {
	for _, it := range q.items {
		it.timer.Stop()
	}
	q.items = nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
