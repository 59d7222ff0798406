package connectivity

import (
	"sync"
	"time"

	"houseofstone-client/internal/notify"
	"houseofstone-client/pkg/logger"
)

// Type is the kind of connectivity notification.
type Type string

const (
	TypeOffline Type = "offline"
	TypeSlow    Type = "slow"
	TypeOnline  Type = "online"
)

const (
	DefaultDedupWindow = 10 * time.Second

	offlineDuration = 10 * time.Second
	defaultDuration = 5 * time.Second

	slowDownlinkMbps = 0.5
	slowRTT          = time.Second
)

// Quality is the latest connection-quality estimate. Zero values are unknown.
type Quality struct {
	EffectiveType string
	DownlinkMbps  float64
	RTT           time.Duration
}

// Degraded reports whether any signal crosses its slow threshold.
func (q Quality) Degraded() bool {
	switch q.EffectiveType {
	case "slow-2g", "2g":
		return true
	}
	if q.DownlinkMbps > 0 && q.DownlinkMbps < slowDownlinkMbps {
		return true
	}
	return q.RTT > slowRTT
}

// Notifier is the subset of *notify.Queue the monitor needs.
type Notifier interface {
	Push(severity notify.Severity, title, message string, duration time.Duration) string
	Dismiss(id string) bool
}

type Status struct {
	Online      bool
	WasOffline  bool
	Quality     Quality
	LastEmitted map[Type]time.Time
}

// Monitor turns connectivity transitions and quality signals into
// notifications. A type is emitted at most once per dedup window; emitting a
// type replaces that type's previous notification.
type Monitor struct {
	mu          sync.Mutex
	online      bool
	wasOffline  bool
	quality     Quality
	lastEmitted map[Type]time.Time
	lastID      map[Type]string

	window   time.Duration
	notifier Notifier
	now      func() time.Time
	log      *logger.Logger
}

type Option func(*Monitor)

// WithDedupWindow sets the per-type window. Zero disables de-duplication.
func WithDedupWindow(d time.Duration) Option {
	return func(m *Monitor) {
		if d >= 0 {
			m.window = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithLogger(l *logger.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

// NewMonitor starts in the online state.
func NewMonitor(n Notifier, opts ...Option) *Monitor {
	m := &Monitor{
		online:      true,
		lastEmitted: make(map[Type]time.Time),
		lastID:      make(map[Type]string),
		window:      DefaultDedupWindow,
		notifier:    n,
		now:         time.Now,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOnline records a connectivity transition. Repeating the current state
// is ignored. It reports whether a notification was emitted.
func (m *Monitor) SetOnline(online bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if online == m.online {
		return false
	}
	m.online = online
	if !online {
		m.wasOffline = true
		m.log.Warnf("Connectivity lost")
		return m.emitLocked(TypeOffline, notify.SeverityError, "You're offline", "Check your internet connection", offlineDuration)
	}

	m.log.Printf("Connectivity restored")
	if !m.wasOffline {
		return false
	}
	m.wasOffline = false
	return m.emitLocked(TypeOnline, notify.SeveritySuccess, "Back online", "Your connection has been restored", defaultDuration)
}

// ReportQuality stores the estimate and emits a slow-connection notification
// when it is degraded and the monitor believes it is online.
func (m *Monitor) ReportQuality(q Quality) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.quality = q
	if !m.online || !q.Degraded() {
		return false
	}
	return m.emitLocked(TypeSlow, notify.SeverityWarning, "Slow connection", "Some features may take longer to load", defaultDuration)
}

// ReportSlowRequest treats a slow or timed-out request as a slow-connection
// signal while online.
func (m *Monitor) ReportSlowRequest(method, path string, elapsed time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.online {
		return false
	}
	m.log.Debugf("Slow request reported: method=%s, path=%s, elapsed=%s", method, path, elapsed)
	return m.emitLocked(TypeSlow, notify.SeverityWarning, "Slow connection detected", "Request took longer than expected", defaultDuration)
}

func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	last := make(map[Type]time.Time, len(m.lastEmitted))
	for t, at := range m.lastEmitted {
		last[t] = at
	}
	return Status{Online: m.online, WasOffline: m.wasOffline, Quality: m.quality, LastEmitted: last}
}

func (m *Monitor) emitLocked(t Type, severity notify.Severity, title, message string, duration time.Duration) bool {
	now := m.now()
	if last, ok := m.lastEmitted[t]; ok && m.window > 0 && now.Sub(last) < m.window {
		m.log.Debugf("Connectivity notification suppressed: type=%s, since_last=%s", t, now.Sub(last))
		return false
	}
	m.lastEmitted[t] = now

	if prev, ok := m.lastID[t]; ok {
		m.notifier.Dismiss(prev)
	}
	m.lastID[t] = m.notifier.Push(severity, title, message, duration)
	return true
}
