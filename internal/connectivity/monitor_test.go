package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"houseofstone-client/internal/notify"
	"houseofstone-client/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMonitor(t *testing.T) (*Monitor, *notify.Queue, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	q := notify.NewQueue(notify.WithMaxItems(10))
	t.Cleanup(q.Close)
	return NewMonitor(q, WithClock(clock.Now)), q, clock
}

func TestOfflineThenOnline(t *testing.T) {
	m, q, clock := newMonitor(t)

	assert.True(t, m.SetOnline(false))
	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.SeverityError, list[0].Severity)
	assert.Equal(t, "You're offline", list[0].Title)
	assert.Equal(t, "Check your internet connection", list[0].Message)
	assert.Equal(t, 10*time.Second, list[0].Duration)
	assert.True(t, m.Status().WasOffline)

	clock.Advance(time.Second)
	assert.True(t, m.SetOnline(true))
	list = q.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Back online", list[1].Title)
	assert.Equal(t, notify.SeveritySuccess, list[1].Severity)
	assert.Equal(t, 5*time.Second, list[1].Duration)
	assert.False(t, m.Status().WasOffline)
}

func TestOnlineWithoutOutageIsSilent(t *testing.T) {
	m, q, _ := newMonitor(t)
	assert.False(t, m.SetOnline(true))
	assert.Zero(t, q.Len())
}

func TestOfflineDedupWithinWindow(t *testing.T) {
	m, q, clock := newMonitor(t)

	assert.True(t, m.SetOnline(false))
	clock.Advance(2 * time.Second)
	m.SetOnline(true) // "online" emitted
	clock.Advance(2 * time.Second)
	assert.False(t, m.SetOnline(false), "offline again within 10s is suppressed")

	offline := 0
	for _, n := range q.List() {
		if n.Title == "You're offline" {
			offline++
		}
	}
	assert.Equal(t, 1, offline)

	clock.Advance(6 * time.Second)
	m.SetOnline(true)
	assert.True(t, m.SetOnline(false), "window elapsed")
}

func TestSuppressedOnlineStillClearsFlag(t *testing.T) {
	m, _, clock := newMonitor(t)
	m.SetOnline(false)
	m.SetOnline(true)
	clock.Advance(time.Second)
	m.SetOnline(false)
	assert.False(t, m.SetOnline(true), "online within window is suppressed")
	assert.False(t, m.Status().WasOffline)
}

func TestNewNotificationReplacesSameType(t *testing.T) {
	m, q, clock := newMonitor(t)

	require.True(t, m.ReportQuality(Quality{EffectiveType: "2g"}))
	clock.Advance(11 * time.Second)
	require.True(t, m.ReportSlowRequest("GET", "/properties/", 6*time.Second))

	list := q.List()
	require.Len(t, list, 1, "previous slow toast dismissed")
	assert.Equal(t, "Slow connection detected", list[0].Title)
	assert.Equal(t, "Request took longer than expected", list[0].Message)
}

func TestReportQualityThresholds(t *testing.T) {
	tests := []struct {
		name string
		q    Quality
		slow bool
	}{
		{"slow-2g", Quality{EffectiveType: "slow-2g"}, true},
		{"2g", Quality{EffectiveType: "2g"}, true},
		{"4g", Quality{EffectiveType: "4g", DownlinkMbps: 10, RTT: 50 * time.Millisecond}, false},
		{"low downlink", Quality{DownlinkMbps: 0.4}, true},
		{"downlink at threshold", Quality{DownlinkMbps: 0.5}, false},
		{"high rtt", Quality{RTT: 1001 * time.Millisecond}, true},
		{"rtt at threshold", Quality{RTT: time.Second}, false},
		{"unknown", Quality{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, q, _ := newMonitor(t)
			assert.Equal(t, tt.slow, m.ReportQuality(tt.q))
			assert.Equal(t, tt.slow, q.Len() == 1)
			assert.Equal(t, tt.q, m.Status().Quality)
		})
	}
}

func TestSlowSignalsIgnoredWhileOffline(t *testing.T) {
	m, q, _ := newMonitor(t)
	m.SetOnline(false)

	assert.False(t, m.ReportQuality(Quality{EffectiveType: "2g"}))
	assert.False(t, m.ReportSlowRequest("GET", "/properties/", time.Minute))
	assert.Equal(t, 1, q.Len())
}

func TestSlowDedupAcrossSignals(t *testing.T) {
	m, q, clock := newMonitor(t)
	for i := 0; i < 20; i++ {
		m.ReportSlowRequest("GET", "/properties/", 6*time.Second)
		m.ReportQuality(Quality{RTT: 2 * time.Second})
		clock.Advance(400 * time.Millisecond)
	}
	// 8s of signals fit in a single window.
	assert.Equal(t, 1, q.Len())
	_, ok := m.Status().LastEmitted[TypeSlow]
	assert.True(t, ok)
}

func TestProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	m, q, _ := newMonitor(t)
	m.SetOnline(false)
	p := NewProber(m, config.ConnectivityConfig{ProbeURL: srv.URL, ProbeTimeout: time.Second}, nil)

	require.NoError(t, p.Probe(context.Background()))
	assert.True(t, m.Online())
	assert.Equal(t, 2, q.Len(), "offline then back online")

	srv.Close()
	assert.Error(t, p.Probe(context.Background()))
	assert.False(t, m.Online())
}

func TestProberRunStopsOnCancel(t *testing.T) {
	var hits sync.WaitGroup
	hits.Add(1)
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(hits.Done)
	}))
	defer srv.Close()

	m, _, _ := newMonitor(t)
	p := NewProber(m, config.ConnectivityConfig{ProbeURL: srv.URL, ProbeInterval: time.Hour}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	hits.Wait()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("prober did not stop")
	}
}
