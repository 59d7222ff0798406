package api

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"houseofstone-client/internal/session"
	"houseofstone-client/pkg/cache"
	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// SlowRequest describes a request that exceeded the slow threshold or timed out.
type SlowRequest struct {
	Method   string
	Path     string
	Elapsed  time.Duration
	TimedOut bool
}

// Client talks to the backend REST API. It attaches the persisted bearer
// token to every request, caches GET responses, and recovers from expired
// access tokens with at most one refresh call in flight.
type Client struct {
	baseURL       string
	timeout       time.Duration
	slowThreshold time.Duration
	httpClient    *http.Client
	sessions      *session.Manager
	cache         *cache.ResponseCache
	log           *logger.Logger
	now           func() time.Time

	// refreshMu makes "is my token stale" plus joining the in-flight refresh
	// atomic with respect to the refresh saving or clearing the session.
	refreshMu sync.Mutex
	refreshes singleflight.Group

	obsMu     sync.RWMutex
	obsSeq    int
	onExpired map[int]func(error)
	onSlow    map[int]func(SlowRequest)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithResponseCache replaces the cache built from config.
func WithResponseCache(rc *cache.ResponseCache) Option {
	return func(c *Client) { c.cache = rc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new API client
func NewClient(cfg config.APIConfig, sessions *session.Manager, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:       timeout,
		slowThreshold: cfg.SlowRequestThreshold,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		sessions:  sessions,
		cache:     cache.NewResponseCache(cfg.CacheTTL, cfg.CacheMaxEntries),
		log:       logger.Default(),
		now:       time.Now,
		onExpired: make(map[int]func(error)),
		onSlow:    make(map[int]func(SlowRequest)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cache exposes the response cache, mainly for invalidation by collaborators.
func (c *Client) Cache() *cache.ResponseCache { return c.cache }

func (c *Client) Sessions() *session.Manager { return c.sessions }

// OnSessionExpired registers fn to run once per irrecoverable refresh failure,
// before the waiting requests are rejected. fn must not issue requests through
// this client synchronously. The returned func unregisters it.
func (c *Client) OnSessionExpired(fn func(error)) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.obsSeq++
	id := c.obsSeq
	c.onExpired[id] = fn
	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.onExpired, id)
	}
}

// OnSlowRequest registers fn for requests slower than the configured threshold
// and for timeouts.
func (c *Client) OnSlowRequest(fn func(SlowRequest)) func() {
	c.obsMu.Lock()
	defer c.obsMu.Unlock()
	c.obsSeq++
	id := c.obsSeq
	c.onSlow[id] = fn
	return func() {
		c.obsMu.Lock()
		defer c.obsMu.Unlock()
		delete(c.onSlow, id)
	}
}

func (c *Client) notifyExpired(err error) {
	c.obsMu.RLock()
	fns := make([]func(error), 0, len(c.onExpired))
	for _, fn := range c.onExpired {
		fns = append(fns, fn)
	}
	c.obsMu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

func (c *Client) notifySlow(sr SlowRequest) {
	c.obsMu.RLock()
	fns := make([]func(SlowRequest), 0, len(c.onSlow))
	for _, fn := range c.onSlow {
		fns = append(fns, fn)
	}
	c.obsMu.RUnlock()
	for _, fn := range fns {
		fn(sr)
	}
}
