package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"houseofstone-client/pkg/storage"
)

// ErrNoSession is returned when no session record is persisted.
var ErrNoSession = errors.New("no active session")

// Session is the persisted auth record. It is always replaced whole.
type Session struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user,omitempty"`
}

// AccessExpiry returns the exp claim of the access token.
func (s *Session) AccessExpiry() (time.Time, error) {
	return ExpiresAt(s.Access)
}

// AccessExpired reports whether the access token is expired at now.
// Tokens without a readable exp claim count as expired.
func (s *Session) AccessExpired(now time.Time) bool {
	return IsExpired(s.Access, now)
}

// Manager reads and writes the session record under storage.KeyAuth.
type Manager struct {
	store storage.Store
	mu    sync.Mutex
}

func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

func (m *Manager) Load(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Session
	err := m.store.Get(ctx, storage.KeyAuth, &s)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return &s, nil
}

// AccessToken returns the persisted access token, or "" when there is none.
func (m *Manager) AccessToken(ctx context.Context) string {
	s, err := m.Load(ctx)
	if err != nil {
		return ""
	}
	return s.Access
}

func (m *Manager) Save(ctx context.Context, s *Session) error {
	if s == nil || s.Access == "" {
		return errors.New("session requires an access token")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Set(ctx, storage.KeyAuth, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ReplaceTokens swaps in a new access token and, when non-empty, a new
// refresh token, keeping the user profile. It returns ErrNoSession when the
// record was deleted, so a late refresh cannot bring back a logged-out session.
func (m *Manager) ReplaceTokens(ctx context.Context, access, refresh string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var cur Session
	err := m.store.Get(ctx, storage.KeyAuth, &cur)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	next := Session{Access: access, Refresh: cur.Refresh, User: cur.User}
	if refresh != "" {
		next.Refresh = refresh
	}
	if err := m.store.Set(ctx, storage.KeyAuth, &next); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return &next, nil
}

func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Delete(ctx, storage.KeyAuth); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
