package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"houseofstone-client/internal/session"
)

// Credentials identify a user by email or username.
type Credentials struct {
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password"`
}

type Registration struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type authResponse struct {
	Access  string          `json:"access"`
	Refresh string          `json:"refresh"`
	User    json.RawMessage `json:"user"`
}

// Login exchanges credentials for a session and persists it. It is sent
// without a bearer token, so a 401 is returned as-is and never refreshes.
func (c *Client) Login(ctx context.Context, creds Credentials) (*session.Session, error) {
	return c.authenticate(ctx, "/auth/login/", creds)
}

func (c *Client) Register(ctx context.Context, reg Registration) (*session.Session, error) {
	return c.authenticate(ctx, "/auth/register/", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*session.Session, error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body, WithoutAuth())
	if err != nil {
		return nil, err
	}
	var ar authResponse
	if err := resp.Decode(&ar); err != nil {
		return nil, err
	}
	if ar.Access == "" {
		return nil, fmt.Errorf("%s: response has no access token", path)
	}

	s := &session.Session{Access: ar.Access, Refresh: ar.Refresh, User: ar.User}
	c.refreshMu.Lock()
	err = c.sessions.Save(ctx, s)
	c.refreshMu.Unlock()
	if err != nil {
		return nil, err
	}
	// A new identity must not see responses cached for the previous one.
	c.cache.Clear()
	c.log.Printf("Session started: path=%s", path)
	return s, nil
}

// Logout tells the server (best effort), then deletes the local session and
// clears the response cache. Only local failures are returned.
func (c *Client) Logout(ctx context.Context) error {
	if c.sessions.AccessToken(ctx) != "" {
		if _, err := c.Do(ctx, http.MethodPost, "/auth/logout/", nil, withoutRefresh()); err != nil {
			c.log.Debugf("Server logout failed, clearing local session anyway: error=%v", err)
		}
	}
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.cache.Clear()
	return c.sessions.Clear(ctx)
}

// Refresh forces a token refresh, sharing any refresh already in flight.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.recoverSession(ctx, c.sessions.AccessToken(ctx))
}

// EnsureSession returns the current session, refreshing first when the access
// token's exp claim has passed.
func (c *Client) EnsureSession(ctx context.Context) (*session.Session, error) {
	s, err := c.sessions.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return nil, authError(http.MethodGet, "", msgLoginRequired, err)
	}
	if err != nil {
		return nil, err
	}
	if !s.AccessExpired(c.now()) {
		return s, nil
	}
	c.log.Debugf("Access token expired, refreshing before use")
	if _, err := c.recoverSession(ctx, s.Access); err != nil {
		return nil, err
	}
	return c.sessions.Load(ctx)
}
