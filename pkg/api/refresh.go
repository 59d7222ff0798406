package api

import (
	"context"
	"errors"
	"net/http"

	"houseofstone-client/internal/session"
	"houseofstone-client/pkg/metrics"
)

const refreshPath = "/auth/refresh/"

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// recoverSession returns an access token newer than stale. If another caller
// already replaced stale it is returned without a network call; otherwise the
// caller starts or joins the single in-flight refresh.
func (c *Client) recoverSession(ctx context.Context, stale string) (string, error) {
	c.refreshMu.Lock()
	if cur, err := c.sessions.Load(context.WithoutCancel(ctx)); err == nil && cur.Access != "" && cur.Access != stale {
		c.refreshMu.Unlock()
		return cur.Access, nil
	}
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		return c.refresh()
	})
	c.refreshMu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			c.log.Debugf("Joined in-flight token refresh")
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", transportError("", "", ctx.Err())
	}
}

// refresh runs detached from any single caller so a canceled waiter cannot
// abort the refresh the others are waiting on.
func (c *Client) refresh() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	cur, err := c.sessions.Load(ctx)
	if errors.Is(err, session.ErrNoSession) {
		metrics.TokenRefreshTotal.WithLabelValues("no_session").Inc()
		return "", authError(http.MethodPost, refreshPath, msgLoginRequired, err)
	}
	if err != nil {
		c.log.Errorf("Failed to load session for refresh: error=%v", err)
		return "", c.expire(ctx, authError(http.MethodPost, refreshPath, msgSessionExpired, err))
	}
	if cur.Refresh == "" {
		metrics.TokenRefreshTotal.WithLabelValues("no_refresh_token").Inc()
		return "", c.expire(ctx, authError(http.MethodPost, refreshPath, msgLoginRequired, nil))
	}

	req := &request{method: http.MethodPost, path: refreshPath, contentType: "application/json"}
	req.body, _, err = encodeBody(refreshRequest{Refresh: cur.Refresh})
	if err != nil {
		return "", c.expire(ctx, authError(http.MethodPost, refreshPath, msgSessionExpired, err))
	}
	resp, err := c.send(ctx, req, "")
	if err != nil {
		c.log.Errorf("Token refresh failed: url=%s, error=%v", c.baseURL+refreshPath, err)
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return "", c.expire(ctx, authError(http.MethodPost, refreshPath, msgSessionExpired, err))
	}

	var tokens refreshResponse
	if err := resp.Decode(&tokens); err != nil || tokens.Access == "" {
		if err == nil {
			err = errors.New("refresh response has no access token")
		}
		c.log.Errorf("Failed to decode refresh response: url=%s, error=%v", c.baseURL+refreshPath, err)
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return "", c.expire(ctx, authError(http.MethodPost, refreshPath, msgSessionExpired, err))
	}

	c.refreshMu.Lock()
	_, err = c.sessions.ReplaceTokens(ctx, tokens.Access, tokens.Refresh)
	c.refreshMu.Unlock()
	if errors.Is(err, session.ErrNoSession) {
		// Logged out while the refresh was in flight; the new tokens are dropped.
		c.log.Printf("Session cleared during token refresh, discarding new tokens")
		metrics.TokenRefreshTotal.WithLabelValues("session_cleared").Inc()
		return "", authError(http.MethodPost, refreshPath, msgLoginRequired, err)
	}
	if err != nil {
		// The new token is still handed to waiters; the next request will
		// read the old token and refresh again.
		c.log.Errorf("Failed to persist refreshed session: error=%v", err)
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	c.log.Printf("Successfully refreshed access token")
	return tokens.Access, nil
}

// expire deletes the session, drops cached responses and notifies observers.
func (c *Client) expire(ctx context.Context, cause *Error) error {
	c.refreshMu.Lock()
	if err := c.sessions.Clear(ctx); err != nil {
		c.log.Errorf("Failed to clear expired session: error=%v", err)
	}
	c.cache.Clear()
	c.refreshMu.Unlock()

	c.log.Printf("Session expired: reason=%s", cause.Message)
	c.notifyExpired(cause)
	return cause
}
