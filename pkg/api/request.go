package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"houseofstone-client/pkg/cache"
	"houseofstone-client/pkg/metrics"
)

// Response is a successful (2xx) API response, or a cached copy of one.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	Cached bool
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type requestOptions struct {
	params    url.Values
	cache     *bool
	auth      bool
	noRefresh bool
	headers   http.Header
}

type RequestOption func(*requestOptions)

func WithQuery(key, value string) RequestOption {
	return func(o *requestOptions) { o.params.Add(key, value) }
}

func WithParams(params url.Values) RequestOption {
	return func(o *requestOptions) {
		for k, vs := range params {
			o.params[k] = append(o.params[k], vs...)
		}
	}
}

// WithCache overrides the default caching policy, which caches GETs only.
// Enabling it on other methods has no effect.
func WithCache(enabled bool) RequestOption {
	return func(o *requestOptions) { o.cache = &enabled }
}

// WithoutAuth sends no bearer token and never triggers a token refresh.
func WithoutAuth() RequestOption {
	return func(o *requestOptions) { o.auth = false }
}

func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) { o.headers.Add(key, value) }
}

// withoutRefresh sends the bearer token but treats a 401 as final.
func withoutRefresh() RequestOption {
	return func(o *requestOptions) { o.noRefresh = true }
}

type request struct {
	method      string
	path        string
	query       string
	body        []byte
	contentType string
	headers     http.Header
	auth        bool
	noRefresh   bool
}

// Do issues method on path. GET responses are served from and stored in the
// response cache unless disabled; successful mutations invalidate the cache
// entries under path and the list views of its parent collection.
func (c *Client) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	o := requestOptions{params: url.Values{}, auth: true, headers: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}
	cacheable := method == http.MethodGet
	if o.cache != nil {
		cacheable = cacheable && *o.cache
	}

	key := cache.NewKey(path, o.params)
	if cacheable {
		if payload, ok := c.cache.Get(key); ok {
			c.log.Debugf("Cache hit: key=%s", key)
			return &Response{Status: http.StatusOK, Body: payload, Cached: true}, nil
		}
	}

	payload, contentType, err := encodeBody(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}

	req := &request{
		method:      method,
		path:        key.Path,
		query:       key.Query,
		body:        payload,
		contentType: contentType,
		headers:     o.headers,
		auth:        o.auth,
		noRefresh:   o.noRefresh,
	}
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}

	if cacheable {
		c.cache.Set(key, resp.Body)
	}
	if isMutation(method) {
		if n := c.cache.InvalidatePath(key.Path); n > 0 {
			c.log.Debugf("Invalidated cached responses: path=%s, entries=%d", key.Path, n)
		}
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, nil, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, body, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, body, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, path, body, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, opts...)
}

func isMutation(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// execute sends req with the current token. A 401 starts (or joins) a token
// refresh and the request is replayed exactly once with the new token.
func (c *Client) execute(ctx context.Context, req *request) (*Response, error) {
	token := ""
	if req.auth {
		token = c.sessions.AccessToken(ctx)
	}

	resp, err := c.send(ctx, req, token)
	if err == nil || !req.auth || req.noRefresh || !IsKind(err, KindAuth) {
		return resp, err
	}

	c.log.Debugf("Unauthorized response, recovering session: method=%s, path=%s", req.method, req.path)
	fresh, rerr := c.recoverSession(ctx, token)
	if rerr != nil {
		return nil, withRequest(rerr, req)
	}

	resp, err = c.send(ctx, req, fresh)
	if IsKind(err, KindAuth) {
		c.log.Errorf("Replayed request still unauthorized: method=%s, path=%s", req.method, req.path)
		return nil, authError(req.method, req.path, msgSessionExpired, err)
	}
	return resp, err
}

func withRequest(err error, req *request) error {
	if e, ok := err.(*Error); ok {
		cp := *e
		cp.Method, cp.Path = req.method, req.path
		return &cp
	}
	return err
}

// send performs a single HTTP attempt.
func (c *Client) send(ctx context.Context, req *request, token string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + req.path
	if req.query != "" {
		target += "?" + req.query
	}

	var body io.Reader
	if len(req.body) > 0 {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		c.log.Errorf("Failed to create request: method=%s, url=%s, error=%v", req.method, target, err)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	for k, vs := range req.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		elapsed := time.Since(start)
		apiErr := transportError(req.method, req.path, err)
		c.record(req, "error", elapsed)
		if apiErr.Kind == KindTimeout {
			c.notifySlow(SlowRequest{Method: req.method, Path: req.path, Elapsed: elapsed, TimedOut: true})
		}
		c.log.Errorf("Request failed: method=%s, url=%s, kind=%s, error=%v", req.method, target, apiErr.Kind, err)
		return nil, apiErr
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		apiErr := transportError(req.method, req.path, err)
		c.record(req, "error", elapsed)
		c.log.Errorf("Failed to read response body: method=%s, url=%s, status=%d, error=%v", req.method, target, resp.StatusCode, err)
		return nil, apiErr
	}
	c.record(req, strconv.Itoa(resp.StatusCode), elapsed)

	if c.slowThreshold > 0 && elapsed >= c.slowThreshold {
		c.notifySlow(SlowRequest{Method: req.method, Path: req.path, Elapsed: elapsed})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := statusError(req.method, req.path, resp.StatusCode, data)
		if apiErr.Kind != KindAuth {
			c.log.Errorf("Request returned error status: method=%s, url=%s, status=%d, response=%s", req.method, target, resp.StatusCode, truncate(data, 512))
		}
		return nil, apiErr
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) record(req *request, status string, elapsed time.Duration) {
	endpoint := routeLabel(req.path)
	metrics.APIRequestsTotal.WithLabelValues(req.method, endpoint, status).Inc()
	metrics.APIRequestDuration.WithLabelValues(req.method, endpoint).Observe(elapsed.Seconds())
}

// routeLabel collapses ids and share tokens so metric labels stay bounded:
// /properties/5/stats/ becomes /properties/:id/stats/.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		switch {
		case seg == "":
		case i > 0 && segments[i-1] == "shared-properties":
			segments[i] = ":token"
		case isNumeric(seg):
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
