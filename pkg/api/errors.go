package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
)

// Kind classifies request failures so callers can branch without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindTimeout
	KindNetworkUnreachable
	KindCanceled
	KindAuth
	KindValidation
	KindNotFound
	KindServer
	KindHTTP
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindNetworkUnreachable:
		return "NetworkUnreachable"
	case KindCanceled:
		return "Canceled"
	case KindAuth:
		return "AuthError"
	case KindValidation:
		return "ValidationError"
	case KindNotFound:
		return "NotFound"
	case KindServer:
		return "ServerError"
	case KindHTTP:
		return "HttpError"
	default:
		return "Unknown"
	}
}

const (
	msgTimeout        = "Request timeout. Please try again."
	msgServer         = "Server error. Please try again later."
	msgSessionExpired = "Your session has expired. Please log in again."
	msgLoginRequired  = "Please log in to continue."
	msgUnreachable    = "Unable to connect. Please check your internet connection."
)

// Error is returned by every failed request. Status and Body are set when the
// server answered; Err holds the transport or refresh cause otherwise.
type Error struct {
	Kind    Kind
	Method  string
	Path    string
	Status  int
	Body    []byte
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: %s (status %d)", e.Method, e.Path, e.Message, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Payload decodes the server error body, if any, as a JSON object.
func (e *Error) Payload() map[string]any {
	if len(e.Body) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(e.Body, &m); err != nil {
		return nil
	}
	return m
}

// Detail extracts the most specific server message from a DRF-style error
// body: "detail", then "non_field_errors", then the first field error.
func (e *Error) Detail() string {
	m := e.Payload()
	if m == nil {
		return ""
	}
	if d, ok := m["detail"].(string); ok {
		return d
	}
	if s := firstString(m["non_field_errors"]); s != "" {
		return s
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if s := firstString(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

// KindOf returns the Kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func statusError(method, path string, status int, body []byte) *Error {
	e := &Error{Method: method, Path: path, Status: status, Body: body, Message: http.StatusText(status)}
	switch {
	case status == http.StatusUnauthorized:
		e.Kind = KindAuth
	case status == http.StatusBadRequest:
		e.Kind = KindValidation
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status >= 500:
		e.Kind = KindServer
		e.Message = msgServer
	default:
		e.Kind = KindHTTP
	}
	if d := e.Detail(); d != "" && e.Kind != KindServer {
		e.Message = d
	}
	return e
}

func transportError(method, path string, err error) *Error {
	e := &Error{Method: method, Path: path, Err: err}
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		e.Kind = KindTimeout
		e.Message = msgTimeout
	case errors.Is(err, context.Canceled):
		e.Kind = KindCanceled
		e.Message = "request canceled"
	default:
		e.Kind = KindNetworkUnreachable
		e.Message = msgUnreachable
	}
	return e
}

func authError(method, path, message string, cause error) *Error {
	return &Error{Kind: KindAuth, Method: method, Path: path, Message: message, Err: cause}
}
