package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"houseofstone-client/internal/session"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/storage"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestFriendlyText(t *testing.T) {
	cases := map[string]string{
		"":                                     MsgGeneric,
		"Network Error":                        MsgNetworkUnreachable,
		"dial tcp: connection refused":         MsgServerNotResponding,
		"context deadline exceeded (Timeout)":  MsgTimeout,
		"Invalid credentials supplied":         "Incorrect email or password. Please try again.",
		"This field may not be blank.":         MsgRequiredFields,
		"Delete failed: record locked":         "Unable to delete. Please try again.",
		"Listing is already under offer":       "Listing is already under offer",
		"permission DENIED for this operation": MsgPermissionDenied,
	}
	for in, want := range cases {
		assert.Equal(t, want, FriendlyText(in), in)
	}
}

func TestFriendlyMessageForAPIErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, MsgGeneric},
		{"status wins over detail", &api.Error{Kind: api.KindServer, Status: 503, Body: []byte(`{"detail":"maintenance"}`)}, MsgServiceUnavailable},
		{"not found", &api.Error{Kind: api.KindNotFound, Status: 404}, MsgNotFound},
		{"detail mapped", &api.Error{Kind: api.KindAuth, Status: 401, Body: []byte(`{"detail":"No active account found with the given credentials"}`)}, "Account not found. Please check your details."},
		{"field error", &api.Error{Kind: api.KindValidation, Status: 400, Body: []byte(`{"title":["This field is required."]}`)}, MsgRequiredFields},
		{"raw detail", &api.Error{Kind: api.KindValidation, Status: 400, Body: []byte(`{"non_field_errors":["Price must be positive."]}`)}, "Price must be positive."},
		{"timeout", &api.Error{Kind: api.KindTimeout, Message: "Request timeout. Please try again."}, MsgTimeout},
		{"unreachable", &api.Error{Kind: api.KindNetworkUnreachable}, MsgNetworkUnreachable},
		{"refresh failure", &api.Error{Kind: api.KindAuth, Message: MsgSessionExpired}, MsgSessionExpired},
		{"wrapped", fmt.Errorf("load favorites: %w", &api.Error{Kind: api.KindServer, Status: 502}), MsgBadGateway},
		{"app error", NewAppError("x", "Custom", ErrCodeInternal, 500, nil), "Custom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FriendlyMessage(tt.err))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"auth", &api.Error{Kind: api.KindAuth, Status: 401}, ErrCodeUnauthorized, http.StatusUnauthorized},
		{"validation", &api.Error{Kind: api.KindValidation, Status: 400}, ErrCodeInvalidParameters, http.StatusBadRequest},
		{"not found", &api.Error{Kind: api.KindNotFound, Status: 404}, ErrCodeNotFound, http.StatusNotFound},
		{"timeout", &api.Error{Kind: api.KindTimeout}, ErrCodeTimeout, http.StatusGatewayTimeout},
		{"unreachable", &api.Error{Kind: api.KindNetworkUnreachable}, ErrCodeNetworkUnreachable, http.StatusServiceUnavailable},
		{"server", &api.Error{Kind: api.KindServer, Status: 500}, ErrCodeUpstream, http.StatusBadGateway},
		{"forbidden", &api.Error{Kind: api.KindHTTP, Status: 403}, ErrCodeForbidden, http.StatusForbidden},
		{"conflict", &api.Error{Kind: api.KindHTTP, Status: 409}, ErrCodeUpstream, http.StatusConflict},
		{"no session", fmt.Errorf("load: %w", session.ErrNoSession), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"store", &storage.StoreError{Driver: "file", Operation: "set", Key: "auth", Err: stderrors.New("disk full")}, ErrCodeStorage, http.StatusServiceUnavailable},
		{"unknown", stderrors.New("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := MapError(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
			assert.NotEmpty(t, appErr.UserMessage)
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
	assert.Nil(t, MapError(nil))
}

func TestMapErrorValidation(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
	}
	err := validator.New().Struct(input{Email: "not-an-email"})
	appErr := MapError(err)
	assert.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
	assert.Equal(t, "Please enter a valid email address.", appErr.UserMessage)

	err = validator.New().Struct(input{})
	assert.Equal(t, MsgRequiredFields, FriendlyMessage(err))
}

func TestMapErrorKeepsAppError(t *testing.T) {
	orig := NewAppError("tech", "user", ErrCodeRateLimited, http.StatusTooManyRequests, nil)
	assert.Same(t, orig, MapError(fmt.Errorf("wrapped: %w", orig)))
	assert.Equal(t, "user", orig.Error())
}
