package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"houseofstone-client/internal/session"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/storage"

	"github.com/go-playground/validator/v10"
)

// MapError converts a technical error into a user-friendly AppError.
func MapError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}

	technicalMessage := err.Error()

	var apiErr *api.Error
	if stderrors.As(err, &apiErr) {
		return mapAPIError(apiErr, technicalMessage, err)
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		return NewAppError(technicalMessage, validationMessage(validationErrs), ErrCodeInvalidParameters, http.StatusBadRequest, err)
	}

	var storeErr *storage.StoreError
	switch {
	case stderrors.Is(err, session.ErrNoSession):
		return NewAppError(technicalMessage, MsgLoginRequired, ErrCodeUnauthorized, http.StatusUnauthorized, err)
	case stderrors.Is(err, storage.ErrNotFound):
		return NewAppError(technicalMessage, MsgNotFound, ErrCodeNotFound, http.StatusNotFound, err)
	case stderrors.As(err, &storeErr):
		return NewAppError(technicalMessage, MsgStorageUnavailable, ErrCodeStorage, http.StatusServiceUnavailable, err)
	case strings.Contains(technicalMessage, "rate limit"):
		return NewAppError(technicalMessage, MsgRateLimited, ErrCodeRateLimited, http.StatusTooManyRequests, err)
	case strings.Contains(technicalMessage, "not found"):
		return NewAppError(technicalMessage, MsgNotFound, ErrCodeNotFound, http.StatusNotFound, err)
	default:
		return NewAppError(technicalMessage, MsgInternalError, ErrCodeInternal, http.StatusInternalServerError, err)
	}
}

func mapAPIError(e *api.Error, technicalMessage string, err error) *AppError {
	msg := FriendlyMessage(e)
	switch e.Kind {
	case api.KindAuth:
		return NewAppError(technicalMessage, msg, ErrCodeUnauthorized, http.StatusUnauthorized, err)
	case api.KindValidation:
		return NewAppError(technicalMessage, msg, ErrCodeInvalidParameters, http.StatusBadRequest, err)
	case api.KindNotFound:
		return NewAppError(technicalMessage, msg, ErrCodeNotFound, http.StatusNotFound, err)
	case api.KindTimeout:
		return NewAppError(technicalMessage, msg, ErrCodeTimeout, http.StatusGatewayTimeout, err)
	case api.KindCanceled:
		return NewAppError(technicalMessage, msg, ErrCodeCanceled, http.StatusRequestTimeout, err)
	case api.KindNetworkUnreachable:
		return NewAppError(technicalMessage, msg, ErrCodeNetworkUnreachable, http.StatusServiceUnavailable, err)
	case api.KindServer:
		return NewAppError(technicalMessage, msg, ErrCodeUpstream, http.StatusBadGateway, err)
	case api.KindHTTP:
		switch e.Status {
		case http.StatusForbidden:
			return NewAppError(technicalMessage, msg, ErrCodeForbidden, http.StatusForbidden, err)
		case http.StatusTooManyRequests:
			return NewAppError(technicalMessage, MsgRateLimited, ErrCodeRateLimited, http.StatusTooManyRequests, err)
		}
		return NewAppError(technicalMessage, msg, ErrCodeUpstream, e.Status, err)
	default:
		return NewAppError(technicalMessage, MsgInternalError, ErrCodeInternal, http.StatusInternalServerError, err)
	}
}

// FriendlyMessage returns the text shown to a user for err. Server statuses
// with a fixed message win over the response body; otherwise the most
// specific server detail is mapped through the friendly table.
func FriendlyMessage(err error) string {
	if err == nil {
		return MsgGeneric
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.UserMessage
	}

	var apiErr *api.Error
	if stderrors.As(err, &apiErr) {
		if apiErr.Status != 0 {
			if m, ok := StatusText(apiErr.Status); ok {
				return m
			}
			if d := apiErr.Detail(); d != "" {
				return FriendlyText(d)
			}
		}
		switch apiErr.Kind {
		case api.KindTimeout:
			return MsgTimeout
		case api.KindNetworkUnreachable:
			return MsgNetworkUnreachable
		case api.KindCanceled:
			return MsgRequestCanceled
		}
		return FriendlyText(apiErr.Message)
	}

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		return validationMessage(validationErrs)
	}

	return FriendlyText(err.Error())
}

func validationMessage(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return MsgRequiredFields
	}
	fe := errs[0]
	switch fe.Tag() {
	case "required":
		return MsgRequiredFields
	case "email":
		return "Please enter a valid email address."
	default:
		return fmt.Sprintf("Invalid value for %s.", fe.Field())
	}
}
