package errors

import (
	"strings"
)

// User-friendly error messages
const (
	MsgGeneric             = "Something went wrong. Please try again."
	MsgInternalError       = "Something went wrong on our end. Please try again later."
	MsgNetworkUnreachable  = "Unable to connect. Please check your internet connection."
	MsgServerNotResponding = "Server is not responding. Please try again later."
	MsgTimeout             = "Request timed out. Please try again."
	MsgSessionExpired      = "Your session has expired. Please log in again."
	MsgLoginRequired       = "Please log in to continue."
	MsgPermissionDenied    = "You don't have permission to do this."
	MsgRequiredFields      = "Please fill in all required fields."
	MsgNotFound            = "The requested item was not found."
	MsgBadGateway          = "Server is temporarily unavailable. Please try again."
	MsgServiceUnavailable  = "Service temporarily unavailable. Please try again later."
	MsgStorageUnavailable  = "Your saved properties could not be stored on this device."
	MsgRateLimited         = "You're doing that too quickly! Please wait a moment and try again."
	MsgRequestCanceled     = "The request was canceled."
	MsgInvalidParameters   = "The provided parameters are invalid. Please check your input and try again."
)

type friendly struct {
	pattern string
	message string
}

// statusMessages take precedence over any server-provided detail.
var statusMessages = map[int]string{
	404: MsgNotFound,
	500: MsgInternalError,
	502: MsgBadGateway,
	503: MsgServiceUnavailable,
}

// friendlyTable is matched case-insensitively by substring, first hit wins.
var friendlyTable = []friendly{
	{"404", MsgNotFound},
	{"500", MsgInternalError},
	{"502", MsgBadGateway},
	{"503", MsgServiceUnavailable},

	{"Network Error", MsgNetworkUnreachable},
	{"ERR_NETWORK", MsgNetworkUnreachable},
	{"ECONNREFUSED", MsgServerNotResponding},
	{"connection refused", MsgServerNotResponding},
	{"timeout", MsgTimeout},

	{"Invalid credentials", "Incorrect email or password. Please try again."},
	{"No active account", "Account not found. Please check your details."},
	{"Token expired", MsgSessionExpired},
	{"Authentication credentials were not provided", MsgLoginRequired},
	{"Permission denied", MsgPermissionDenied},

	{"This field is required", MsgRequiredFields},
	{"This field may not be blank", MsgRequiredFields},
	{"Invalid email", "Please enter a valid email address."},
	{"Password too short", "Password must be at least 8 characters."},

	{"Delete failed", "Unable to delete. Please try again."},
	{"Update failed", "Unable to save changes. Please try again."},
	{"Create failed", "Unable to create. Please try again."},
}

// FriendlyText maps a raw message through the table. Unknown messages are
// returned unchanged; empty ones become MsgGeneric.
func FriendlyText(msg string) string {
	if msg == "" {
		return MsgGeneric
	}
	if m, ok := lookup(msg); ok {
		return m
	}
	return msg
}

func lookup(msg string) (string, bool) {
	lower := strings.ToLower(msg)
	for _, f := range friendlyTable {
		if strings.Contains(lower, strings.ToLower(f.pattern)) {
			return f.message, true
		}
	}
	return "", false
}

// StatusText returns the friendly message for an HTTP status, if it has one.
func StatusText(status int) (string, bool) {
	m, ok := statusMessages[status]
	return m, ok
}
