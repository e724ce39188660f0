package errs

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/pkg/errors"
)

type Code string

const (
	UnAuthorized Code = "UnAuthorized"
	Network      Code = "Network"
	Unknown      Code = "Unknown"
)

// Message returns the display string of a code.
func Message(code Code) string {
	switch code {
	case UnAuthorized:
		return "You are not authorized to do this operation."
	case Network:
		return "Network error."
	case Unknown:
		return "Unknown error."
	default:
		return "Unknown error."
	}
}

// Error is a classified failure of an upstream call.
type Error struct {
	Code   Code
	Status int
	cause  error
}

func New(code Code, status int, cause error) *Error {
	return &Error{Code: code, Status: status, cause: cause}
}

func (e *Error) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s (status %d)", e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.cause)
}

func (e *Error) Cause() error { return e.cause }

func (e *Error) Unwrap() error { return e.cause }

// ServerError carries the backend error envelope verbatim.
type ServerError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// FromStatus classifies a non-successful HTTP status.
func FromStatus(status int) *Error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return New(UnAuthorized, status, nil)
	default:
		return New(Unknown, status, nil)
	}
}

// Classify maps any error onto the taxonomy.
func Classify(err error) Code {
	if err == nil {
		return ""
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified.Code
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		if serverErr.Status == http.StatusUnauthorized || serverErr.Status == http.StatusForbidden {
			return UnAuthorized
		}
		return Unknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Network
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return Network
	}

	return Unknown
}

// Display returns the inline message for err: the server message when the
// backend supplied one, the mapped code message otherwise.
func Display(err error) string {
	var serverErr *ServerError
	if errors.As(err, &serverErr) && serverErr.Message != "" {
		return serverErr.Message
	}
	return Message(Classify(err))
}
