// Package apperrors defines the error taxonomy shared by all services
// and its mapping onto HTTP responses.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotFound signals a missing user, post or comment.
	ErrNotFound = errors.New("not found")
	// ErrForbidden signals that the actor lacks rights over the target.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidArgument signals missing or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidOperation signals a request that can never succeed,
	// such as following yourself.
	ErrInvalidOperation = errors.New("invalid operation")
)

// NotFound wraps ErrNotFound with a subject, e.g. NotFound("post").
func NotFound(subject string) error {
	return fmt.Errorf("%s %w", subject, ErrNotFound)
}

// Forbidden wraps ErrForbidden with a message shown to the caller.
func Forbidden(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrForbidden)
}

// InvalidArgument wraps ErrInvalidArgument with a message shown to the caller.
func InvalidArgument(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidArgument)
}

// InvalidOperation wraps ErrInvalidOperation with a message shown to the caller.
func InvalidOperation(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrInvalidOperation)
}

// StatusCode maps an error to its HTTP status. Anything outside the
// taxonomy is an unexpected failure and maps to 500.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidArgument), errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorHandler renders every error as {"error": "..."}. Unexpected
// errors are logged and replaced with a generic message so store and
// network failures never leak to the caller.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := StatusCode(err)
	msg := err.Error()

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprintf("%v", he.Message)
	}

	if code == http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Path()).Error("unexpected error")
		msg = "Internal server error"
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, echo.Map{"error": msg})
}
