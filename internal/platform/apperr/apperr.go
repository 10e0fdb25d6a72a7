// Package apperr holds the error values shared by the domain packages and
// their translation to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrAccessDenied = errors.New("access denied")
)

// ValidationError collects field-level input problems. It blocks the
// operation it came from but is never fatal.
type ValidationError struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"errors,omitempty"`
}

// NewValidation starts an empty error with the given summary message.
func NewValidation(message string) *ValidationError {
	return &ValidationError{Message: message, Fields: map[string]string{}}
}

// Invalid is a single-message validation error without field detail.
func Invalid(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (v *ValidationError) Error() string {
	if len(v.Fields) == 0 {
		return v.Message
	}
	keys := make([]string, 0, len(v.Fields))
	for k := range v.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v.Fields[k])
	}
	return v.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Add records a problem with field. The first message per field wins.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = map[string]string{}
	}
	if _, ok := v.Fields[field]; !ok {
		v.Fields[field] = message
	}
}

// OrNil returns v when it holds any field errors and nil otherwise.
func (v *ValidationError) OrNil() error {
	if len(v.Fields) == 0 {
		return nil
	}
	return v
}

// StoreError marks a failed write to the document store. Message is the
// one-line text shown to the client; Err is kept for the logs.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string { return e.Message + ": " + e.Err.Error() }
func (e *StoreError) Unwrap() error { return e.Err }

// IsDomain reports whether err is a validation, not-found or access error
// raised by domain logic rather than by the store itself.
func IsDomain(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrAccessDenied)
}

// WrapStore wraps a store failure in a *StoreError. Nil and domain errors are
// returned unchanged.
func WrapStore(message string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return &StoreError{Message: message, Err: err}
}

// ToHTTP converts a domain error into an *echo.HTTPError. The original error
// is attached as Internal so the request logger records it.
func ToHTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ve).SetInternal(err)
	}

	var se *StoreError
	if errors.As(err, &se) {
		return echo.NewHTTPError(http.StatusInternalServerError, se.Message).SetInternal(err)
	}

	switch {
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied").SetInternal(err)
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
