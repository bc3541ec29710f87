package cafeapi

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned before any network call when the session
// carries no usable access token.
var ErrNotAuthenticated = errors.New("Not authenticated")

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func missing(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// UpstreamError is a non-2xx answer from the café API.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return e.Message
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return e.Message
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// SchemaError means a 2xx body did not decode into the expected type.
type SchemaError struct {
	Resource string
	Err      error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("malformed %s response: %v", e.Resource, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream) && upstream.Status == http.StatusNotFound
}

// StatusCode maps a client error to the HTTP status a handler should answer
// with.
func StatusCode(err error) int {
	var (
		validation *ValidationError
		upstream   *UpstreamError
		network    *NetworkError
		schema     *SchemaError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &upstream):
		return upstream.Status
	case errors.As(err, &network), errors.As(err, &schema):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
