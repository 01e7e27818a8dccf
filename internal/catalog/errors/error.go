// Package errors provides the error taxonomy shared by the catalog client,
// the image composer and the view controllers.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrUnauthenticated = errors.New("unauthenticated")
var ErrNotFound = errors.New("not found")
var ErrValidationFailed = errors.New("validation failed")
var ErrCapacityExceeded = errors.New("image capacity exceeded")
var ErrComposeFailed = errors.New("failed to compose image payload")
var ErrNetworkFailure = errors.New("network failure")
var ErrServerError = errors.New("server error")

// APIError describes a rejected catalog operation.
// Status is the HTTP status code, or 0 when the failure was detected before a request was sent.
// Message holds the server's detail text verbatim when one was provided.
type APIError struct {
	Status  int
	Message string
	Kind    error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		if e.Status == 0 {
			return e.Kind.Error()
		}
		return fmt.Sprintf("%v: status %d", e.Kind, e.Status)
	}
	return e.Message
}

// Unwrap exposes the taxonomy sentinel, so errors.Is(err, ErrNotFound) works on an *APIError.
func (e *APIError) Unwrap() error {
	return e.Kind
}

// Validation builds a client-side validation failure.
func Validation(message string) *APIError {
	return &APIError{Message: message, Kind: ErrValidationFailed}
}

// Classify maps a non-2xx HTTP status code onto the taxonomy.
func Classify(status int) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthenticated
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return ErrValidationFailed
	default:
		return ErrServerError
	}
}

// Message renders err as screen-level text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Your session has ended, please log in again"
	case errors.Is(err, ErrNotFound):
		return "Product not found"
	case errors.Is(err, ErrCapacityExceeded):
		return "A product can have at most 10 images"
	case errors.Is(err, ErrComposeFailed):
		return "Failed to prepare images for upload"
	case errors.Is(err, ErrNetworkFailure):
		return "Unable to reach the catalog service"
	case errors.Is(err, ErrValidationFailed):
		return "Some fields are invalid"
	case errors.Is(err, ErrServerError):
		return "The catalog service failed to process the request"
	default:
		return err.Error()
	}
}
