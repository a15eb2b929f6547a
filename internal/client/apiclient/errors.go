package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// NetworkErrorMessage is used when a transport failure carries no message.
const NetworkErrorMessage = "Network error occurred"

// Error kinds matched by *APIError through errors.Is.
var (
	// ErrNetwork: transport failure or timeout, no HTTP response.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized: the server answered 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrValidation: the server returned field-level errors.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyData: an envelope without a data member was decoded.
	ErrEmptyData = errors.New("response has no data")
)

// APIError is the normalized failure of an API call. Its JSON form is the
// server's error envelope: {success:false, message, errors?}.
type APIError struct {
	StatusCode int                 `json:"-"`
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Cause      error               `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return e.Message
}

// Unwrap returns the transport error, if any.
func (e *APIError) Unwrap() error {
	return e.Cause
}

// Is matches the error kinds ErrNetwork, ErrUnauthorized and ErrValidation.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrValidation:
		return len(e.Errors) > 0
	case ErrNetwork:
		return e.StatusCode == 0 && e.Cause != nil
	}
	return false
}

// FieldErrors returns the messages reported for one field.
func (e *APIError) FieldErrors(field string) []string {
	return e.Errors[field]
}

// StatusError is a non-2xx HTTP response as seen by the pipeline, before
// normalization.
type StatusError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
}

// errorBody is the structured error envelope. "error" is accepted as a
// message alias used by some backends.
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

// normalizeError maps any pipeline error to *APIError. A structured error
// body passes through; anything else gets a synthesized message.
func normalizeError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var se *StatusError
	if errors.As(err, &se) {
		var body errorBody
		if json.Unmarshal(se.Body, &body) == nil && (body.Message != "" || body.Error != "" || len(body.Errors) > 0) {
			msg := body.Message
			if msg == "" {
				msg = body.Error
			}
			return &APIError{StatusCode: se.StatusCode, Message: msg, Errors: body.Errors}
		}
		return &APIError{StatusCode: se.StatusCode, Message: se.Error()}
	}

	msg := err.Error()
	if msg == "" {
		msg = NetworkErrorMessage
	}
	return &APIError{Message: msg, Cause: err}
}

func isUnauthorized(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusUnauthorized
	}
	return false
}
