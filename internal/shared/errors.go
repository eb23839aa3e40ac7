package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrUnknownParameter   = fmt.Errorf("unknown configuration parameter")
	ErrInvalidValue       = fmt.Errorf("invalid configuration value")
	ErrMissingCredentials = fmt.Errorf("missing client credentials")

	// Authentication errors
	ErrAuthFailed          = fmt.Errorf("authentication failed")
	ErrNoRefreshToken      = fmt.Errorf("no refresh token available")
	ErrStateMismatch       = fmt.Errorf("oauth state mismatch")
	ErrAuthorizationDenied = fmt.Errorf("authorization denied")
	ErrListenerBind        = fmt.Errorf("callback listener could not bind")

	// API and service errors
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrTrackNotFound = fmt.Errorf("track not found")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UnknownParameterError is returned when a credential key outside the fixed schema is read or written.
type UnknownParameterError struct {
	Key string
}

func (e *UnknownParameterError) Error() string {
	return fmt.Sprintf("'%s' is not a valid configuration parameter", e.Key)
}

func (e *UnknownParameterError) Unwrap() error { return ErrUnknownParameter }

// ListenerBindError reports that the local callback port could not be bound.
type ListenerBindError struct {
	Addr string
	Err  error
}

func (e *ListenerBindError) Error() string {
	return fmt.Sprintf("%v on %s: %v", ErrListenerBind, e.Addr, e.Err)
}

func (e *ListenerBindError) Unwrap() []error { return []error{ErrListenerBind, e.Err} }

// AuthenticationError carries the token endpoint's response when an exchange fails.
//
// StatusCode is zero when the request never produced an HTTP response.
type AuthenticationError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *AuthenticationError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: status %d: %s", ErrAuthFailed, e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", ErrAuthFailed, e.Err)
	default:
		return ErrAuthFailed.Error()
	}
}

func (e *AuthenticationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrAuthFailed}
	}
	return []error{ErrAuthFailed, e.Err}
}

// APIError is returned when the catalog API answers with an unexpected status.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Failed with code %d: %s (%s)", e.StatusCode, e.Status, e.Body)
}

func (e *APIError) Unwrap() error { return ErrAPIRequest }

// StatusCode extracts the HTTP status from an [AuthenticationError] or [APIError], or 0.
func StatusCode(err error) int {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.StatusCode
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
