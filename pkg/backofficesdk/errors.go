package backofficesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ============================================================================
// Sentinel errors
// ============================================================================

var (
	// ErrInvalidCredentials is returned by Login when the server rejects the
	// username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when an operation needs a session but
	// no usable tokens exist (never logged in, or already logged out).
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed is returned when the refresh-token exchange fails.
	// The session has been cleared; the caller must log in again.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrSessionExpired is returned by operations attempted after the session
	// was force-ended by a failed refresh or an idle timeout.
	ErrSessionExpired = errors.New("session expired")
)

// ============================================================================
// APIError - server-reported failures
// ============================================================================

// APIError carries a failure envelope returned by the backend.
type APIError struct {
	// StatusCode is the HTTP status of the failed response.
	StatusCode int

	// Message is the server-provided message, or a generic fallback.
	Message string

	// Fields holds field-level validation messages, when present.
	Fields map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("api error (HTTP %d): %s", e.StatusCode, e.Message)
	}

	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("api error (HTTP %d): %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
}

// IsNotFound reports whether err is a server-side 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is a user-input validation failure.
func IsValidation(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity
}

// IsServerError reports whether err is a 5xx backend failure.
func IsServerError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode >= http.StatusInternalServerError
}

// IsUnauthorized reports whether err is an authorization failure that
// survived the gateway's one-shot refresh-and-replay.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ============================================================================
// Error parsing
// ============================================================================

// errorFromResponse reads and closes the response body, converting a failed
// response into an *APIError. The envelope's message is preserved; responses
// without a parseable envelope get a generic fallback.
func errorFromResponse(resp *http.Response) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return parseAPIError(resp.StatusCode, body)
}

func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP %d: %s", statusCode, http.StatusText(statusCode)),
	}

	var env struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			apiErr.Message = env.Message
		}
		if len(env.Errors) > 0 {
			apiErr.Fields = env.Errors
		}
	}
	return apiErr
}
