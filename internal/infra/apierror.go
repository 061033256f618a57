package infra

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// APIError is a non-2xx answer from a hosted service.
type APIError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Service, e.StatusCode, e.Body)
}

// Transient reports whether the service is likely to accept the same
// request later. Nothing retries automatically; the value is only surfaced
// to the user and the logs.
func (e *APIError) Transient() bool {
	return IsTransientHTTPStatus(e.StatusCode)
}

// CheckResponse returns an *APIError for any status outside 2xx. The body
// is consumed in that case; on success it is left for the caller.
func CheckResponse(service string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{Service: service, StatusCode: resp.StatusCode, Body: string(body)}
}

// IsTransient reports whether err carries a transient *APIError.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

// IsTransientHTTPStatus returns true for statuses that signal overload or
// an upstream hiccup rather than a bad request.
func IsTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests ||
		statusCode == http.StatusServiceUnavailable ||
		statusCode == http.StatusGatewayTimeout ||
		statusCode >= 500
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}
