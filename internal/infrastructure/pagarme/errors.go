package pagarme

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoAPIKey     = errors.New("pagarme: api key not configured")
	ErrUnauthorized = errors.New("pagarme: unauthorized")
	ErrNotFound     = errors.New("pagarme: not found")
	ErrDecode       = errors.New("pagarme: unexpected response body")
)

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, truncate(e.Body, 512))
}

// Is lets callers match auth and lookup failures with errors.Is.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
