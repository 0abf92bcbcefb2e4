package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure modes the pipeline cares about.
// Provider clients wrap these so callers can classify failures with
// errors.Is regardless of which backend produced them.
var (
	ErrRateLimited  = errors.New("rate limited")
	ErrTimeout      = errors.New("request timed out")
	ErrInvalidInput = errors.New("invalid input")
)

// statusError maps an HTTP status from a provider API onto the
// sentinel errors
func statusError(provider string, status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s API: %w (status %d): %s", provider, ErrRateLimited, status, body)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return fmt.Errorf("%s API: %w (status %d): %s", provider, ErrTimeout, status, body)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusRequestEntityTooLarge:
		return fmt.Errorf("%s API: %w (status %d): %s", provider, ErrInvalidInput, status, body)
	default:
		return fmt.Errorf("%s API error (status %d): %s", provider, status, body)
	}
}

// requestError wraps transport-level failures, surfacing context
// deadline expiry as a timeout
func requestError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s request: %w: %v", provider, ErrTimeout, err)
	}
	return fmt.Errorf("%s request failed: %w", provider, err)
}
