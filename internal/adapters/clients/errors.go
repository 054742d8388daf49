// Package clients is the resilient HTTP client shared by the Supabase and
// Resend adapters.
package clients

import "errors"

// Transport-level failures. Adapters translate these into domain errors.
var (
	// ErrCircuitOpen means the downstream is being shed locally.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last transport error after every
	// attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
