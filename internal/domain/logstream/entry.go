// Package logstream defines the request log entries broadcast to the
// admin SSE endpoint and a bounded, best-effort fan-out of them.
package logstream

import "time"

// Entry is one dispatched request, as published to SSE subscribers.
type Entry struct {
	Timestamp     time.Time `json:"timestamp"`
	Method        string    `json:"method"`
	Path          string    `json:"path"`
	Body          any       `json:"body"`
	Matched       bool      `json:"matched"`
	ExpectationID *uint64   `json:"expectation_id,omitempty"`
}
