// Package realtime carries live traffic between the backend and its
// clients: a hub of subscriber websocket connections that receives
// broadcast push messages, and a command bridge that forwards editor
// actions into the single authoritative host connection and matches
// responses back to waiting callers.
package realtime

import "errors"

// Sentinel errors for command issuance. Callers are expected to
// distinguish these: a timeout means the host is slow or wedged, a
// disconnect means the command can be retried once the host is back.
var (
	// ErrHostNotConnected is returned by Send when no host is attached.
	ErrHostNotConnected = errors.New("host not connected")

	// ErrRequestTimeout is returned when the host does not answer a
	// command within its deadline.
	ErrRequestTimeout = errors.New("host request timed out")

	// ErrHostDisconnected is returned when the host connection dropped
	// while the command was in flight.
	ErrHostDisconnected = errors.New("host disconnected")
)
