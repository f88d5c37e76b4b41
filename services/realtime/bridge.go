package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// requestIDBound wraps the correlation counter. The bound is far larger
// than any plausible number of simultaneously in-flight commands, so a
// wrapped id can never collide with one that is still pending. That is a
// designed assumption, not an enforced invariant; a stricter scheme
// would mint UUIDs instead.
const requestIDBound = 1_000_000

// hostConn is the slice of *websocket.Conn the bridge needs to issue
// commands. Narrowed to an interface so tests can attach fakes.
type hostConn interface {
	WriteJSON(v any) error
}

// outcome is the single-resolution result slot of a pending request.
// Exactly one of result or err is delivered, exactly once.
type outcome struct {
	result map[string]any
	err    error
}

// Bridge forwards editor actions to the single authoritative host
// connection and matches responses back to waiting callers by request id.
//
// # Description
//
// Send registers a pending request, writes an editor_action frame to the
// host, and parks until Resolve delivers the matching response, the
// deadline passes, or the host detaches. One mutex guards both the host
// reference and the pending map, so DetachHost cancels every pending
// request atomically with admission: no Send can slip a request in
// during detach handling and be left dangling.
type Bridge struct {
	defaultTimeout time.Duration

	mu      sync.Mutex
	host    hostConn
	pending map[string]chan outcome
	counter int
}

// NewBridge creates a bridge with the given default command timeout.
func NewBridge(defaultTimeout time.Duration) *Bridge {
	return &Bridge{
		defaultTimeout: defaultTimeout,
		pending:        make(map[string]chan outcome),
	}
}

// AttachHost designates conn as the authoritative host connection,
// replacing any previous host.
func (b *Bridge) AttachHost(conn hostConn) {
	b.mu.Lock()
	b.host = conn
	b.mu.Unlock()

	slog.Info("Host attached")
}

// DetachHost clears the host reference and cancels every pending
// request with ErrHostDisconnected. Callers distinguish this from a
// timeout so a disconnect is not misreported as slowness.
//
// Detaching is conditional on conn still being the attached host: when
// a replaced connection finally closes, its detach must not tear down
// the replacement host's in-flight requests.
func (b *Bridge) DetachHost(conn hostConn) {
	b.mu.Lock()
	if b.host != conn {
		b.mu.Unlock()
		slog.Debug("Ignoring detach from superseded host")
		return
	}
	b.host = nil
	cancelled := len(b.pending)
	for id, ch := range b.pending {
		ch <- outcome{err: ErrHostDisconnected}
		delete(b.pending, id)
	}
	b.mu.Unlock()

	slog.Info("Host detached", "cancelled_requests", cancelled)
}

// HostConnected reports whether a host is currently attached.
func (b *Bridge) HostConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.host != nil
}

// PendingCount returns the number of in-flight requests.
func (b *Bridge) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Send forwards one action to the host and awaits its correlated
// response.
//
// Fails fast with ErrHostNotConnected when no host is attached; no
// pending entry is created in that case. A non-positive timeout uses
// the bridge default. Whatever the outcome, the pending entry is gone
// when Send returns.
func (b *Bridge) Send(ctx context.Context, action string, data any, timeout time.Duration) (map[string]any, error) {
	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	b.mu.Lock()
	host := b.host
	if host == nil {
		b.mu.Unlock()
		return nil, ErrHostNotConnected
	}

	b.counter = (b.counter + 1) % requestIDBound
	requestID := fmt.Sprintf("req_%d", b.counter)

	// Buffered so resolution never blocks on a caller that already gave up.
	ch := make(chan outcome, 1)
	b.pending[requestID] = ch
	b.mu.Unlock()

	envelope := CommandEnvelope{
		Type:      "editor_action",
		RequestID: requestID,
		Action:    action,
		Data:      data,
	}
	if err := host.WriteJSON(envelope); err != nil {
		b.remove(requestID)
		return nil, fmt.Errorf("writing to host: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case out := <-ch:
		// Entry already removed by Resolve or DetachHost.
		return out.result, out.err

	case <-timer.C:
		b.remove(requestID)
		commandTimeouts.Inc()
		slog.Warn("Host command timed out", "action", action, "request_id", requestID, "timeout", timeout)
		return nil, ErrRequestTimeout

	case <-ctx.Done():
		b.remove(requestID)
		return nil, ctx.Err()
	}
}

// Resolve fulfills the pending request matching requestID. Responses
// with no matching pending request are dropped: the request may have
// timed out already, or the host retried. Not an error either way.
func (b *Bridge) Resolve(requestID string, result map[string]any) {
	b.mu.Lock()
	ch, ok := b.pending[requestID]
	if ok {
		delete(b.pending, requestID)
	}
	b.mu.Unlock()

	if !ok {
		slog.Debug("Dropping unmatched host response", "request_id", requestID)
		return
	}
	ch <- outcome{result: result}
}

// remove clears a pending entry without resolving it.
func (b *Bridge) remove(requestID string) {
	b.mu.Lock()
	delete(b.pending, requestID)
	b.mu.Unlock()
}
