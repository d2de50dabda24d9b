// Package comet implements the ingress node described in spec.md §4.4:
// accept client TCP connections, perform the sign-in handshake, then
// shuttle Pdus between the client and the rest of the system (the
// receiver for outgoing messages, the dispatcher's Push RPC for
// incoming ones). Grounded on jinshu-comet/src/connection.rs and
// jinshu-comet/src/comet.rs.
package comet

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
)

// Connection is one signed-in client's outbound path: Push enqueues a
// Request::Push pdu onto the connection's writer goroutine, mirroring
// Connection::push in the original.
type Connection struct {
	userID uuid.UUID
	outbox chan protocol.Pdu
	idGen  *protocol.TransactionIdGenerator

	// done is closed exactly once, by kick or close, to tell both Push
	// and the writer goroutine the connection is going away. outbox
	// itself is never closed: a concurrent Push could be blocked
	// sending on it, and closing a channel with a pending sender racing
	// it panics. Signaling through a separate channel lets Push give up
	// cleanly instead.
	done      chan struct{}
	closeOnce sync.Once
}

func newConnection(userID uuid.UUID) *Connection {
	return &Connection{
		userID: userID,
		outbox: make(chan protocol.Pdu, 32),
		done:   make(chan struct{}),
		idGen:  protocol.NewTransactionIdGenerator(),
	}
}

func (c *Connection) UserID() uuid.UUID {
	return c.userID
}

// Push enqueues message for delivery as a Request::Push pdu, blocking
// until the outbox has room for it. Spec.md §5 requires the Push RPC
// to block under backpressure rather than fail fast (bounded only by
// the RPC's own deadline, carried here as ctx), mirroring
// Connection::push's bounded-channel await in the original. Returns an
// error if ctx expires first or the connection has already been torn
// down.
func (c *Connection) Push(ctx context.Context, message protocol.Message) error {
	pdu := protocol.Request{Kind: protocol.ReqPush, Message: message}.ToPdu(c.idGen.Next())
	select {
	case c.outbox <- pdu:
		return nil
	case <-c.done:
		return fmt.Errorf("comet: connection %s is closed", c.userID)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// kick enqueues a RespKicked response, then signals done so the writer
// goroutine drains it and exits. Used when a second sign-in for the
// same user displaces this connection (SPEC_FULL.md §10 open-question
// resolution: a new sign-in wins, the old connection is told why it's
// being dropped instead of just vanishing silently).
func (c *Connection) kick(cause string) {
	c.closeOnce.Do(func() {
		pdu := protocol.Response{Kind: protocol.RespKicked, Cause: cause}.ToPdu(c.idGen.Next())
		select {
		case c.outbox <- pdu:
		default:
		}
		close(c.done)
	})
}

// close signals done so the writer goroutine drains whatever is
// buffered and exits. Safe to call concurrently with kick; only the
// first call has any effect.
func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
