package comet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/jinshuio/jinshu/internal/session"
	"github.com/sirupsen/logrus"
)

// ConnectionManager owns every live client connection on this comet
// instance, ported from ConnectionManager in connection.rs. The
// original uses dashmap::DashMap for lock-free concurrent access; the
// pack carries no sharded concurrent map for Go, so a single
// sync.RWMutex-guarded map is the idiomatic substitute (see
// DESIGN.md) — contention is bounded by one lock per sign-in/teardown,
// not per message.
type ConnectionManager struct {
	serviceURI string

	mu          sync.RWMutex
	connections map[uuid.UUID]*Connection

	receiver   *rpc.ReceiverClient
	authorizer *rpc.AuthorizerClient
	sessions   *session.Store

	handshakeTimeout time.Duration
}

func NewConnectionManager(serviceURI string, receiver *rpc.ReceiverClient, authorizer *rpc.AuthorizerClient, sessions *session.Store, handshakeTimeout time.Duration) *ConnectionManager {
	return &ConnectionManager{
		serviceURI:       serviceURI,
		connections:      make(map[uuid.UUID]*Connection),
		receiver:         receiver,
		authorizer:       authorizer,
		sessions:         sessions,
		handshakeTimeout: handshakeTimeout,
	}
}

// Get returns the live Connection for userID, if this instance holds
// one. Used by the Push RPC handler.
func (m *ConnectionManager) Get(userID uuid.UUID) (*Connection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.connections[userID]
	return c, ok
}

// remove deletes userID's entry if it is still self, and reports
// whether it did.
func (m *ConnectionManager) remove(userID uuid.UUID, self *Connection) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.connections[userID]; ok && current == self {
		delete(m.connections, userID)
		return true
	}
	return false
}

// Push implements rpc.Pusher: deliver message to userID if it is
// connected here. Mirrors Comet::push in comet.rs (the gRPC service
// wrapper around ConnectionManager::get).
func (m *ConnectionManager) Push(ctx context.Context, userID string, req rpc.PushRequest) (bool, error) {
	conn, ok := m.Get(req.UserID)
	if !ok {
		return false, nil
	}
	if err := conn.Push(ctx, req.Message); err != nil {
		return false, rpc.StatusInternal(fmt.Errorf("comet: push to %s: %w", req.UserID, err))
	}
	return true, nil
}

// Accept drives one client connection through the handshake state
// machine (spec.md §4.4.1) and, on success, the steady-state
// reader/writer/router goroutines (§5). It blocks until the
// connection's session ends (gracefully, by error, or by being kicked
// by a later sign-in) and always returns nil once teardown has run;
// the caller (cmd/comet's accept loop) only needs to close conn, which
// Accept does itself before returning.
func (m *ConnectionManager) Accept(ctx context.Context, conn net.Conn, codec protocol.CodecID) error {
	defer conn.Close()

	if err := conn.SetReadDeadline(time.Now().Add(m.handshakeTimeout)); err != nil {
		return fmt.Errorf("comet: set handshake deadline: %w", err)
	}

	reader := protocol.NewFrameReader(conn)
	writer := protocol.NewFrameWriter(conn, codec)

	pdu, err := reader.Next()
	if err != nil {
		return fmt.Errorf("comet: handshake read: %w", err)
	}

	if pdu.Body.Req == nil || pdu.Body.Req.Kind != protocol.ReqSignIn {
		_ = writer.Send(protocol.Response{Kind: protocol.RespError, Cause: "sign-in request expected"}.ToPdu(pdu.ID))
		return fmt.Errorf("comet: expected sign-in request, got %+v", pdu.Body)
	}

	req := pdu.Body.Req
	resp, err := m.authorizer.SignIn(ctx, req.UserID, req.Token)
	if err != nil {
		_ = writer.Send(protocol.Response{Kind: protocol.RespError, Cause: err.Error()}.ToPdu(pdu.ID))
		return fmt.Errorf("comet: sign in error: %w", err)
	}
	if !resp.Ok {
		_ = writer.Send(protocol.Response{Kind: protocol.RespInvalidToken, UserID: req.UserID}.ToPdu(pdu.ID))
		return fmt.Errorf("comet: sign in error: invalid token")
	}

	if err := writer.Send(protocol.Response{Kind: protocol.RespSignedIn, Extension: resp.Extension}.ToPdu(pdu.ID)); err != nil {
		return fmt.Errorf("comet: send signed-in response: %w", err)
	}

	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return fmt.Errorf("comet: clear handshake deadline: %w", err)
	}

	userID := req.UserID
	logrus.WithField("user_id", userID).Info("user sign in [OK]")

	newConn := newConnection(userID)

	m.mu.Lock()
	if old, ok := m.connections[userID]; ok {
		old.kick("signed in elsewhere")
	}
	m.connections[userID] = newConn
	m.mu.Unlock()

	if err := m.sessions.Store(ctx, userID, m.serviceURI); err != nil {
		m.remove(userID, newConn)
		return fmt.Errorf("comet: store session: %w", err)
	}

	m.runSession(ctx, conn, reader, writer, newConn)
	return nil
}

// runSession starts the reader and writer goroutines, runs the router
// on the calling goroutine (spec.md §5), and tears the session down
// once the router returns: when the reader closes inbox (client gone,
// read error, or conn closed after a kick) or on a protocol violation.
// It waits for the reader and writer to exit before removing the
// session-directory entry. A writer that stops on a send error does
// not by itself start teardown.
func (m *ConnectionManager) runSession(ctx context.Context, conn net.Conn, reader *protocol.FrameReader, writer *protocol.FrameWriter, c *Connection) {
	inbox := make(chan protocol.Pdu, 32)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		defer close(inbox)
		for {
			pdu, err := reader.Next()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					logrus.WithError(err).Debug("failed to read the pdu from client")
				}
				return
			}
			select {
			case inbox <- pdu:
			case <-c.done:
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for {
			select {
			case pdu := <-c.outbox:
				if err := writer.Send(pdu); err != nil {
					logrus.WithError(err).Error("failed to send pdu to client")
					return
				}
			case <-c.done:
				// Drain whatever is already buffered (e.g. a kick's
				// RespKicked) before exiting; outbox is never closed,
				// so this loop is the only way it ever drains. Closing
				// conn afterwards ends the reader as well, so a kicked
				// connection is torn down without waiting for its client.
				defer conn.Close()
				for {
					select {
					case pdu := <-c.outbox:
						if err := writer.Send(pdu); err != nil {
							return
						}
					default:
						return
					}
				}
			}
		}
	}()

	m.route(ctx, inbox, c)

	// Remove this connection from the map before signaling done: once
	// Get can no longer return it, no new Push can start racing the
	// teardown below.
	// A kicked connection is no longer the map entry; its user's
	// session-directory entry now belongs to the newer connection and
	// is left in place.
	owned := m.remove(c.userID, c)
	c.close()
	conn.Close()
	wg.Wait()

	if owned {
		if err := m.sessions.Remove(context.Background(), c.userID); err != nil {
			logrus.WithError(err).WithField("user_id", c.userID).Warn("failed to remove session")
		}
	}

	logrus.WithField("user_id", c.userID).Info("user connection removed")
}

// route consumes client-originated requests (Ping, Send) until the
// read side closes inbox, mirroring the router task in connection.rs.
func (m *ConnectionManager) route(ctx context.Context, inbox <-chan protocol.Pdu, c *Connection) {
	for pdu := range inbox {
		req := pdu.Body.Req
		if req == nil {
			continue
		}

		switch req.Kind {
		case protocol.ReqPing:
			reply := protocol.Response{Kind: protocol.RespPong}.ToPdu(pdu.ID)
			if !m.deliver(c, reply) {
				return
			}

		case protocol.ReqSend:
			m.handleSend(ctx, pdu, req.Message, c)

		default:
			logrus.WithField("kind", req.Kind).Error("unexpected request")
			return
		}
	}
}

func (m *ConnectionManager) handleSend(ctx context.Context, pdu protocol.Pdu, message protocol.Message, c *Connection) {
	err := m.receiver.Enqueue(ctx, rpc.EnqueueRequest{Message: message})

	var reply protocol.Pdu
	if err != nil {
		logrus.WithError(err).Info("enqueue failed")
		reply = protocol.Response{Kind: protocol.RespRejected, MessageID: message.ID, Cause: err.Error()}.ToPdu(pdu.ID)
	} else {
		reply = protocol.Response{Kind: protocol.RespQueued, MessageID: message.ID}.ToPdu(pdu.ID)
	}

	m.deliver(c, reply)
}

func (m *ConnectionManager) deliver(c *Connection, pdu protocol.Pdu) bool {
	select {
	case c.outbox <- pdu:
		return true
	default:
		logrus.WithField("user_id", c.userID).Error("failed to send response to client: outbox full")
		return false
	}
}
