package comet

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProducer is a minimal queue.Producer, just enough to drive the
// receiver handler behind the test ReceiverClient.
type fakeProducer struct {
	err error
}

func (p *fakeProducer) Publish(ctx context.Context, message protocol.Message) error { return p.err }
func (p *fakeProducer) Close() error                                               { return nil }

func newTestReceiverClient(t *testing.T, producer queue.Producer) *rpc.ReceiverClient {
	t.Helper()
	server := httptest.NewServer(rpc.NewReceiver(producer).Handler())
	t.Cleanup(server.Close)
	return rpc.NewReceiverClient(server.URL)
}

func TestConnectionManagerPushDeliversToLiveConnection(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	userID := uuid.New()
	conn := newConnection(userID)
	m.connections[userID] = conn

	delivered, err := m.Push(context.Background(), userID.String(), rpc.PushRequest{
		UserID:  userID,
		Message: protocol.NewMessage(uuid.New(), userID, protocol.NewStringContent("hi")),
	})
	require.NoError(t, err)
	assert.True(t, delivered)

	pdu := <-conn.outbox
	assert.Equal(t, protocol.ReqPush, pdu.Body.Req.Kind)
}

func TestConnectionManagerPushReturnsFalseWhenNotConnected(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)

	delivered, err := m.Push(context.Background(), uuid.NewString(), rpc.PushRequest{})
	require.NoError(t, err)
	assert.False(t, delivered)
}

func TestConnectionManagerRemoveOnlyDeletesMatchingConnection(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	userID := uuid.New()
	first := newConnection(userID)
	second := newConnection(userID)

	m.connections[userID] = second
	m.remove(userID, first) // stale: first is no longer the map entry

	_, ok := m.Get(userID)
	assert.True(t, ok, "remove must not evict a newer connection for the same user")

	m.remove(userID, second)
	_, ok = m.Get(userID)
	assert.False(t, ok)
}

func TestConnectionManagerRoutePing(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	c := newConnection(uuid.New())

	inbox := make(chan protocol.Pdu, 1)
	inbox <- protocol.Request{Kind: protocol.ReqPing}.ToPdu(protocol.TransactionId{Seq: 1})
	close(inbox)

	m.route(context.Background(), inbox, c)

	pdu := <-c.outbox
	assert.Equal(t, protocol.RespPong, pdu.Body.Resp.Kind)
}

func TestConnectionManagerRouteSendQueuesOnSuccess(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	m.receiver = newTestReceiverClient(t, &fakeProducer{})
	c := newConnection(uuid.New())

	msg := protocol.NewMessage(c.userID, uuid.New(), protocol.NewStringContent("hi"))
	inbox := make(chan protocol.Pdu, 1)
	inbox <- protocol.Request{Kind: protocol.ReqSend, Message: msg}.ToPdu(protocol.TransactionId{Seq: 1})
	close(inbox)

	m.route(context.Background(), inbox, c)

	pdu := <-c.outbox
	require.Equal(t, protocol.RespQueued, pdu.Body.Resp.Kind)
	assert.Equal(t, msg.ID, pdu.Body.Resp.MessageID)
}

func TestConnectionManagerRouteSendRejectsOnPublishError(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	m.receiver = newTestReceiverClient(t, &fakeProducer{err: errors.New("broker unavailable")})
	c := newConnection(uuid.New())

	msg := protocol.NewMessage(c.userID, uuid.New(), protocol.NewStringContent("hi"))
	inbox := make(chan protocol.Pdu, 1)
	inbox <- protocol.Request{Kind: protocol.ReqSend, Message: msg}.ToPdu(protocol.TransactionId{Seq: 1})
	close(inbox)

	m.route(context.Background(), inbox, c)

	pdu := <-c.outbox
	require.Equal(t, protocol.RespRejected, pdu.Body.Resp.Kind)
	assert.Equal(t, msg.ID, pdu.Body.Resp.MessageID)
	assert.NotEmpty(t, pdu.Body.Resp.Cause)
}

func TestConnectionManagerDeliverFullOutboxReturnsFalse(t *testing.T) {
	m := NewConnectionManager("http://comet-1/", nil, nil, nil, 0)
	c := newConnection(uuid.New())
	for i := 0; i < cap(c.outbox); i++ {
		c.outbox <- protocol.Response{Kind: protocol.RespPong}.ToPdu(protocol.TransactionId{Seq: uint32(i)})
	}

	ok := m.deliver(c, protocol.Response{Kind: protocol.RespPong}.ToPdu(protocol.TransactionId{Seq: 999}))
	assert.False(t, ok)
}
