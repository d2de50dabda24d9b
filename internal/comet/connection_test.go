package comet

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionPushEnqueuesRequestPush(t *testing.T) {
	userID := uuid.New()
	c := newConnection(userID)

	msg := protocol.NewMessage(uuid.New(), userID, protocol.NewStringContent("hi"))
	require.NoError(t, c.Push(context.Background(), msg))

	pdu := <-c.outbox
	require.True(t, pdu.Body.IsRequest())
	assert.Equal(t, protocol.ReqPush, pdu.Body.Req.Kind)
	assert.Equal(t, msg.ID, pdu.Body.Req.Message.ID)
}

func TestConnectionPushBlocksWhenOutboxFullUntilContextExpires(t *testing.T) {
	userID := uuid.New()
	c := newConnection(userID)

	for i := 0; i < cap(c.outbox); i++ {
		require.NoError(t, c.Push(context.Background(), protocol.NewMessage(uuid.New(), userID, protocol.NewStringContent("x"))))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.Push(ctx, protocol.NewMessage(uuid.New(), userID, protocol.NewStringContent("overflow")))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestConnectionPushAfterCloseErrors(t *testing.T) {
	userID := uuid.New()
	c := newConnection(userID)
	c.close()

	err := c.Push(context.Background(), protocol.NewMessage(uuid.New(), userID, protocol.NewStringContent("x")))
	assert.Error(t, err)
}

func TestConnectionKickSendsRespKickedThenSignalsDone(t *testing.T) {
	userID := uuid.New()
	c := newConnection(userID)

	c.kick("signed in elsewhere")

	pdu := <-c.outbox
	require.True(t, pdu.Body.IsResponse())
	assert.Equal(t, protocol.RespKicked, pdu.Body.Resp.Kind)
	assert.Equal(t, "signed in elsewhere", pdu.Body.Resp.Cause)

	select {
	case <-c.done:
	default:
		t.Fatal("done should be closed after kick")
	}
}

func TestConnectionKickIsIdempotent(t *testing.T) {
	c := newConnection(uuid.New())
	c.kick("first")
	assert.NotPanics(t, func() { c.kick("second") })
}

func TestConnectionCloseIsIdempotentWithKick(t *testing.T) {
	c := newConnection(uuid.New())
	c.close()
	assert.NotPanics(t, func() { c.kick("too late") })
}
