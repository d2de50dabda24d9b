package queue

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage(t *testing.T) protocol.Message {
	t.Helper()
	return protocol.NewMessage(uuid.New(), uuid.New(), protocol.NewStringContent("hello, jinshu"))
}

func TestQueuedMessageRoundTrip(t *testing.T) {
	msg := sampleMessage(t)

	q, err := NewQueuedMessage(msg)
	require.NoError(t, err)

	buf := q.Encode()
	got, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, q.ID, got.ID)
	assert.Equal(t, q.Timestamp, got.Timestamp)
	assert.Equal(t, q.From, got.From)
	assert.Equal(t, q.To, got.To)
	assert.Equal(t, q.Content, got.Content)

	back, err := got.Message()
	require.NoError(t, err)
	assert.Equal(t, msg.ID, back.ID)
	assert.Equal(t, msg.Content, back.Content)
}

func TestDecodeInsufficientBuffer(t *testing.T) {
	_, err := Decode(make([]byte, headerLen-1))
	assert.ErrorIs(t, err, protocol.ErrInsufficientBuffer)
}

func TestDecodeInvalidContentLength(t *testing.T) {
	msg := sampleMessage(t)
	q, err := NewQueuedMessage(msg)
	require.NoError(t, err)

	buf := q.Encode()
	// Truncate the content without fixing up the length header.
	buf = buf[:len(buf)-1]

	_, err = Decode(buf)
	assert.ErrorIs(t, err, protocol.ErrInvalidContentLength)
}

func TestHandlerFunc(t *testing.T) {
	msg := sampleMessage(t)
	q, err := NewQueuedMessage(msg)
	require.NoError(t, err)

	var gotTopic string
	var gotID uuid.UUID
	h := HandlerFunc(func(ctx context.Context, topic string, m QueuedMessage) HandleResult {
		gotTopic = topic
		gotID = m.ID
		return HandleOk
	})

	result := h.Handle(context.Background(), "messages", q)
	assert.Equal(t, HandleOk, result)
	assert.Equal(t, "messages", gotTopic)
	assert.Equal(t, q.ID, gotID)
}
