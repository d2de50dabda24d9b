// Package queue implements the fixed broker wire layout (§3 of the
// spec) and the broker-agnostic consumer/producer contract shared by
// the Kafka and Pulsar backends.
package queue

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinshuio/jinshu/internal/protocol"
)

// headerLen is the size of the fixed portion of the queued-message
// byte layout: id(16) + timestamp(8) + from(16) + to(16) + content_len(8).
const headerLen = 16 + 8 + 16 + 16 + 8

const (
	offsetID        = 0
	offsetTimestamp = offsetID + 16
	offsetFrom      = offsetTimestamp + 8
	offsetTo        = offsetFrom + 16
	offsetContentLen = offsetTo + 16
	offsetContent   = offsetContentLen + 8
)

// QueuedMessage is the broker payload described in §3: the same 64
// byte header regardless of backend, followed by the canonical CBOR
// encoding of Content.
type QueuedMessage struct {
	ID        uuid.UUID
	Timestamp uint64
	From      uuid.UUID
	To        uuid.UUID
	Content   []byte // canonical CBOR of protocol.Content
}

// NewQueuedMessage builds the queued-message form of a protocol
// Message, re-encoding its Content into the canonical CBOR form so
// downstream services need not understand the client<->ingress codec.
func NewQueuedMessage(m protocol.Message) (QueuedMessage, error) {
	content, err := m.Content.MarshalCanonical()
	if err != nil {
		return QueuedMessage{}, err
	}
	return QueuedMessage{ID: m.ID, Timestamp: m.Timestamp, From: m.From, To: m.To, Content: content}, nil
}

// Message converts back into the client-facing protocol.Message shape.
func (q QueuedMessage) Message() (protocol.Message, error) {
	content, err := protocol.UnmarshalCanonical(q.Content)
	if err != nil {
		return protocol.Message{}, err
	}
	return protocol.Message{ID: q.ID, Timestamp: q.Timestamp, From: q.From, To: q.To, Content: content}, nil
}

// Encode renders q in the fixed 64-byte-header byte layout from §3.
func (q QueuedMessage) Encode() []byte {
	buf := make([]byte, headerLen+len(q.Content))
	copy(buf[offsetID:], q.ID[:])
	binary.BigEndian.PutUint64(buf[offsetTimestamp:], q.Timestamp)
	copy(buf[offsetFrom:], q.From[:])
	copy(buf[offsetTo:], q.To[:])
	binary.BigEndian.PutUint64(buf[offsetContentLen:], uint64(len(q.Content)))
	copy(buf[offsetContent:], q.Content)
	return buf
}

// Decode parses the fixed byte layout back into a QueuedMessage.
func Decode(buf []byte) (QueuedMessage, error) {
	if len(buf) < headerLen {
		return QueuedMessage{}, fmt.Errorf("%w: %d bytes", protocol.ErrInsufficientBuffer, len(buf))
	}

	contentLen := binary.BigEndian.Uint64(buf[offsetContentLen:offsetContent])
	gotContentLen := uint64(len(buf) - headerLen)
	if contentLen != gotContentLen {
		return QueuedMessage{}, fmt.Errorf("%w: header says %d, buffer has %d", protocol.ErrInvalidContentLength, contentLen, gotContentLen)
	}

	var q QueuedMessage
	copy(q.ID[:], buf[offsetID:offsetTimestamp])
	q.Timestamp = binary.BigEndian.Uint64(buf[offsetTimestamp:offsetFrom])
	copy(q.From[:], buf[offsetFrom:offsetTo])
	copy(q.To[:], buf[offsetTo:offsetContentLen])
	q.Content = append([]byte(nil), buf[offsetContent:]...)
	return q, nil
}

// HandleResult is the tri-state outcome of processing one queued
// message, matching §4.6/§8's handler result table.
type HandleResult int

const (
	// HandleOk commits (acks) the broker offset and continues.
	HandleOk HandleResult = iota
	// HandleFailure logs, acks, and continues: the message is
	// unrecoverable (malformed, recipient offline, endpoint gone) but
	// the consumer loop itself is healthy.
	HandleFailure
	// HandleError logs and stops the consumer loop: something is
	// wrong with the consumer itself, not this one message.
	HandleError
)

// Handler processes one message consumed from topic. It must not block
// indefinitely; broker backends apply no per-message timeout of their
// own, matching the "never retry inside the hot path" rule of §7.
type Handler interface {
	Handle(ctx context.Context, topic string, msg QueuedMessage) HandleResult
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, topic string, msg QueuedMessage) HandleResult

func (f HandlerFunc) Handle(ctx context.Context, topic string, msg QueuedMessage) HandleResult {
	return f(ctx, topic, msg)
}

// Producer publishes queued messages to a broker. Implementations must
// only report success after a durable broker acknowledgment (§4.5).
type Producer interface {
	Publish(ctx context.Context, message protocol.Message) error
	Close() error
}

// Consumer drives a Handler over one broker topic/subscription with
// manual acknowledgment until ctx is canceled or the handler returns
// HandleError.
type Consumer interface {
	Run(ctx context.Context, handler Handler) error
	Close() error
}
