// Package protocol implements the client<->ingress wire format: the
// framed codec, the Pdu/Message/Content types and the transaction id
// generator described by the jinshu protocol.
package protocol

import "github.com/google/uuid"

// UserId, MessageId and Token are all 128-bit UUIDs. They are aliases
// of uuid.UUID, separate names only for readability at call sites; the
// representation is identical: 16 raw bytes in the queued-message
// layout, 32-char lowercase hex in the client wire Pdu (see Simple),
// and uuid.UUID's dashed 36-char text form wherever a value is
// marshaled directly with encoding/json (the RPC bodies).
type (
	UserId    = uuid.UUID
	MessageId = uuid.UUID
	Token     = uuid.UUID
)

// NewMessageId assigns a new message id the way a sending client does.
func NewMessageId() MessageId {
	return uuid.New()
}

// ParseID parses a 32-char lowercase hex (or standard dashed) UUID
// string. Both representations round-trip the same bytes; the wire
// format mandates the 32-char simple form, but accepting the dashed
// form too costs nothing and helps in tests and tooling.
func ParseID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// Simple renders id in the 32-char lowercase hex form used on the wire
// and in registry/cache keys.
func Simple(id uuid.UUID) string {
	buf := make([]byte, 32)
	enc := id[:]
	const hexDigits = "0123456789abcdef"
	j := 0
	for _, b := range enc {
		buf[j] = hexDigits[b>>4]
		buf[j+1] = hexDigits[b&0x0f]
		j += 2
	}
	return string(buf)
}
