package protocol

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// ContentKind tags the Content union.
type ContentKind string

const (
	ContentData ContentKind = "Data"
	ContentLink ContentKind = "Link"
)

// Content is the tagged union carried inside a Message. Exactly one of
// the two shapes is populated, selected by Kind. A Data payload's bytes
// are opaque to every service that only forwards the message; only the
// client interprets them against Mime.
type Content struct {
	Kind ContentKind

	// Data fields.
	Mime  string
	Bytes []byte

	// Link fields.
	URL string
}

// NewDataContent builds a Data content with the given MIME type and
// bytes.
func NewDataContent(mime string, data []byte) Content {
	return Content{Kind: ContentData, Mime: mime, Bytes: data}
}

// NewStringContent builds a Data content carrying UTF-8 text.
func NewStringContent(s string) Content {
	return NewDataContent("text/plain; charset=utf-8", []byte(s))
}

// NewLinkContent builds a Link content, validating that rawURL parses.
func NewLinkContent(rawURL string) (Content, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return Content{}, fmt.Errorf("invalid content url: %w", err)
	}
	return Content{Kind: ContentLink, URL: rawURL}, nil
}

// cborContent is the canonical wire shape for Content: a struct with a
// "type" discriminator, matching the #[serde(tag = "type")] shape of
// the original Rust enum so every codec round-trips it the same way.
type cborContent struct {
	Type  string `cbor:"type" json:"type" msgpack:"type"`
	Mime  string `cbor:"mime,omitempty" json:"mime,omitempty" msgpack:"mime,omitempty"`
	Bytes []byte `cbor:"bytes,omitempty" json:"bytes,omitempty" msgpack:"bytes,omitempty"`
	URL   string `cbor:"url,omitempty" json:"url,omitempty" msgpack:"url,omitempty"`
}

func (c Content) toWire() (cborContent, error) {
	switch c.Kind {
	case ContentData:
		return cborContent{Type: "Data", Mime: c.Mime, Bytes: c.Bytes}, nil
	case ContentLink:
		return cborContent{Type: "Link", URL: c.URL}, nil
	default:
		return cborContent{}, fmt.Errorf("%w: unknown content kind %q", ErrInvalidContentFormat, c.Kind)
	}
}

func (w cborContent) fromWire() (Content, error) {
	switch w.Type {
	case "Data":
		return Content{Kind: ContentData, Mime: w.Mime, Bytes: w.Bytes}, nil
	case "Link":
		return Content{Kind: ContentLink, URL: w.URL}, nil
	default:
		return Content{}, fmt.Errorf("%w: unknown content type %q", ErrInvalidContentFormat, w.Type)
	}
}

// MarshalCanonical renders Content as the canonical CBOR form used
// whenever a Message crosses the broker (§3 of the spec): intermediate
// services never need to understand the wire codec negotiated between
// a client and its ingress.
func (c Content) MarshalCanonical() ([]byte, error) {
	wire, err := c.toWire()
	if err != nil {
		return nil, err
	}
	opts := cbor.CanonicalEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		return nil, err
	}
	return em.Marshal(wire)
}

// UnmarshalCanonical parses the canonical CBOR form produced by
// MarshalCanonical.
func UnmarshalCanonical(data []byte) (Content, error) {
	var wire cborContent
	if err := cbor.Unmarshal(data, &wire); err != nil {
		return Content{}, fmt.Errorf("%w: %v", ErrInvalidContentFormat, err)
	}
	return wire.fromWire()
}

// MarshalJSON/UnmarshalJSON let Content participate directly in the
// JSON codec variant using the same tagged-union shape.
func (c Content) MarshalJSON() ([]byte, error) {
	wire, err := c.toWire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(wire)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var wire cborContent
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	content, err := wire.fromWire()
	if err != nil {
		return err
	}
	*c = content
	return nil
}

// Message is the envelope a client sends and an ingress pushes.
type Message struct {
	ID        MessageId `json:"id"`
	Timestamp uint64    `json:"timestamp"`
	From      UserId    `json:"from"`
	To        UserId    `json:"to"`
	Content   Content   `json:"content"`
}

// NewMessage builds a Message with a fresh id and the current wall
// clock timestamp in milliseconds, mirroring Message::new in the
// original source.
func NewMessage(from, to uuid.UUID, content Content) Message {
	return Message{
		ID:        NewMessageId(),
		Timestamp: uint64(time.Now().UnixMilli()),
		From:      from,
		To:        to,
		Content:   content,
	}
}
