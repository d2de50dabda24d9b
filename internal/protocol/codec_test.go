package protocol

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allCodecs = []CodecID{CodecJSON, CodecMsgPack, CodecCBOR, CodecFlexBuffers}

func TestCodecDefaultIsJSON(t *testing.T) {
	var zero CodecID
	assert.Equal(t, CodecJSON, zero)
	assert.Equal(t, "json", zero.String())
}

func TestParseCodecID(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want CodecID
	}{
		{"json", CodecJSON}, {"0", CodecJSON},
		{"msgpack", CodecMsgPack}, {"1", CodecMsgPack},
		{"cbor", CodecCBOR}, {"2", CodecCBOR},
		{"flexbuffers", CodecFlexBuffers}, {"3", CodecFlexBuffers},
	} {
		got, err := ParseCodecID(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}

	_, err := ParseCodecID(uuid.NewString())
	assert.ErrorIs(t, err, ErrInvalidCodec)
}

func samplePdus(t *testing.T) []Pdu {
	t.Helper()
	gen := NewTransactionIdGenerator()

	signIn := Request{Kind: ReqSignIn, UserID: uuid.New(), Token: uuid.New()}.ToPdu(gen.Next())
	ok := Response{Kind: RespOk}.ToPdu(gen.Next())
	send := Request{Kind: ReqSend, Message: NewMessage(uuid.New(), uuid.New(), NewStringContent("hello"))}.ToPdu(gen.Next())
	push := Request{Kind: ReqPush, Message: NewMessage(uuid.New(), uuid.New(), NewStringContent("hi"))}.ToPdu(gen.Next())
	signOut := Request{Kind: ReqSignOut}.ToPdu(gen.Next())
	ping := Request{Kind: ReqPing}.ToPdu(gen.Next())
	pong := Response{Kind: RespPong}.ToPdu(gen.Next())
	signedIn := Response{Kind: RespSignedIn, Extension: []byte(`{"plan":"pro"}`)}.ToPdu(gen.Next())
	invalidToken := Response{Kind: RespInvalidToken, UserID: uuid.New()}.ToPdu(gen.Next())
	queued := Response{Kind: RespQueued, MessageID: uuid.New()}.ToPdu(gen.Next())
	rejected := Response{Kind: RespRejected, MessageID: uuid.New(), Cause: "broker unavailable"}.ToPdu(gen.Next())
	errResp := Response{Kind: RespError, Cause: "boom"}.ToPdu(gen.Next())
	kicked := Response{Kind: RespKicked, Cause: "signed in elsewhere"}.ToPdu(gen.Next())

	link, err := NewLinkContent("https://example.com/a.png")
	require.NoError(t, err)
	linkSend := Request{Kind: ReqSend, Message: NewMessage(uuid.New(), uuid.New(), link)}.ToPdu(gen.Next())

	return []Pdu{signIn, ok, send, push, signOut, ping, pong, signedIn, invalidToken, queued, rejected, errResp, kicked, linkSend}
}

func TestPduRoundTripAllCodecs(t *testing.T) {
	for _, codec := range allCodecs {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			for _, pdu := range samplePdus(t) {
				payload, err := EncodePdu(codec, pdu)
				require.NoError(t, err)

				got, err := DecodePdu(codec, payload)
				require.NoError(t, err)

				assert.Equal(t, pdu.ID, got.ID)
				assert.Equal(t, pdu.Body.IsRequest(), got.Body.IsRequest())
				if pdu.Body.IsRequest() {
					assert.Equal(t, pdu.Body.Req.Kind, got.Body.Req.Kind)
				} else {
					assert.Equal(t, pdu.Body.Resp.Kind, got.Body.Resp.Kind)
				}
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	for _, codec := range allCodecs {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w := NewFrameWriter(&buf, codec)
			for _, pdu := range samplePdus(t) {
				require.NoError(t, w.Send(pdu))
			}

			r := NewFrameReader(&buf)
			for _, want := range samplePdus(t) {
				got, err := r.Next()
				require.NoError(t, err)
				assert.Equal(t, want.ID, got.ID)
			}
		})
	}
}

func TestFrameReaderBlocksUntilFullFrameArrives(t *testing.T) {
	gen := NewTransactionIdGenerator()
	pdu := Response{Kind: RespOk}.ToPdu(gen.Next())

	var full bytes.Buffer
	require.NoError(t, NewFrameWriter(&full, CodecJSON).Send(pdu))
	data := full.Bytes()
	require.Greater(t, len(data), 1)

	pr, pw := io.Pipe()
	r := NewFrameReader(pr)

	result := make(chan error, 1)
	go func() {
		_, err := r.Next()
		result <- err
	}()

	// Write everything but the last byte, then give the reader
	// goroutine a chance to run: it must still be blocked.
	_, err := pw.Write(data[:len(data)-1])
	require.NoError(t, err)

	select {
	case err := <-result:
		t.Fatalf("reader returned before the frame was complete: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	_, err = pw.Write(data[len(data)-1:])
	require.NoError(t, err)

	require.NoError(t, <-result)
}

func TestDecodeInvalidCodecByte(t *testing.T) {
	var buf bytes.Buffer
	head := make([]byte, 4)
	head[0] = 0xff // codec byte way out of range
	buf.Write(head)

	_, err := NewFrameReader(&buf).Next()
	assertErrorIsInvalidCodec(t, err)
}

func assertErrorIsInvalidCodec(t *testing.T, err error) {
	t.Helper()
	assert.ErrorIs(t, err, ErrInvalidCodec)
}

func TestEncodeTooLong(t *testing.T) {
	gen := NewTransactionIdGenerator()
	pdu := Request{
		Kind: ReqSend,
		Message: NewMessage(uuid.New(), uuid.New(), NewDataContent("text/plain", bytes.Repeat([]byte{'J'}, MaxDataLen))),
	}.ToPdu(gen.Next())

	var buf bytes.Buffer
	err := NewFrameWriter(&buf, CodecJSON).Send(pdu)
	assert.ErrorIs(t, err, ErrTooLong)
}

func TestContentRoundTripCanonical(t *testing.T) {
	content := NewStringContent("hello, jinshu")
	data, err := content.MarshalCanonical()
	require.NoError(t, err)

	got, err := UnmarshalCanonical(data)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}
