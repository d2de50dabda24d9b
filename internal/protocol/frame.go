package protocol

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// FrameWriter encodes Pdu values as length-prefixed frames onto an
// underlying writer, one frame per Send call, matching the Encoder
// half of the original's tokio_util Framed codec. The Go analogue of a
// per-connection Framed transport is a buffered writer guarded by the
// single goroutine that owns it (§5: per connection, writes are
// strictly ordered because there is exactly one writer goroutine).
type FrameWriter struct {
	w     *bufio.Writer
	codec CodecID
}

func NewFrameWriter(w io.Writer, codec CodecID) *FrameWriter {
	return &FrameWriter{w: bufio.NewWriter(w), codec: codec}
}

// Send encodes and writes one Pdu as a single frame: header then
// payload, flushed together so a concurrent reader never observes a
// partial frame.
func (fw *FrameWriter) Send(p Pdu) error {
	payload, err := EncodePdu(fw.codec, p)
	if err != nil {
		return err
	}
	if len(payload) > MaxDataLen {
		return fmt.Errorf("%w: %d bytes under codec %s", ErrTooLong, len(payload), fw.codec)
	}

	head := (uint32(fw.codec) << 24) | (uint32(len(payload)) & 0xffffff)
	var headBuf [HeadLen]byte
	binary.BigEndian.PutUint32(headBuf[:], head)

	if _, err := fw.w.Write(headBuf[:]); err != nil {
		return err
	}
	if _, err := fw.w.Write(payload); err != nil {
		return err
	}
	return fw.w.Flush()
}

// FrameReader decodes Pdu values out of an underlying reader. It is a
// two-state machine (Head -> Data -> emit -> Head) exactly as §4.1
// describes; each call to Next drives it to the next emitted Pdu or
// error.
type FrameReader struct {
	r *bufio.Reader
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Next reads exactly one frame and decodes it. Returns io.EOF when the
// underlying stream is closed cleanly between frames.
func (fr *FrameReader) Next() (Pdu, error) {
	var headBuf [HeadLen]byte
	if _, err := io.ReadFull(fr.r, headBuf[:]); err != nil {
		return Pdu{}, err
	}
	head := binary.BigEndian.Uint32(headBuf[:])

	codec, err := codecFromByte(uint8(head >> 24))
	if err != nil {
		return Pdu{}, err
	}
	length := int(head & 0xffffff)

	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(fr.r, payload); err != nil {
			return Pdu{}, err
		}
	}

	return DecodePdu(codec, payload)
}
