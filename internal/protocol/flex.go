package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// flex.go implements the "FlexBuffers" codec variant named in §3 of the
// spec. No maintained Go port of Google's FlexBuffers format exists in
// the example pack or in the wider ecosystem (flatbuffers' official Go
// module only covers the tabular FlatBuffers format, not FlexBuffers),
// so this is a hand-rolled, self-describing binary encoding of wirePdu
// built on stdlib only — see DESIGN.md for the justification this
// repo's convention requires before reaching for the standard library.
// It is internal to this codebase, not an implementation of Google's
// on-the-wire FlexBuffers format.

func writeFlexString(buf *bytes.Buffer, s string) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
}

func writeFlexBytes(buf *bytes.Buffer, b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	buf.Write(lenBuf[:])
	buf.Write(b)
}

func readFlexString(r *bytes.Reader) (string, error) {
	b, err := readFlexBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readFlexBytes(r *bytes.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxDataLen {
		return nil, fmt.Errorf("%w: flexbuffers field length %d exceeds max", ErrTooLong, n)
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeFlex(w wirePdu) ([]byte, error) {
	var buf bytes.Buffer

	var u32 [4]byte
	binary.BigEndian.PutUint32(u32[:], w.Time)
	buf.Write(u32[:])
	binary.BigEndian.PutUint32(u32[:], w.Seq)
	buf.Write(u32[:])

	writeFlexString(&buf, w.Type)
	writeFlexString(&buf, w.Method)
	writeFlexString(&buf, w.Status)
	writeFlexString(&buf, w.UserID)
	writeFlexString(&buf, w.Token)

	if w.Message == nil {
		buf.WriteByte(0)
	} else {
		buf.WriteByte(1)
		m := w.Message
		writeFlexString(&buf, m.ID)
		var u64 [8]byte
		binary.BigEndian.PutUint64(u64[:], m.Timestamp)
		buf.Write(u64[:])
		writeFlexString(&buf, m.From)
		writeFlexString(&buf, m.To)
		writeFlexString(&buf, m.Content.Type)
		writeFlexString(&buf, m.Content.Mime)
		writeFlexBytes(&buf, m.Content.Bytes)
		writeFlexString(&buf, m.Content.URL)
	}

	writeFlexBytes(&buf, w.Extension)
	writeFlexString(&buf, w.MessageID)
	writeFlexString(&buf, w.Cause)

	return buf.Bytes(), nil
}

func decodeFlex(payload []byte) (wirePdu, error) {
	r := bytes.NewReader(payload)
	var w wirePdu

	var u32 [4]byte
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return w, err
	}
	w.Time = binary.BigEndian.Uint32(u32[:])
	if _, err := io.ReadFull(r, u32[:]); err != nil {
		return w, err
	}
	w.Seq = binary.BigEndian.Uint32(u32[:])

	var err error
	if w.Type, err = readFlexString(r); err != nil {
		return w, err
	}
	if w.Method, err = readFlexString(r); err != nil {
		return w, err
	}
	if w.Status, err = readFlexString(r); err != nil {
		return w, err
	}
	if w.UserID, err = readFlexString(r); err != nil {
		return w, err
	}
	if w.Token, err = readFlexString(r); err != nil {
		return w, err
	}

	present, err := r.ReadByte()
	if err != nil {
		return w, err
	}
	if present == 1 {
		var m wireMessage
		if m.ID, err = readFlexString(r); err != nil {
			return w, err
		}
		var u64 [8]byte
		if _, err := io.ReadFull(r, u64[:]); err != nil {
			return w, err
		}
		m.Timestamp = binary.BigEndian.Uint64(u64[:])
		if m.From, err = readFlexString(r); err != nil {
			return w, err
		}
		if m.To, err = readFlexString(r); err != nil {
			return w, err
		}
		if m.Content.Type, err = readFlexString(r); err != nil {
			return w, err
		}
		if m.Content.Mime, err = readFlexString(r); err != nil {
			return w, err
		}
		if m.Content.Bytes, err = readFlexBytes(r); err != nil {
			return w, err
		}
		if m.Content.URL, err = readFlexString(r); err != nil {
			return w, err
		}
		w.Message = &m
	}

	if w.Extension, err = readFlexBytes(r); err != nil {
		return w, err
	}
	if len(w.Extension) == 0 {
		w.Extension = nil
	}
	if w.MessageID, err = readFlexString(r); err != nil {
		return w, err
	}
	if w.Cause, err = readFlexString(r); err != nil {
		return w, err
	}

	return w, nil
}
