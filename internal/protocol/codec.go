package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// CodecID is the one-byte tag carried by every frame header (§3).
type CodecID uint8

const (
	CodecJSON        CodecID = 0
	CodecMsgPack     CodecID = 1
	CodecCBOR        CodecID = 2
	CodecFlexBuffers CodecID = 3
)

func (c CodecID) String() string {
	switch c {
	case CodecJSON:
		return "json"
	case CodecMsgPack:
		return "msgpack"
	case CodecCBOR:
		return "cbor"
	case CodecFlexBuffers:
		return "flexbuffers"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodecID accepts either the numeric or the name form, matching
// the original's FromStr implementation (used to parse the comet's
// configured codec).
func ParseCodecID(s string) (CodecID, error) {
	switch s {
	case "json", "0":
		return CodecJSON, nil
	case "msgpack", "1":
		return CodecMsgPack, nil
	case "cbor", "2":
		return CodecCBOR, nil
	case "flexbuffers", "3":
		return CodecFlexBuffers, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidCodec, s)
	}
}

func codecFromByte(b uint8) (CodecID, error) {
	if b > uint8(CodecFlexBuffers) {
		return 0, ErrInvalidCodec
	}
	return CodecID(b), nil
}

// EncodePdu serializes p under the given codec into its bare payload
// bytes (no frame header).
func EncodePdu(codec CodecID, p Pdu) ([]byte, error) {
	w, err := toWirePdu(p)
	if err != nil {
		return nil, err
	}

	switch codec {
	case CodecJSON:
		return json.Marshal(w)
	case CodecMsgPack:
		return msgpack.Marshal(w)
	case CodecCBOR:
		em, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		return em.Marshal(w)
	case CodecFlexBuffers:
		return encodeFlex(w)
	default:
		return nil, fmt.Errorf("%w: codec id %d", ErrInvalidCodec, codec)
	}
}

// DecodePdu parses a bare payload (as produced by EncodePdu) back into
// a Pdu.
func DecodePdu(codec CodecID, payload []byte) (Pdu, error) {
	var w wirePdu

	switch codec {
	case CodecJSON:
		if err := json.Unmarshal(payload, &w); err != nil {
			return Pdu{}, err
		}
	case CodecMsgPack:
		if err := msgpack.Unmarshal(payload, &w); err != nil {
			return Pdu{}, err
		}
	case CodecCBOR:
		if err := cbor.Unmarshal(payload, &w); err != nil {
			return Pdu{}, err
		}
	case CodecFlexBuffers:
		var err error
		w, err = decodeFlex(payload)
		if err != nil {
			return Pdu{}, err
		}
	default:
		return Pdu{}, fmt.Errorf("%w: codec id %d", ErrInvalidCodec, codec)
	}

	return w.fromWirePdu()
}

// MaxDataLen is the largest payload a frame may carry: a 24-bit
// length field, so (1<<24)-1 bytes (~16 MiB).
const MaxDataLen = (1 << 24) - 1

// HeadLen is the size of the frame header.
const HeadLen = 4
