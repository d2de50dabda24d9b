package protocol

import "errors"

// Sentinel errors surfaced by the codec and content layers. Callers at
// the connection boundary decide how to translate these into an
// on-wire Response or a dropped connection (see spec §7).
var (
	// ErrInvalidCodec is returned when a frame header names a codec
	// byte outside 0..3. The stream must be closed; there is no way
	// to resynchronize on a corrupt header.
	ErrInvalidCodec = errors.New("protocol: invalid codec")

	// ErrTooLong is returned by an encoder when the serialized Pdu
	// exceeds MaxDataLen.
	ErrTooLong = errors.New("protocol: payload too long")

	// ErrInvalidContentFormat is returned when a Content value cannot
	// be serialized, or wire bytes cannot be parsed back into one.
	ErrInvalidContentFormat = errors.New("protocol: invalid content format")

	// ErrInsufficientBuffer and ErrInvalidContentLength are returned
	// while parsing the queued-message byte layout; see internal/queue.
	ErrInsufficientBuffer  = errors.New("protocol: insufficient buffer")
	ErrInvalidContentLength = errors.New("protocol: invalid content length")
)
