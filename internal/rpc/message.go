package rpc

import "github.com/jinshuio/jinshu/internal/protocol"

// EnqueueRequest is the body the receiver's POST /enqueue endpoint
// accepts: a single client-originated Message to hand off to the
// broker, matching §4.5 of the spec.
type EnqueueRequest struct {
	Message protocol.Message `json:"message"`
}

// EnqueueResponse carries nothing beyond success; failures are
// reported as a non-2xx status with an error body (see status.go).
type EnqueueResponse struct{}

// PushRequest is the body the comet's POST /push endpoint accepts: the
// pusher delivering one message to a user it believes is connected to
// this comet instance.
type PushRequest struct {
	UserID  protocol.UserId  `json:"user_id"`
	Message protocol.Message `json:"message"`
}

// PushResponse reports whether the comet instance still holds a live
// connection for the user (§4.6: "pusher must fall back to recording
// the message as undeliverable if NotFound").
type PushResponse struct {
	Delivered bool `json:"delivered"`
}
