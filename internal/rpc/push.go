package rpc

import (
	"context"
	"net/http"
)

// Pusher is implemented by internal/comet's ConnectionManager. Kept as
// an interface here (rather than importing internal/comet directly)
// so internal/rpc stays the shared plumbing layer every service
// depends on, without comet depending back on rpc for its own server
// wiring creating an import cycle.
type Pusher interface {
	// Push delivers message to userID if a live connection exists on
	// this instance. ok=false means no such connection is held here;
	// the caller (dispatcher) falls back to marking the message
	// undeliverable rather than treating it as an error (spec.md §4.6).
	Push(ctx context.Context, userID string, messageJSON PushRequest) (delivered bool, err error)
}

// PushServer exposes a Pusher as the comet's own POST /push endpoint.
type PushServer struct {
	pusher Pusher
}

func NewPushServer(pusher Pusher) *PushServer {
	return &PushServer{pusher: pusher}
}

func (s *PushServer) push(ctx context.Context, req PushRequest) (PushResponse, error) {
	delivered, err := s.pusher.Push(ctx, req.UserID.String(), req)
	if err != nil {
		return PushResponse{}, err
	}
	return PushResponse{Delivered: delivered}, nil
}

func (s *PushServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/push", Handle(s.push))
	return mux
}

// PushClient is the dispatcher's caller of a comet instance's /push
// endpoint.
type PushClient struct {
	client *Client
}

func NewPushClient(baseURL string) *PushClient {
	return &PushClient{client: NewClient(baseURL)}
}

func (c *PushClient) Push(ctx context.Context, req PushRequest) (PushResponse, error) {
	var resp PushResponse
	err := c.client.Call(ctx, "/push", req, &resp)
	return resp, err
}
