package rpc

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jinshuio/jinshu/internal/queue"
)

// Receiver implements the ingestion RPC (spec.md §4.5): accept a
// client-originated Message over HTTP+JSON and publish it to the
// broker, only answering 200 once the broker has durably acknowledged
// it.
type Receiver struct {
	producer queue.Producer
}

func NewReceiver(producer queue.Producer) *Receiver {
	return &Receiver{producer: producer}
}

func (r *Receiver) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResponse, error) {
	if err := r.producer.Publish(ctx, req.Message); err != nil {
		return EnqueueResponse{}, StatusInternal(fmt.Errorf("receiver: publish: %w", err))
	}
	return EnqueueResponse{}, nil
}

func (r *Receiver) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/enqueue", Handle(r.Enqueue))
	return mux
}

// ReceiverClient is the client-facing comet's caller of the ingestion
// RPC, used when a comet forwards a Send request onward (spec.md
// §4.4.2 says the ingress sends the Message to the receiver, not
// straight to the broker, keeping every comet instance broker-agnostic).
type ReceiverClient struct {
	client *Client
}

func NewReceiverClient(baseURL string) *ReceiverClient {
	return &ReceiverClient{client: NewClient(baseURL)}
}

func (c *ReceiverClient) Enqueue(ctx context.Context, req EnqueueRequest) error {
	return c.client.Call(ctx, "/enqueue", req, nil)
}
