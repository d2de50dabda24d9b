package pulsar

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/queue"
)

type Producer struct {
	client   pulsar.Client
	producer pulsar.Producer
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("pulsar: new client: %w", err)
	}

	producer, err := client.CreateProducer(pulsar.ProducerOptions{Topic: cfg.Topic})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pulsar: create producer: %w", err)
	}

	return &Producer{client: client, producer: producer}, nil
}

// Publish blocks until Pulsar durably acknowledges the message,
// matching jinshu-queue's "producer only reports success after broker
// ack" rule (§4.5): pulsar-client-go's Send is already synchronous.
func (p *Producer) Publish(ctx context.Context, message protocol.Message) error {
	qm, err := queue.NewQueuedMessage(message)
	if err != nil {
		return err
	}

	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Payload: qm.Encode(),
		Key:     message.ID.String(),
	})
	return err
}

func (p *Producer) Close() error {
	p.producer.Close()
	p.client.Close()
	return nil
}
