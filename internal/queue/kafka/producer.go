package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Producer publishes QueuedMessages to a Kafka topic, only reporting
// success once the broker durably acknowledges the record (§4.5: "a
// producer must not claim success before the broker acknowledges").
type Producer struct {
	client *kgo.Client
	topic  string
	timeout time.Duration
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Servers...),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new producer client: %w", err)
	}

	timeout := time.Duration(cfg.MessageTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &Producer{client: cl, topic: cfg.Topic, timeout: timeout}, nil
}

func (p *Producer) Publish(ctx context.Context, message protocol.Message) error {
	qm, err := queue.NewQueuedMessage(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	record := &kgo.Record{Topic: p.topic, Key: message.ID[:], Value: qm.Encode()}
	result := p.client.ProduceSync(ctx, record)
	return result.FirstErr()
}

func (p *Producer) Close() error {
	p.client.Close()
	return nil
}
