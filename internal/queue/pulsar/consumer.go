package pulsar

import (
	"context"
	"fmt"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/sirupsen/logrus"
)

// Consumer drives a queue.Handler over one Pulsar topic subscription,
// mirroring PulsarConsumer::start_with_shutdown's receive/handle/ack
// loop.
type Consumer struct {
	client   pulsar.Client
	consumer pulsar.Consumer
	topic    string
}

func subType(s string) (pulsar.SubscriptionType, error) {
	switch s {
	case "exclusive", "0":
		return pulsar.Exclusive, nil
	case "shared", "1":
		return pulsar.Shared, nil
	case "failover", "2":
		return pulsar.Failover, nil
	case "keyshared", "3", "":
		return pulsar.KeyShared, nil
	default:
		return 0, fmt.Errorf("pulsar: invalid subscription type %q", s)
	}
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	st, err := subType(cfg.SubscriptionType)
	if err != nil {
		return nil, err
	}

	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("pulsar: new client: %w", err)
	}

	opts := pulsar.ConsumerOptions{
		Topic:            cfg.Topic,
		SubscriptionName: cfg.SubscriptionName,
		Type:             st,
		Name:             cfg.ConsumerName,
	}

	consumer, err := client.Subscribe(opts)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("pulsar: subscribe: %w", err)
	}

	logrus.WithField("topic", cfg.Topic).Info("topic is subscribed")

	return &Consumer{client: client, consumer: consumer, topic: cfg.Topic}, nil
}

func (c *Consumer) Run(ctx context.Context, handler queue.Handler) error {
	defer func() {
		c.consumer.Unsubscribe()
		logrus.WithField("topic", c.topic).Info("topic is unsubscribed")
	}()

	for {
		msg, err := c.consumer.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logrus.WithError(err).Warn("consumer stream is closed")
			return err
		}

		qm, err := queue.Decode(msg.Payload())
		if err != nil {
			logrus.WithError(err).Warn("dropping malformed queued message")
			c.consumer.Ack(msg)
			continue
		}

		switch result := handler.Handle(ctx, c.topic, qm); result {
		case queue.HandleOk:
			c.consumer.Ack(msg)
		case queue.HandleFailure:
			logrus.WithField("id", qm.ID).Warn("failed to process message")
			c.consumer.Ack(msg)
		case queue.HandleError:
			logrus.WithField("id", qm.ID).Error("process message error")
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	c.consumer.Close()
	c.client.Close()
	return nil
}
