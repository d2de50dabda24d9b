package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Consumer drives a queue.Handler over one Kafka topic/group, matching
// the select-loop shape of KafkaConsumer::start_with_shutdown: poll,
// dispatch to the handler, commit only after a successful or
// recoverable-failure handle, stop the loop on HandleError.
type Consumer struct {
	client *kgo.Client
	topic  string
}

func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	offsetReset := kgo.NewOffset().AtStart()
	if cfg.AutoOffsetReset == "latest" {
		offsetReset = kgo.NewOffset().AtEnd()
	}

	sessionTimeout := time.Duration(cfg.SessionTimeoutMs) * time.Millisecond
	if sessionTimeout <= 0 {
		sessionTimeout = 300 * time.Second
	}

	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Servers...),
		kgo.ConsumerGroup(cfg.GroupID),
		kgo.ConsumeTopics(cfg.Topic),
		kgo.ConsumeResetOffset(offsetReset),
		kgo.SessionTimeout(sessionTimeout),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: new consumer client: %w", err)
	}

	logrus.WithField("topic", cfg.Topic).Info("topic is subscribed")

	return &Consumer{client: cl, topic: cfg.Topic}, nil
}

func (c *Consumer) Run(ctx context.Context, handler queue.Handler) error {
	defer logrus.WithField("topic", c.topic).Info("topic is unsubscribed")

	for {
		fetches := c.client.PollFetches(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if errs := fetches.Errors(); len(errs) > 0 {
			logrus.WithField("error", errs[0].Err).Error("consumer fetch error")
			return errs[0].Err
		}

		stop := false
		var processed []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if stop {
				return
			}

			qm, err := queue.Decode(record.Value)
			if err != nil {
				logrus.WithError(err).Warn("dropping malformed queued message")
				processed = append(processed, record)
				return
			}

			switch result := handler.Handle(ctx, c.topic, qm); result {
			case queue.HandleOk:
				processed = append(processed, record)
			case queue.HandleFailure:
				logrus.WithField("id", qm.ID).Warn("failed to process message")
				processed = append(processed, record)
			case queue.HandleError:
				logrus.WithField("id", qm.ID).Error("process message error")
				stop = true
			}
		})

		// Commit only the records processed before the first
		// HandleError (or all of them, if none failed fatally):
		// committing the whole batch's offsets regardless would
		// advance past whatever the errored record left unprocessed.
		if len(processed) > 0 {
			if err := c.client.CommitRecords(ctx, processed...); err != nil {
				logrus.WithError(err).Warn("commit offsets failed")
			}
		}

		if stop {
			return nil
		}
	}
}

func (c *Consumer) Close() error {
	c.client.Close()
	return nil
}
