// Package kafka adapts internal/queue's Producer/Consumer contract to
// Kafka via github.com/twmb/franz-go, grounded on
// jinshu-queue/src/kafka.rs and jinshu-queue/src/kafka/consumer.rs in
// original_source.
package kafka

// ProducerConfig configures a Kafka-backed queue.Producer.
type ProducerConfig struct {
	Servers []string `mapstructure:"servers"`
	Topic   string   `mapstructure:"topic"`

	// MessageTimeoutMs bounds how long ProduceSync waits for a broker
	// acknowledgment before giving up.
	MessageTimeoutMs uint64 `mapstructure:"message_timeout_ms"`
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		Servers:          []string{"localhost:9092"},
		Topic:            "jinshu.dev",
		MessageTimeoutMs: 3000,
	}
}

// ConsumerConfig configures a Kafka-backed queue.Consumer.
type ConsumerConfig struct {
	Servers []string `mapstructure:"servers"`
	Topic   string   `mapstructure:"topic"`

	GroupID         string `mapstructure:"group_id"`
	AutoOffsetReset string `mapstructure:"auto_offset_reset"`
	SessionTimeoutMs uint64 `mapstructure:"session_timeout_ms"`

	// AutoCommit mirrors the original's enable.auto.commit; jinshu
	// always disables it and commits manually after Handle returns, so
	// offsets only advance once a message is actually processed.
	AutoCommit bool `mapstructure:"auto_commit"`
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Servers:          []string{"localhost:9092"},
		Topic:            "jinshu.dev",
		GroupID:          "jinshu.group",
		AutoOffsetReset:  "earliest",
		SessionTimeoutMs: 300000,
		AutoCommit:       false,
	}
}
