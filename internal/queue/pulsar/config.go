// Package pulsar adapts internal/queue's Producer/Consumer contract to
// Apache Pulsar via github.com/apache/pulsar-client-go, grounded on
// jinshu-queue/src/pulsar.rs and jinshu-queue/src/pulsar/consumer.rs in
// original_source. Unlike the Kafka backend this library has no
// counterpart anywhere in the example pack, so it is grounded on the
// original Rust client's shape alone; see DESIGN.md.
package pulsar

// ProducerConfig configures a Pulsar-backed queue.Producer.
type ProducerConfig struct {
	URL   string `mapstructure:"url"`
	Topic string `mapstructure:"topic"`
}

func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{URL: "pulsar://localhost:6650", Topic: "persistent://public/default/jinshu.dev"}
}

// ConsumerConfig configures a Pulsar-backed queue.Consumer.
type ConsumerConfig struct {
	URL   string `mapstructure:"url"`
	Topic string `mapstructure:"topic"`

	ConsumerName     string `mapstructure:"consumer_name"`
	SubscriptionName string `mapstructure:"subscription_name"`

	// SubscriptionType mirrors the original's string-coded enum:
	// exclusive, shared, failover, or keyshared.
	SubscriptionType string `mapstructure:"subscription_type"`
}

func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		URL:              "pulsar://localhost:6650",
		Topic:            "persistent://public/default/jinshu.dev",
		SubscriptionName: "jinshu",
		SubscriptionType: "keyshared",
	}
}
