package config

import (
	"github.com/jinshuio/jinshu/internal/queue/kafka"
	"github.com/jinshuio/jinshu/internal/queue/pulsar"
	"github.com/jinshuio/jinshu/internal/registry/etcd"
	"github.com/jinshuio/jinshu/internal/rpc"
)

// Logging configures the shared logrus setup (§4.1 of the expanded
// spec).
type Logging struct {
	Level string `mapstructure:"level"`
}

func DefaultLogging() Logging {
	return Logging{Level: "info"}
}

// Redis configures the go-redis client shared by session, authorizer,
// and the sign-in cache.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func DefaultRedis() Redis {
	return Redis{Addr: "localhost:6379"}
}

// QueueBackend selects which broker backend a receiver/pusher uses,
// the Go analogue of the original's QueueConfig<P, C> enum (tagged by
// a "backend" discriminator instead of Rust's internally tagged enum).
type QueueBackend struct {
	Backend string               `mapstructure:"backend"` // "kafka" | "pulsar"
	Kafka   kafka.ConsumerConfig `mapstructure:"kafka"`
	Pulsar  pulsar.ConsumerConfig `mapstructure:"pulsar"`
}

// ProducerQueueBackend mirrors QueueBackend for the receiver, which
// only ever produces.
type ProducerQueueBackend struct {
	Backend string                `mapstructure:"backend"`
	Kafka   kafka.ProducerConfig  `mapstructure:"kafka"`
	Pulsar  pulsar.ProducerConfig `mapstructure:"pulsar"`
}

// ReceiverConfig is cmd/receiver's top-level configuration, mirroring
// jinshu-receiver/src/main.rs's Conf.
type ReceiverConfig struct {
	Service rpc.ServiceConfig    `mapstructure:"service"`
	Logging Logging              `mapstructure:"logging"`
	Etcd    etcd.Config          `mapstructure:"etcd"`
	Queue   ProducerQueueBackend `mapstructure:"queue"`
}

func DefaultReceiverConfig() ReceiverConfig {
	return ReceiverConfig{
		Service: rpc.ServiceConfig{ServiceName: "jinshu.receiver", PublicHost: "0.0.0.0", ListenIP: "0.0.0.0", ListenPort: 0},
		Logging: DefaultLogging(),
		Etcd:    etcd.DefaultConfig(),
		Queue:   ProducerQueueBackend{Backend: "kafka", Kafka: kafka.DefaultProducerConfig(), Pulsar: pulsar.DefaultProducerConfig()},
	}
}

// PusherConfig is cmd/pusher's top-level configuration, mirroring
// jinshu-pusher's main (it both consumes the broker and discovers
// comet instances through the registry).
type PusherConfig struct {
	Logging Logging      `mapstructure:"logging"`
	Etcd    etcd.Config  `mapstructure:"etcd"`
	Redis   Redis        `mapstructure:"redis"`
	Queue   QueueBackend `mapstructure:"queue"`

	// CometServiceName is the registry name the pusher watches to
	// maintain its channel pool of ingress endpoints.
	CometServiceName string `mapstructure:"comet_service_name"`
}

func DefaultPusherConfig() PusherConfig {
	return PusherConfig{
		Logging:          DefaultLogging(),
		Etcd:             etcd.DefaultConfig(),
		Redis:            DefaultRedis(),
		Queue:            QueueBackend{Backend: "kafka", Kafka: kafka.DefaultConsumerConfig(), Pulsar: pulsar.DefaultConsumerConfig()},
		CometServiceName: "jinshu.comet",
	}
}

// AuthorizerConfig is cmd/authorizer's top-level configuration.
type AuthorizerConfig struct {
	Service rpc.ServiceConfig `mapstructure:"service"`
	Logging Logging           `mapstructure:"logging"`
	Etcd    etcd.Config       `mapstructure:"etcd"`
	Redis   Redis             `mapstructure:"redis"`
}

func DefaultAuthorizerConfig() AuthorizerConfig {
	return AuthorizerConfig{
		Service: rpc.ServiceConfig{ServiceName: "jinshu.authorizer", PublicHost: "0.0.0.0", ListenIP: "0.0.0.0", ListenPort: 0},
		Logging: DefaultLogging(),
		Etcd:    etcd.DefaultConfig(),
		Redis:   DefaultRedis(),
	}
}

// CometConfig is cmd/comet's top-level configuration.
type CometConfig struct {
	Service rpc.ServiceConfig `mapstructure:"service"`
	Logging Logging           `mapstructure:"logging"`
	Etcd    etcd.Config       `mapstructure:"etcd"`
	Redis   Redis             `mapstructure:"redis"`

	// ListenAddr is the client-facing (comet protocol) TCP listener,
	// distinct from Service's RPC listener.
	ListenAddr string `mapstructure:"listen_addr"`
	Codec      string `mapstructure:"codec"`

	AuthorizerServiceName string `mapstructure:"authorizer_service_name"`
	ReceiverServiceName   string `mapstructure:"receiver_service_name"`

	// HandshakeTimeoutSeconds bounds how long a connection may take to
	// complete sign-in before being dropped (open question resolution,
	// SPEC_FULL.md §10).
	HandshakeTimeoutSeconds int `mapstructure:"handshake_timeout_seconds"`

	TLS TLSConfig `mapstructure:"tls"`
}

// TLSConfig selects the TLS front-end provider for the comet listener.
type TLSConfig struct {
	// Provider is one of "none", "filesystem", "kubernetes", "self_signed".
	Provider string `mapstructure:"provider"`

	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`

	Namespace  string `mapstructure:"namespace"`
	SecretName string `mapstructure:"secret_name"`
}

func DefaultCometConfig() CometConfig {
	return CometConfig{
		Service:                 rpc.ServiceConfig{ServiceName: "jinshu.comet", PublicHost: "0.0.0.0", ListenIP: "0.0.0.0", ListenPort: 0},
		Logging:                 DefaultLogging(),
		Etcd:                    etcd.DefaultConfig(),
		Redis:                   DefaultRedis(),
		ListenAddr:              "0.0.0.0:7990",
		Codec:                   "json",
		AuthorizerServiceName:   "jinshu.authorizer",
		ReceiverServiceName:     "jinshu.receiver",
		HandshakeTimeoutSeconds: 10,
		TLS:                     TLSConfig{Provider: "none"},
	}
}
