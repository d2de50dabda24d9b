// Command jinshu-receiver runs the ingestion RPC service (spec.md
// §4.5): accept a client-originated Message over HTTP+JSON and publish
// it onto the configured broker, registering itself in etcd so comet
// instances can discover it. Wiring mirrors jinshu-receiver/src/main.rs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jinshuio/jinshu/internal/config"
	"github.com/jinshuio/jinshu/internal/netutil"
	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/jinshuio/jinshu/internal/queue/kafka"
	"github.com/jinshuio/jinshu/internal/queue/pulsar"
	"github.com/jinshuio/jinshu/internal/registry/etcd"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newProducer(cfg config.ProducerQueueBackend) (queue.Producer, error) {
	switch cfg.Backend {
	case "", "kafka":
		return kafka.NewProducer(cfg.Kafka)
	case "pulsar":
		return pulsar.NewProducer(cfg.Pulsar)
	default:
		return nil, fmt.Errorf("receiver: unknown queue backend %q", cfg.Backend)
	}
}

func run(configName string) error {
	cfg := config.DefaultReceiverConfig()
	if err := config.Load(configName, &cfg); err != nil {
		return fmt.Errorf("receiver: load config: %w", err)
	}
	if err := config.InitLogging(cfg.Logging); err != nil {
		return fmt.Errorf("receiver: init logging: %w", err)
	}

	producer, err := newProducer(cfg.Queue)
	if err != nil {
		return err
	}
	defer producer.Close()

	reg, err := etcd.New(cfg.Etcd)
	if err != nil {
		return fmt.Errorf("receiver: connect etcd: %w", err)
	}
	defer reg.Close()

	listener, uri, err := cfg.Service.TryBind()
	if err != nil {
		return fmt.Errorf("receiver: bind service listener: %w", err)
	}

	ctx, cancel := netutil.ShutdownSignal()
	defer cancel()

	leaseKeeper, err := reg.Register(ctx, cfg.Service.ServiceName, uri)
	if err != nil {
		return fmt.Errorf("receiver: register service: %w", err)
	}

	receiver := rpc.NewReceiver(producer)

	logrus.WithFields(logrus.Fields{"uri": uri, "backend": cfg.Queue.Backend}).Info("receiver is running")
	if err := rpc.Serve(ctx, listener, receiver.Handler()); err != nil {
		return fmt.Errorf("receiver: serve: %w", err)
	}

	if _, err := leaseKeeper.Close(context.Background()); err != nil {
		logrus.WithError(err).Warn("receiver: deregister service")
	}
	return nil
}

func main() {
	var configName string

	root := &cobra.Command{
		Use:   "jinshu-receiver",
		Short: "run the jinshu message ingestion service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configName)
		},
	}
	root.Flags().StringVar(&configName, "config", "receiver", "configuration file name (searched under ./config)")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("receiver exited with an error")
		os.Exit(1)
	}
}
