// Command jinshu-pusher runs the dispatcher (spec.md §4.6): consume
// queued messages from the broker and forward each to the ingress
// instance its recipient is currently connected to. Wiring mirrors
// jinshu-pusher/src/main.rs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jinshuio/jinshu/internal/config"
	"github.com/jinshuio/jinshu/internal/dispatcher"
	"github.com/jinshuio/jinshu/internal/netutil"
	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/jinshuio/jinshu/internal/queue/kafka"
	"github.com/jinshuio/jinshu/internal/queue/pulsar"
	"github.com/jinshuio/jinshu/internal/registry/etcd"
	"github.com/jinshuio/jinshu/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newConsumer(cfg config.QueueBackend) (queue.Consumer, error) {
	switch cfg.Backend {
	case "", "kafka":
		return kafka.NewConsumer(cfg.Kafka)
	case "pulsar":
		return pulsar.NewConsumer(cfg.Pulsar)
	default:
		return nil, fmt.Errorf("pusher: unknown queue backend %q", cfg.Backend)
	}
}

func run(configName string) error {
	cfg := config.DefaultPusherConfig()
	if err := config.Load(configName, &cfg); err != nil {
		return fmt.Errorf("pusher: load config: %w", err)
	}
	if err := config.InitLogging(cfg.Logging); err != nil {
		return fmt.Errorf("pusher: init logging: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	reg, err := etcd.New(cfg.Etcd)
	if err != nil {
		return fmt.Errorf("pusher: connect etcd: %w", err)
	}
	defer reg.Close()

	consumer, err := newConsumer(cfg.Queue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, cancel := netutil.ShutdownSignal()
	defer cancel()

	pusher := dispatcher.NewPusher(session.NewStore(redisClient))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return pusher.Run(groupCtx, reg, cfg.CometServiceName)
	})
	group.Go(func() error {
		return consumer.Run(groupCtx, pusher)
	})

	logrus.WithField("backend", cfg.Queue.Backend).Info("pusher is running")
	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("pusher: %w", err)
	}
	return nil
}

func main() {
	var configName string

	root := &cobra.Command{
		Use:   "jinshu-pusher",
		Short: "run the jinshu dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configName)
		},
	}
	root.Flags().StringVar(&configName, "config", "pusher", "configuration file name (searched under ./config)")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("pusher exited with an error")
		os.Exit(1)
	}
}
