// Command jinshu-authorizer runs the credential check service (spec.md
// §4.2): does the (user_id, token) pair presented at sign-in match
// what was cached out-of-band in Redis. Wiring mirrors
// jinshu-authorizer/src/main.rs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jinshuio/jinshu/internal/config"
	"github.com/jinshuio/jinshu/internal/netutil"
	"github.com/jinshuio/jinshu/internal/registry/etcd"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func run(configName string) error {
	cfg := config.DefaultAuthorizerConfig()
	if err := config.Load(configName, &cfg); err != nil {
		return fmt.Errorf("authorizer: load config: %w", err)
	}
	if err := config.InitLogging(cfg.Logging); err != nil {
		return fmt.Errorf("authorizer: init logging: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	reg, err := etcd.New(cfg.Etcd)
	if err != nil {
		return fmt.Errorf("authorizer: connect etcd: %w", err)
	}
	defer reg.Close()

	listener, uri, err := cfg.Service.TryBind()
	if err != nil {
		return fmt.Errorf("authorizer: bind service listener: %w", err)
	}

	ctx, cancel := netutil.ShutdownSignal()
	defer cancel()

	leaseKeeper, err := reg.Register(ctx, cfg.Service.ServiceName, uri)
	if err != nil {
		return fmt.Errorf("authorizer: register service: %w", err)
	}

	authorizer := rpc.NewAuthorizer(redisClient)

	logrus.WithField("uri", uri).Info("authorizer is running")
	if err := rpc.Serve(ctx, listener, authorizer.Handler()); err != nil {
		return fmt.Errorf("authorizer: serve: %w", err)
	}

	if _, err := leaseKeeper.Close(context.Background()); err != nil {
		logrus.WithError(err).Warn("authorizer: deregister service")
	}
	return nil
}

func main() {
	var configName string

	root := &cobra.Command{
		Use:   "jinshu-authorizer",
		Short: "run the jinshu credential check service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configName)
		},
	}
	root.Flags().StringVar(&configName, "config", "authorizer", "configuration file name (searched under ./config)")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("authorizer exited with an error")
		os.Exit(1)
	}
}
