// Command jinshu-comet runs the ingress node (spec.md §4.4): accept
// client TCP connections, perform the sign-in handshake, and shuttle
// Pdus between clients and the rest of the system. It also exposes its
// own Push RPC so the dispatcher can deliver to connections held here.
// Wiring mirrors jinshu-comet/src/main.rs.
package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/jinshuio/jinshu/internal/comet"
	"github.com/jinshuio/jinshu/internal/config"
	"github.com/jinshuio/jinshu/internal/netutil"
	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/jinshuio/jinshu/internal/registry/etcd"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/jinshuio/jinshu/internal/session"
	"github.com/jinshuio/jinshu/internal/tlsprovider"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// inClusterOrKubeconfigClientset mirrors the proxy's own fallback: try
// the kubeconfig pointed to by KUBECONFIG (or ~/.kube/config), and fall
// back to in-cluster config when running inside a pod.
func inClusterOrKubeconfigClientset() (*kubernetes.Clientset, error) {
	kubeconfig := os.Getenv("KUBECONFIG")
	if kubeconfig == "" {
		kubeconfig = os.Getenv("HOME") + "/.kube/config"
	}

	restConfig, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		&clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfig},
		&clientcmd.ConfigOverrides{},
	).ClientConfig()
	if err != nil {
		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("comet: build kubeconfig: %w", err)
		}
	}

	return kubernetes.NewForConfig(restConfig)
}

// resolveOne returns one live instance of name from the registry, for
// the one-shot startup resolution of the authorizer/receiver clients.
// It does not track membership changes afterward; if the sole instance
// this comet resolved moves, the operator must restart the comet
// process, a known simplification over a live-updating client (see
// DESIGN.md).
func resolveOne(ctx context.Context, reg *etcd.Registry, name string) (string, error) {
	instances, err := reg.Discover(ctx, name)
	if err != nil {
		return "", fmt.Errorf("comet: discover %s: %w", name, err)
	}
	for _, uri := range instances {
		return uri, nil
	}
	return "", fmt.Errorf("comet: no live instance of %s registered", name)
}

func acceptLoop(ctx context.Context, listener net.Listener, manager *comet.ConnectionManager, codec protocol.CodecID) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logrus.WithError(err).Warn("comet: accept error")
			continue
		}
		go func() {
			if err := manager.Accept(ctx, conn, codec); err != nil {
				logrus.WithError(err).Debug("comet: connection ended")
			}
		}()
	}
}

func run(configName string) error {
	cfg := config.DefaultCometConfig()
	if err := config.Load(configName, &cfg); err != nil {
		return fmt.Errorf("comet: load config: %w", err)
	}
	if err := config.InitLogging(cfg.Logging); err != nil {
		return fmt.Errorf("comet: init logging: %w", err)
	}

	codec, err := protocol.ParseCodecID(cfg.Codec)
	if err != nil {
		return fmt.Errorf("comet: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	reg, err := etcd.New(cfg.Etcd)
	if err != nil {
		return fmt.Errorf("comet: connect etcd: %w", err)
	}
	defer reg.Close()

	ctx, cancel := netutil.ShutdownSignal()
	defer cancel()

	authorizerURI, err := resolveOne(ctx, reg, cfg.AuthorizerServiceName)
	if err != nil {
		return err
	}
	receiverURI, err := resolveOne(ctx, reg, cfg.ReceiverServiceName)
	if err != nil {
		return err
	}

	authorizerClient := rpc.NewAuthorizerClient(authorizerURI)
	receiverClient := rpc.NewReceiverClient(receiverURI)
	sessions := session.NewStore(redisClient)

	rpcListener, rpcURI, err := cfg.Service.TryBind()
	if err != nil {
		return fmt.Errorf("comet: bind rpc listener: %w", err)
	}

	handshakeTimeout := time.Duration(cfg.HandshakeTimeoutSeconds) * time.Second
	if handshakeTimeout <= 0 {
		handshakeTimeout = 10 * time.Second
	}

	manager := comet.NewConnectionManager(rpcURI, receiverClient, authorizerClient, sessions, handshakeTimeout)

	leaseKeeper, err := reg.Register(ctx, cfg.Service.ServiceName, rpcURI)
	if err != nil {
		return fmt.Errorf("comet: register service: %w", err)
	}

	clientListener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("comet: bind client listener: %w", err)
	}

	if cfg.TLS.Provider != "" && cfg.TLS.Provider != "none" {
		var clientset *kubernetes.Clientset
		if cfg.TLS.Provider == "kubernetes" {
			clientset, err = inClusterOrKubeconfigClientset()
			if err != nil {
				return err
			}
		}

		provider, err := tlsprovider.New(cfg.TLS, clientset)
		if err != nil {
			return fmt.Errorf("comet: build tls provider: %w", err)
		}
		if _, err := provider.GetCertificate(ctx); err != nil {
			return fmt.Errorf("comet: load certificate: %w", err)
		}
		clientListener = tls.NewListener(clientListener, &tls.Config{
			GetCertificate: func(*tls.ClientHelloInfo) (*tls.Certificate, error) {
				return provider.GetCertificate(ctx)
			},
		})
	}

	go acceptLoop(ctx, clientListener, manager, codec)

	pushServer := rpc.NewPushServer(manager)
	logrus.WithFields(logrus.Fields{"client_addr": cfg.ListenAddr, "rpc_uri": rpcURI}).Info("comet is running")

	if err := rpc.Serve(ctx, rpcListener, pushServer.Handler()); err != nil {
		return fmt.Errorf("comet: serve: %w", err)
	}

	clientListener.Close()
	if _, err := leaseKeeper.Close(context.Background()); err != nil {
		logrus.WithError(err).Warn("comet: deregister service")
	}
	return nil
}

func main() {
	var configName string

	root := &cobra.Command{
		Use:   "jinshu-comet",
		Short: "run the jinshu ingress node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configName)
		},
	}
	root.Flags().StringVar(&configName, "config", "comet", "configuration file name (searched under ./config)")

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("comet exited with an error")
		os.Exit(1)
	}
}
