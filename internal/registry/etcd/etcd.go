// Package etcd implements internal/registry.Registry over
// go.etcd.io/etcd/client/v3, ported from
// jinshu-rpc/src/registry/etcd.rs.
package etcd

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jinshuio/jinshu/internal/keeper"
	"github.com/jinshuio/jinshu/internal/registry"
	"github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// validURI reports whether value parses as an absolute URI, the same
// log-and-skip gate spec.md §4.3 requires for both Discover and Watch:
// a malformed value under the registry prefix must not reach callers
// as a usable endpoint.
func validURI(value string) bool {
	u, err := url.Parse(value)
	return err == nil && u.IsAbs()
}

// Config mirrors EtcdConfig from the original.
type Config struct {
	Namespace string   `mapstructure:"namespace"`
	Endpoints []string `mapstructure:"endpoints"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	TTL       int64    `mapstructure:"ttl"`
}

func DefaultConfig() Config {
	return Config{Namespace: "jinshu", Endpoints: []string{"localhost:2379"}, TTL: 10}
}

// Registry implements registry.Registry over etcd.
type Registry struct {
	client    *clientv3.Client
	namespace string
	ttl       int64
}

func New(cfg Config) (*Registry, error) {
	client, err := clientv3.New(clientv3.Config{
		Endpoints: cfg.Endpoints,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd registry: connect: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 10
	}

	return &Registry{client: client, namespace: cfg.Namespace, ttl: ttl}, nil
}

func (r *Registry) keyPrefix(name string) string {
	return fmt.Sprintf("%s.%s.", r.namespace, name)
}

func (r *Registry) key(name, uri string) string {
	return fmt.Sprintf("%s.%s.%s", r.namespace, name, uri)
}

// Register puts a lease-bound key for uri under name and starts
// clientv3's KeepAlive for the lease, which renews it on the client
// library's own schedule. The returned Keeper's loop reads the
// keep-alive responses, pausing ttl/2 after each one, and deletes the
// key once the Keeper is closed — ported from EtcdRegistry::register.
func (r *Registry) Register(ctx context.Context, name, uri string) (*keeper.Keeper[error], error) {
	key := r.key(name, uri)

	lease, err := r.client.Grant(ctx, r.ttl)
	if err != nil {
		return nil, fmt.Errorf("etcd registry: grant lease: %w", err)
	}

	if _, err := r.client.Put(ctx, key, uri, clientv3.WithLease(lease.ID)); err != nil {
		return nil, fmt.Errorf("etcd registry: put: %w", err)
	}

	keepAlive, err := r.client.KeepAlive(context.Background(), lease.ID)
	if err != nil {
		return nil, fmt.Errorf("etcd registry: keep alive: %w", err)
	}

	ttl := r.ttl
	client := r.client

	k := keeper.Make(func(done context.Context) error {
		for {
			select {
			case <-done.Done():
				if _, err := client.Delete(context.Background(), key); err != nil {
					return fmt.Errorf("etcd registry: delete on close: %w", err)
				}
				return nil
			case resp, ok := <-keepAlive:
				if !ok {
					logrus.WithField("key", key).Warn("etcd keep-alive stream closed")
					return nil
				}
				logrus.WithFields(logrus.Fields{"id": resp.ID, "ttl": resp.TTL}).Debug("got a keep alive response")

				select {
				case <-time.After(time.Duration(ttl/2) * time.Second):
				case <-done.Done():
					if _, err := client.Delete(context.Background(), key); err != nil {
						return fmt.Errorf("etcd registry: delete on close: %w", err)
					}
					return nil
				}
			}
		}
	})

	return k, nil
}

// Discover lists every key/uri pair currently registered under name.
func (r *Registry) Discover(ctx context.Context, name string) (map[string]string, error) {
	prefix := r.keyPrefix(name)

	resp, err := r.client.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("etcd registry: get: %w", err)
	}

	out := make(map[string]string, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		key, value := string(kv.Key), string(kv.Value)
		if !validURI(value) {
			logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warn("skipping registry entry with malformed uri")
			continue
		}
		out[key] = value
	}
	return out, nil
}

// Watch streams Put/Delete events under name's key prefix, translating
// them into registry.Change values.
func (r *Registry) Watch(ctx context.Context, name string) (registry.Watcher, error) {
	prefix := r.keyPrefix(name)
	watchCtx, cancel := context.WithCancel(ctx)
	watchChan := r.client.Watch(watchCtx, prefix, clientv3.WithPrefix())

	w := &watcher{cancel: cancel, changes: make(chan registry.Change, 16)}

	go func() {
		defer close(w.changes)
		for resp := range watchChan {
			for _, ev := range resp.Events {
				key := string(ev.Kv.Key)
				switch ev.Type {
				case clientv3.EventTypePut:
					value := string(ev.Kv.Value)
					if !validURI(value) {
						logrus.WithFields(logrus.Fields{"key": key, "value": value}).Warn("skipping registry entry with malformed uri")
						continue
					}
					change := registry.Change{Kind: registry.ChangeCreate, Key: key, URI: value}
					logrus.WithField("change", change).Info("service set is changed")
					w.changes <- change
				case clientv3.EventTypeDelete:
					change := registry.Change{Kind: registry.ChangeDelete, Key: key}
					logrus.WithField("change", change).Info("service set is changed")
					w.changes <- change
				}
			}
		}
	}()

	return w, nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}

type watcher struct {
	cancel  context.CancelFunc
	changes chan registry.Change
}

func (w *watcher) Changes() <-chan registry.Change {
	return w.changes
}

func (w *watcher) Cancel(ctx context.Context) error {
	w.cancel()
	return nil
}
