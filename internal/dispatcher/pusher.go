// Package dispatcher implements the pusher (spec.md §4.6): a broker
// consumer that, for each queued message, looks up the recipient's
// ingress assignment in the session directory and forwards the message
// to that ingress over its Push RPC. Grounded on
// jinshu-pusher/src/pusher.rs.
package dispatcher

import (
	"context"
	"sync"

	"github.com/jinshuio/jinshu/internal/queue"
	"github.com/jinshuio/jinshu/internal/registry"
	"github.com/jinshuio/jinshu/internal/rpc"
	"github.com/jinshuio/jinshu/internal/session"
	"github.com/sirupsen/logrus"
)

// Pusher implements queue.Handler: the per-message dispatcher
// procedure of spec.md §4.6. It maintains a pool of PushClients keyed
// by ingress URI, kept current by a registry watch loop started by
// Run.
type Pusher struct {
	sessions *session.Store

	mu        sync.RWMutex
	pool      map[string]*rpc.PushClient // keyed by ingress URI, matching what the session directory stores
	keyToURI  map[string]string          // registry key -> URI, so Delete (which only carries the key) can find the pool entry
}

func NewPusher(sessions *session.Store) *Pusher {
	return &Pusher{
		sessions: sessions,
		pool:     make(map[string]*rpc.PushClient),
		keyToURI: make(map[string]string),
	}
}

// Run watches the comet service's registry entries, maintaining the
// channel pool until ctx is canceled, mirroring Pusher::new's watcher
// task. Connect "failures" can't really happen for an HTTP client (no
// dial occurs until the first request), but construction is kept here
// anyway so a future transport that does dial eagerly has a natural
// hook, and so Create/Delete symmetry matches the original.
func (p *Pusher) Run(ctx context.Context, reg registry.Registry, serviceName string) error {
	watcher, err := reg.Watch(ctx, serviceName)
	if err != nil {
		return err
	}

	initial, err := reg.Discover(ctx, serviceName)
	if err != nil {
		_ = watcher.Cancel(context.Background())
		return err
	}
	for key, uri := range initial {
		p.create(key, uri)
	}

	for {
		select {
		case <-ctx.Done():
			return watcher.Cancel(context.Background())
		case change, ok := <-watcher.Changes():
			if !ok {
				return nil
			}
			switch change.Kind {
			case registry.ChangeCreate:
				p.create(change.Key, change.URI)
			case registry.ChangeDelete:
				p.delete(change.Key)
			}
		}
	}
}

func (p *Pusher) create(key, uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool[uri] = rpc.NewPushClient(uri)
	p.keyToURI[key] = uri
	logrus.WithFields(logrus.Fields{"key": key, "uri": uri}).Info("ingress endpoint added to channel pool")
}

func (p *Pusher) delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uri, ok := p.keyToURI[key]
	if !ok {
		return
	}
	delete(p.keyToURI, key)
	delete(p.pool, uri)
	logrus.WithFields(logrus.Fields{"key": key, "uri": uri}).Info("ingress endpoint removed from channel pool")
}

func (p *Pusher) get(uri string) (*rpc.PushClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.pool[uri]
	return c, ok
}

// Handle implements queue.Handler: the five-step procedure of spec.md
// §4.6. Step 1 (deserializing the queued-message layout) already
// happened by the time the broker-specific Consumer calls Handle; msg
// arrives pre-decoded.
func (p *Pusher) Handle(ctx context.Context, topic string, msg queue.QueuedMessage) queue.HandleResult {
	message, err := msg.Message()
	if err != nil {
		logrus.WithError(err).Warn("dropping malformed queued message")
		return queue.HandleFailure
	}

	uri, ok, err := p.sessions.Load(ctx, message.To)
	if err != nil {
		logrus.WithError(err).WithField("to", message.To).Warn("session directory lookup failed")
		return queue.HandleFailure
	}
	if !ok {
		logrus.WithField("to", message.To).Info("user offline, dropping message")
		return queue.HandleFailure
	}

	client, ok := p.get(uri)
	if !ok {
		logrus.WithField("uri", uri).Warn("no channel pool entry for ingress endpoint")
		return queue.HandleFailure
	}

	resp, err := client.Push(ctx, rpc.PushRequest{UserID: message.To, Message: message})
	if err != nil {
		logrus.WithError(err).WithField("uri", uri).Warn("push rpc failed")
		return queue.HandleFailure
	}
	if !resp.Delivered {
		logrus.WithField("uri", uri).Info("ingress reports user not connected there anymore")
		return queue.HandleFailure
	}

	return queue.HandleOk
}
