package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/jinshuio/jinshu/internal/keeper"
	"github.com/jinshuio/jinshu/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry is a minimal in-memory registry.Registry, just enough
// to drive Pusher.Run's Watch-then-Discover sequence in tests, the
// same role internal/registry/registry_test.go's mockRegistry plays
// there.
type fakeRegistry struct {
	entries map[string]string
	watcher *fakeWatcher
}

func newFakeRegistry(entries map[string]string) *fakeRegistry {
	return &fakeRegistry{entries: entries, watcher: &fakeWatcher{changes: make(chan registry.Change, 8)}}
}

func (r *fakeRegistry) Register(ctx context.Context, name, uri string) (*keeper.Keeper[error], error) {
	return keeper.Make(func(done context.Context) error { <-done.Done(); return nil }), nil
}

func (r *fakeRegistry) Discover(ctx context.Context, name string) (map[string]string, error) {
	out := make(map[string]string, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out, nil
}

func (r *fakeRegistry) Watch(ctx context.Context, name string) (registry.Watcher, error) {
	return r.watcher, nil
}

type fakeWatcher struct {
	changes  chan registry.Change
	canceled bool
}

func (w *fakeWatcher) Changes() <-chan registry.Change { return w.changes }

func (w *fakeWatcher) Cancel(ctx context.Context) error {
	w.canceled = true
	return nil
}

func TestPusherRunPopulatesPoolFromDiscoverAndWatch(t *testing.T) {
	reg := newFakeRegistry(map[string]string{"jinshu.comet.http://10.0.0.1:7990/": "http://10.0.0.1:7990/"})

	p := NewPusher(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, reg, "jinshu.comet")
	}()

	require.Eventually(t, func() bool {
		_, ok := p.get("http://10.0.0.1:7990/")
		return ok
	}, time.Second, 5*time.Millisecond)

	reg.watcher.changes <- registry.Change{Kind: registry.ChangeCreate, Key: "jinshu.comet.http://10.0.0.2:7990/", URI: "http://10.0.0.2:7990/"}
	require.Eventually(t, func() bool {
		_, ok := p.get("http://10.0.0.2:7990/")
		return ok
	}, time.Second, 5*time.Millisecond)

	reg.watcher.changes <- registry.Change{Kind: registry.ChangeDelete, Key: "jinshu.comet.http://10.0.0.1:7990/"}
	require.Eventually(t, func() bool {
		_, ok := p.get("http://10.0.0.1:7990/")
		return !ok
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, reg.watcher.canceled)
}
