package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jinshuio/jinshu/internal/keeper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRegistry is an in-memory Registry, the Go analogue of
// jinshu-rpc/src/registry/mock.rs, used only by tests.
type mockRegistry struct {
	mu       sync.Mutex
	entries  map[string]map[string]string
	watchers []*mockWatcher
}

func newMockRegistry() *mockRegistry {
	return &mockRegistry{entries: map[string]map[string]string{}}
}

type mockWatcher struct {
	name    string
	changes chan Change
}

func (w *mockWatcher) Changes() <-chan Change { return w.changes }
func (w *mockWatcher) Cancel(ctx context.Context) error {
	close(w.changes)
	return nil
}

func (m *mockRegistry) Register(ctx context.Context, name, uri string) (*keeper.Keeper[error], error) {
	m.mu.Lock()
	if m.entries[name] == nil {
		m.entries[name] = map[string]string{}
	}
	m.entries[name][uri] = uri
	for _, w := range m.watchers {
		if w.name == name {
			w.changes <- Change{Kind: ChangeCreate, Key: uri, URI: uri}
		}
	}
	m.mu.Unlock()

	k := keeper.Make(func(done context.Context) error {
		<-done.Done()
		m.mu.Lock()
		delete(m.entries[name], uri)
		m.mu.Unlock()
		return nil
	})
	return k, nil
}

func (m *mockRegistry) Discover(ctx context.Context, name string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]string{}
	for k, v := range m.entries[name] {
		out[k] = v
	}
	return out, nil
}

func (m *mockRegistry) Watch(ctx context.Context, name string) (Watcher, error) {
	w := &mockWatcher{name: name, changes: make(chan Change, 16)}
	m.mu.Lock()
	m.watchers = append(m.watchers, w)
	m.mu.Unlock()
	return w, nil
}

func TestDiscoverChannelTracksRegistrations(t *testing.T) {
	reg := newMockRegistry()
	ctx := context.Background()

	k1, err := reg.Register(ctx, "svc", "http://a/")
	require.NoError(t, err)

	snap, watchKeeper, err := DiscoverChannel(ctx, reg, "svc")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"http://a/": "http://a/"}, snap.All())

	_, err = reg.Register(ctx, "svc", "http://b/")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(snap.All()) == 2
	}, time.Second, 5*time.Millisecond)

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err = watchKeeper.Close(closeCtx)
	require.NoError(t, err)

	_, err = k1.Close(closeCtx)
	require.NoError(t, err)
}

func TestSnapshotAny(t *testing.T) {
	snap := newSnapshot(map[string]string{"k": "http://x/"})
	uri, ok := snap.Any()
	assert.True(t, ok)
	assert.Equal(t, "http://x/", uri)

	snap.delete("k")
	_, ok = snap.Any()
	assert.False(t, ok)
}
