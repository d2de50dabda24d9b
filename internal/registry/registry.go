// Package registry implements the service registry abstraction from
// spec.md §4.3: register this instance's address, discover other
// instances of a named service, and watch for membership changes.
// Grounded on jinshu-rpc/src/registry.rs.
package registry

import (
	"context"

	"github.com/jinshuio/jinshu/internal/keeper"
)

// ChangeKind tags a Change.
type ChangeKind int

const (
	ChangeCreate ChangeKind = iota
	ChangeDelete
)

// Change is one membership event: a service instance appeared at Key
// with address URI, or the instance at Key disappeared.
type Change struct {
	Kind ChangeKind
	Key  string
	URI  string
}

// Watcher streams Change events for one named service until canceled.
type Watcher interface {
	// Changes returns the channel Change events are delivered on. It
	// is closed once the watch ends (canceled, or the backend's
	// underlying stream ends).
	Changes() <-chan Change
	Cancel(ctx context.Context) error
}

// Registry is the service-discovery abstraction every jinshu service
// binds to, implemented by internal/registry/etcd and
// internal/registry/kubernetes.
type Registry interface {
	// Register advertises uri under name and keeps the registration
	// alive until the returned Keeper is closed, at which point the
	// entry is removed. R is whatever error (if any) the background
	// keep-alive loop encountered.
	Register(ctx context.Context, name, uri string) (*keeper.Keeper[error], error)

	// Discover returns the currently known instances of name as
	// key -> uri.
	Discover(ctx context.Context, name string) (map[string]string, error)

	// Watch streams membership changes for name.
	Watch(ctx context.Context, name string) (Watcher, error)
}

// DiscoverChannel composes Discover and Watch into a live-updating
// map[key]uri snapshot guarded by the returned Keeper: Close stops the
// watch loop. This mirrors discover_channel, minus the tonic
// Channel/load-balancer machinery the original builds on top (jinshu
// uses plain HTTP+JSON clients, so callers that need a specific
// instance just read the current snapshot instead of routing through a
// balanced gRPC channel).
func DiscoverChannel(ctx context.Context, r Registry, name string) (*Snapshot, *keeper.Keeper[error], error) {
	watcher, err := r.Watch(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	initial, err := r.Discover(ctx, name)
	if err != nil {
		return nil, nil, err
	}

	snap := newSnapshot(initial)

	k := keeper.Make(func(done context.Context) error {
		for {
			select {
			case <-done.Done():
				return watcher.Cancel(context.Background())
			case change, ok := <-watcher.Changes():
				if !ok {
					return watcher.Cancel(context.Background())
				}
				switch change.Kind {
				case ChangeCreate:
					snap.set(change.Key, change.URI)
				case ChangeDelete:
					snap.delete(change.Key)
				}
			}
		}
	})

	return snap, k, nil
}
