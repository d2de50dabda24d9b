package registry

import "sync"

// Snapshot is a live-updated, concurrency-safe view of a named
// service's current instances. The pack carries no sharded concurrent
// map dependency (the closest, dashmap, is Rust-only), so a
// mutex-guarded map is the idiomatic Go stand-in — see DESIGN.md.
type Snapshot struct {
	mu   sync.RWMutex
	uris map[string]string
}

func newSnapshot(initial map[string]string) *Snapshot {
	uris := make(map[string]string, len(initial))
	for k, v := range initial {
		uris[k] = v
	}
	return &Snapshot{uris: uris}
}

func (s *Snapshot) set(key, uri string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris[key] = uri
}

func (s *Snapshot) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.uris, key)
}

// All returns a copy of the current key -> uri map.
func (s *Snapshot) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.uris))
	for k, v := range s.uris {
		out[k] = v
	}
	return out
}

// Any returns one arbitrary uri from the snapshot, for callers that
// just need "a" live instance rather than the full set.
func (s *Snapshot) Any() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.uris {
		return v, true
	}
	return "", false
}
