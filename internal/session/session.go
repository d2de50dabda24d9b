// Package session implements the comet-assignment directory described
// in spec.md §4.4/§7: which comet instance a signed-in user is
// connected to, stored in Redis so the dispatcher (and any comet
// instance) can look it up. Grounded on jinshu-redis/src/session.rs
// and jinshu-redis/src/lib.rs.
package session

import (
	"context"
	"fmt"

	"github.com/jinshuio/jinshu/internal/protocol"
	"github.com/redis/go-redis/v9"
)

func userSessionKey(userID protocol.UserId) string {
	return fmt.Sprintf("user:session:%s", protocol.Simple(userID))
}

// SignInKey is the key the authorizer looks up to check a sign-in
// attempt's credentials, exported here since both the comet (which
// never writes it — it is seeded out-of-band) and the authorizer
// share the naming convention (jinshu_redis::get_sign_in_key).
func SignInKey(userID protocol.UserId) string {
	return fmt.Sprintf("user:sign_in:%s", protocol.Simple(userID))
}

// Store is the comet-assignment directory: which service endpoint a
// signed-in user is currently attached to.
type Store struct {
	redis *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{redis: client}
}

// Store records that userID is now attached to serviceKey (the
// comet's registry key or URI). No TTL: the entry is removed
// explicitly on sign-out or teardown, matching the original (§3/§7:
// "no TTL — removed explicitly on teardown").
func (s *Store) Store(ctx context.Context, userID protocol.UserId, serviceKey string) error {
	return s.redis.Set(ctx, userSessionKey(userID), serviceKey, 0).Err()
}

// Load returns the comet service key for userID, or ("", false) if the
// user has no recorded session.
func (s *Store) Load(ctx context.Context, userID protocol.UserId) (string, bool, error) {
	value, err := s.redis.Get(ctx, userSessionKey(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Remove deletes the session entry for userID. Removing a key that
// does not exist is not an error.
func (s *Store) Remove(ctx context.Context, userID protocol.UserId) error {
	return s.redis.Del(ctx, userSessionKey(userID)).Err()
}
