package slotlock

import (
	"context"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/samber/oops"

	"github.com/gravitas-games/stowage/internal/storage"
)

// DefaultRedisPrefix is the key prefix used when none is configured.
const DefaultRedisPrefix = "stowage:slotlock:"

// RedisStore keeps each owner's locked slots as a Redis set at
// <prefix><owner>.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on an existing client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(owner storage.OwnerID) string {
	return s.prefix + string(owner)
}

// Load reads the locked slots for owner. Members that are not slot
// indices are ignored.
func (s *RedisStore) Load(ctx context.Context, owner storage.OwnerID, size int) (*Mask, error) {
	members, err := s.client.SMembers(ctx, s.key(owner)).Result()
	if err != nil {
		return nil, oops.Wrapf(err, "load slot locks for %s", owner)
	}
	idx := make([]int, 0, len(members))
	for _, m := range members {
		i, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		idx = append(idx, i)
	}
	return fromIndices(size, idx), nil
}

// Save replaces the stored set with the locked slots of m.
func (s *RedisStore) Save(ctx context.Context, owner storage.OwnerID, m *Mask) error {
	key := s.key(owner)
	locked := m.Locked()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(locked) == 0 {
			return nil
		}
		members := make([]interface{}, len(locked))
		for i, idx := range locked {
			members[i] = strconv.Itoa(idx)
		}
		pipe.SAdd(ctx, key, members...)
		return nil
	})
	if err != nil {
		return oops.Wrapf(err, "save slot locks for %s", owner)
	}
	return nil
}
