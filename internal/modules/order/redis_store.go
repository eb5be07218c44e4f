// README: Redis backend; snapshot kept as a hash of id -> record JSON.
package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"statusbot/internal/types"
)

const defaultRedisKey = "statusbot:orders"

// RedisBackend keeps the whole snapshot in one hash so load and save stay
// single round trips. Save replaces the hash atomically via a
// transactional pipeline.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisBackend{rdb: rdb, key: key}
}

func (r *RedisBackend) Load(ctx context.Context) (Snapshot, error) {
	fields, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	snap := make(Snapshot, len(fields))
	for id, raw := range fields {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode order %s: %w", id, err)
		}
		snap[types.ID(id)] = &rec
	}
	snap.normalize()
	return snap, nil
}

func (r *RedisBackend) Save(ctx context.Context, snap Snapshot) error {
	values := make(map[string]interface{}, len(snap))
	for id, rec := range snap {
		raw, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		values[string(id)] = raw
	}

	pipe := r.rdb.TxPipeline()
	pipe.Del(ctx, r.key)
	if len(values) > 0 {
		pipe.HSet(ctx, r.key, values)
	}
	_, err := pipe.Exec(ctx)
	return err
}
