// Package redisstore implements the cart store on a Redis hash per cart key.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gts-commerce/cart-service/internal/model"
	"github.com/gts-commerce/cart-service/internal/store"
)

// Open connects a Redis client from a URL and verifies connectivity.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, fmt.Errorf("redis URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// New constructs a cart store backed by the given client.
func New(client *redis.Client) *RedisStore { return &RedisStore{client: client} }

// RedisStore maps the store contract onto hash commands: HGETALL, HSET, HDEL,
// EXPIRE, DEL, and a pipeline for batches.
type RedisStore struct {
	client *redis.Client
}

var _ store.Store = (*RedisStore)(nil)

func (s *RedisStore) ReadAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: HGETALL %s: %v", model.ErrStoreUnavailable, key, err)
	}
	return fields, nil
}

func (s *RedisStore) ReadField(ctx context.Context, key, field string) (string, bool, error) {
	val, err := s.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: HGET %s %s: %v", model.ErrStoreUnavailable, key, field, err)
	}
	return val, true, nil
}

func (s *RedisStore) WriteField(ctx context.Context, key, field, value string) error {
	if err := s.client.HSet(ctx, key, field, value).Err(); err != nil {
		return fmt.Errorf("%w: HSET %s %s: %v", model.ErrStoreUnavailable, key, field, err)
	}
	return nil
}

func (s *RedisStore) DeleteField(ctx context.Context, key, field string) error {
	if err := s.client.HDel(ctx, key, field).Err(); err != nil {
		return fmt.Errorf("%w: HDEL %s %s: %v", model.ErrStoreUnavailable, key, field, err)
	}
	return nil
}

func (s *RedisStore) RefreshTTL(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: EXPIRE %s: %v", model.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) DeleteKey(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: DEL %s: %v", model.ErrStoreUnavailable, key, err)
	}
	return nil
}

// ExecuteBatch pipelines ops in order. Redis pipelines are not transactions:
// each command succeeds or fails on its own, so outcomes are reported per op.
func (s *RedisStore) ExecuteBatch(ctx context.Context, ops []store.BatchOp) ([]store.BatchResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]redis.Cmder, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case store.OpWriteField:
			cmds[i] = pipe.HSet(ctx, op.Key, op.Field, op.Value)
		case store.OpDeleteField:
			cmds[i] = pipe.HDel(ctx, op.Key, op.Field)
		case store.OpDeleteKey:
			cmds[i] = pipe.Del(ctx, op.Key)
		case store.OpRefreshTTL:
			cmds[i] = pipe.Expire(ctx, op.Key, op.TTL)
		default:
			return nil, fmt.Errorf("unknown batch op kind: %s", op.Kind)
		}
	}

	_, execErr := pipe.Exec(ctx)

	results := make([]store.BatchResult, len(ops))
	anyOpErr := false
	for i, cmd := range cmds {
		results[i] = store.BatchResult{Op: ops[i], Err: cmd.Err()}
		if cmd.Err() != nil {
			anyOpErr = true
		}
	}
	// Exec returns the first command error when individual ops fail; only
	// treat it as a transport failure when no op-level error explains it.
	if execErr != nil && !anyOpErr {
		return nil, fmt.Errorf("%w: pipeline exec: %v", model.ErrStoreUnavailable, execErr)
	}
	return results, nil
}

// Ping reports store connectivity, for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
