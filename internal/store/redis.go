package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"questsync/internal/logging"
)

// StateKey is the Redis key holding the serialized state document.
const StateKey = "questsync:state"

// RedisStore persists state under a single Redis key. It suits deployments
// where the daemon has no durable filesystem.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

// Load reads the state document. A missing key is an empty state; a
// corrupt document is logged and treated as empty.
func (r *RedisStore) Load(ctx context.Context) (*State, error) {
	data, err := r.rdb.Get(ctx, StateKey).Result()
	if errors.Is(err, redis.Nil) {
		return NewState(), nil
	}
	if err != nil {
		return NewState(), fmt.Errorf("failed to read state from Redis: %w", err)
	}

	state := NewState()
	if err := json.Unmarshal([]byte(data), state); err != nil {
		logging.Get().WithComponent("store").WithError(err).
			WithField("key", StateKey).
			Warn("Stored state is corrupt, starting with empty state")
		return NewState(), nil
	}

	return state, nil
}

// Save writes the state document.
func (r *RedisStore) Save(ctx context.Context, state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	return r.rdb.Set(ctx, StateKey, data, 0).Err()
}

// Clear deletes the state document.
func (r *RedisStore) Clear(ctx context.Context) error {
	return r.rdb.Del(ctx, StateKey).Err()
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
