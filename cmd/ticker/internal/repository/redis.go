package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tonecapon3/stock-ticker-v2-sub001/pkg/models"
)

const keyPrefix = "session:"

// Compile-time check to ensure RedisArchiver implements SessionArchiver
var _ SessionArchiver = (*RedisArchiver)(nil)

// RedisArchiver stores one JSON snapshot per session key. Every Save resets
// the TTL, so the archive evicts sessions idle longer than the horizon.
type RedisArchiver struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisArchiver(client *redis.Client, ttl time.Duration) *RedisArchiver {
	return &RedisArchiver{client: client, ttl: ttl}
}

func (r *RedisArchiver) Save(ctx context.Context, snap models.SessionSnapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return r.client.Set(ctx, keyPrefix+snap.Key, payload, r.ttl).Err()
}

func (r *RedisArchiver) Load(ctx context.Context, key string) (models.SessionSnapshot, error) {
	payload, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionSnapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return models.SessionSnapshot{}, err
	}

	var snap models.SessionSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return models.SessionSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func (r *RedisArchiver) Close() error {
	return r.client.Close()
}
