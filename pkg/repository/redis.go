package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/config"
	"github.com/go-redis/redis/v8"
)

type RedisRepository struct {
	client *redis.Client
	config *config.RedisConfig
}

func NewRedisRepository(cfg *config.RedisConfig) *RedisRepository {
	return &RedisRepository{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		}),
		config: cfg,
	}
}

func (r *RedisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisRepository) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisRepository) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, expiration).Err()
}

// GetJSON decodes the value at key into dest. found is false when the key
// does not exist.
func (r *RedisRepository) GetJSON(ctx context.Context, key string, dest interface{}) (found bool, err error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, dest)
}

func (r *RedisRepository) Close() error {
	return r.client.Close()
}

// BasketStore keeps each session's basket as one JSON value so the entries
// and their count are always written together.
type BasketStore struct {
	redis *RedisRepository
	ttl   time.Duration
}

func NewBasketStore(redis *RedisRepository, ttl time.Duration) *BasketStore {
	return &BasketStore{redis: redis, ttl: ttl}
}

func basketKey(sessionID string) string {
	return fmt.Sprintf("session:%s:basket", sessionID)
}

func (s *BasketStore) Load(ctx context.Context, sessionID string) (*basket.Basket, error) {
	var b basket.Basket
	found, err := s.redis.GetJSON(ctx, basketKey(sessionID), &b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}

func (s *BasketStore) Save(ctx context.Context, sessionID string, b *basket.Basket) error {
	return s.redis.SetJSON(ctx, basketKey(sessionID), b, s.ttl)
}

func (s *BasketStore) Clear(ctx context.Context, sessionID string) error {
	return s.redis.Del(ctx, basketKey(sessionID))
}
