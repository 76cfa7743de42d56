// Package redistore persists the price cache in Redis. Keys carry no
// Redis TTL: staleness is derived from cached_at and stale records must
// stay readable for the degraded serve-stale path.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"wealthtracker/internal/asset"
	"wealthtracker/internal/store"
)

type Config struct {
	Addr     string
	Password string
	Database int
}

type Store struct {
	client *redis.Client
}

type record struct {
	Price    decimal.Decimal `json:"price"`
	Source   string          `json:"source"`
	CachedAt time.Time       `json:"cached_at"`
}

// New connects to Redis and verifies connectivity.
func New(cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error { return s.client.Close() }

func redisKey(k asset.Key) string {
	return fmt.Sprintf("price:%s:%s:%s", k.Type, k.Symbol, k.Currency)
}

func (s *Store) Get(ctx context.Context, key asset.Key) (store.CachedPrice, error) {
	data, err := s.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.CachedPrice{}, store.ErrNotFound
	}
	if err != nil {
		return store.CachedPrice{}, err
	}
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return store.CachedPrice{}, fmt.Errorf("corrupt cache record: %w", err)
	}
	return store.CachedPrice{Key: key, Price: r.Price, Source: r.Source, CachedAt: r.CachedAt}, nil
}

func (s *Store) Put(ctx context.Context, key asset.Key, price decimal.Decimal, source string) error {
	data, err := json.Marshal(record{Price: price, Source: source, CachedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, redisKey(key), data, 0).Err()
}

func (s *Store) GetMany(ctx context.Context, keys []asset.Key) (map[asset.Key]store.CachedPrice, error) {
	if len(keys) == 0 {
		return map[asset.Key]store.CachedPrice{}, nil
	}
	rkeys := make([]string, len(keys))
	for i, k := range keys {
		rkeys[i] = redisKey(k)
	}
	vals, err := s.client.MGet(ctx, rkeys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[asset.Key]store.CachedPrice, len(keys))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var r record
		if err := json.Unmarshal([]byte(str), &r); err != nil {
			continue
		}
		out[keys[i]] = store.CachedPrice{Key: keys[i], Price: r.Price, Source: r.Source, CachedAt: r.CachedAt}
	}
	return out, nil
}
