package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/redis/go-redis/v9"

	"deskhub/internal/entities"
)

// AvailabilityCache stores computed availability views per space.
type AvailabilityCache interface {
	Get(ctx context.Context, spaceID int, asOf civil.Date) (*entities.AvailabilityView, bool, error)
	Set(ctx context.Context, spaceID int, asOf civil.Date, view *entities.AvailabilityView) error
	Invalidate(ctx context.Context, spaceID int) error
}

type cacheEntry struct {
	AsOf civil.Date                `json:"asOf"`
	View *entities.AvailabilityView `json:"view"`
}

func availabilityKey(spaceID int) string {
	return fmt.Sprintf("availability:space:%d", spaceID)
}

type RedisAvailabilityCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisClient parses a redis:// URL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) *RedisAvailabilityCache {
	return &RedisAvailabilityCache{Client: client, TTL: ttl}
}

// Get reports a miss when the key is absent or was computed on another day.
func (c *RedisAvailabilityCache) Get(ctx context.Context, spaceID int, asOf civil.Date) (*entities.AvailabilityView, bool, error) {
	data, err := c.Client.Get(ctx, availabilityKey(spaceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return decodeEntry(data, asOf)
}

func (c *RedisAvailabilityCache) Set(ctx context.Context, spaceID int, asOf civil.Date, view *entities.AvailabilityView) error {
	data, err := json.Marshal(cacheEntry{AsOf: asOf, View: view})
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, availabilityKey(spaceID), data, c.TTL).Err()
}

func (c *RedisAvailabilityCache) Invalidate(ctx context.Context, spaceID int) error {
	return c.Client.Del(ctx, availabilityKey(spaceID)).Err()
}

func decodeEntry(data []byte, asOf civil.Date) (*entities.AvailabilityView, bool, error) {
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("decoding cached availability: %w", err)
	}
	if entry.AsOf != asOf || entry.View == nil {
		return nil, false, nil
	}
	return entry.View, true, nil
}

// NoopAvailabilityCache is used when Redis is not configured.
type NoopAvailabilityCache struct{}

func (NoopAvailabilityCache) Get(context.Context, int, civil.Date) (*entities.AvailabilityView, bool, error) {
	return nil, false, nil
}

func (NoopAvailabilityCache) Set(context.Context, int, civil.Date, *entities.AvailabilityView) error {
	return nil
}

func (NoopAvailabilityCache) Invalidate(context.Context, int) error {
	return nil
}
