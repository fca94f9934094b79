package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"storefront/internal/models"
)

// redisClient is the subset of go-redis used by RedisStore
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps each collection as a JSON array under one key. The key is
// the collection name, optionally behind a prefix.
type RedisStore struct {
	client redisClient
	prefix string
	log    logrus.FieldLogger
}

// RedisOptions configures a RedisStore connection
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(ctx context.Context, opts RedisOptions, log logrus.FieldLogger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return newRedisStore(client, opts.KeyPrefix, log), nil
}

func newRedisStore(client redisClient, prefix string, log logrus.FieldLogger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, log: log}
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

// ReadCollection implements Store
func (s *RedisStore) ReadCollection(ctx context.Context, name string) ([]models.Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, readErr(name, err)
	}

	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}
	if err != nil {
		return nil, readErr(name, err)
	}

	if len(data) == 0 {
		return []models.Record{}, nil
	}

	records, err := models.DecodeRecords(data)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"collection": name,
			"key":        s.key(name),
			"error":      err,
		}).Warn("Corrupt collection key, resetting to empty")
		if err := s.WriteCollection(ctx, name, nil); err != nil {
			return nil, err
		}
		return []models.Record{}, nil
	}

	return records, nil
}

// Exists implements Store
func (s *RedisStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, readErr(name, err)
	}

	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, readErr(name, err)
	}
	return n > 0, nil
}

// WriteCollection implements Store. A single SET replaces the whole array.
func (s *RedisStore) WriteCollection(ctx context.Context, name string, records []models.Record) error {
	if err := ValidateName(name); err != nil {
		return writeErr(name, err)
	}

	data, err := models.EncodeRecords(records)
	if err != nil {
		return writeErr(name, err)
	}

	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return writeErr(name, err)
	}
	return nil
}

// Close implements Store
func (s *RedisStore) Close() error {
	return s.client.Close()
}
