package iocache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/worldfishcenter/landings/internal/contract"
	"github.com/worldfishcenter/landings/schema"
)

// redisTimeout bounds every call to Redis.
const redisTimeout = 5 * time.Second

// Hash fields of a snapshot entry.
const (
	fieldValue   = "value"
	fieldVersion = "version"
	fieldTs      = "ts"
)

// RedisStore keeps snapshots as Redis hashes under "<prefix>:<key>".
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ contract.CacheStore = &RedisStore{} // Compile-time check

// NewRedisStore connects to the redis:// or rediss:// URL and verifies the connection.
func NewRedisStore(connStr, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis connection string: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (rs *RedisStore) key(k string) string {
	return rs.prefix + ":" + k
}

// Get retrieves a value by key. A missing key returns redis.Nil.
func (rs *RedisStore) Get(key string) ([]byte, int, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fields, err := rs.client.HGetAll(ctx, rs.key(key)).Result()
	if err != nil {
		return nil, 0, 0, err
	}
	return decodeEntry(fields)
}

// decodeEntry converts hash fields into a snapshot entry.
func decodeEntry(fields map[string]string) ([]byte, int, int64, error) {
	if len(fields) == 0 {
		return nil, 0, 0, redis.Nil
	}
	version, err := strconv.Atoi(fields[fieldVersion])
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt snapshot version: %w", err)
	}
	ts, err := strconv.ParseInt(fields[fieldTs], 10, 64)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("corrupt snapshot timestamp: %w", err)
	}
	return []byte(fields[fieldValue]), version, ts, nil
}

// Set inserts or replaces a key/value pair in the store.
func (rs *RedisStore) Set(key string, value []byte, version int, timestamp int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	return rs.client.HSet(ctx, rs.key(key),
		fieldValue, value,
		fieldVersion, version,
		fieldTs, timestamp,
	).Err()
}

// keys lists every key under the store prefix.
func (rs *RedisStore) keys(ctx context.Context) ([]string, error) {
	var out []string
	iter := rs.client.Scan(ctx, 0, rs.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

// GetStatus returns status information about the cache store.
func (rs *RedisStore) GetStatus() (schema.CacheStatus, error) {
	status := schema.CacheStatus{Backend: string(schema.RedisBackend), Connected: rs.client != nil}
	if rs.client == nil {
		return status, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	keys, err := rs.keys(ctx)
	if err != nil {
		return status, fmt.Errorf("failed to list snapshot keys: %w", err)
	}
	status.TotalEntries = len(keys)

	var oldest, last int64
	for _, k := range keys {
		fields, err := rs.client.HGetAll(ctx, k).Result()
		if err != nil {
			return status, fmt.Errorf("failed to read %s: %w", k, err)
		}
		value, _, ts, err := decodeEntry(fields)
		if err != nil {
			continue
		}
		status.TableSizeBytes += int64(len(value))
		if oldest == 0 || ts < oldest {
			oldest = ts
		}
		if ts > last {
			last = ts
		}
	}
	if status.TotalEntries > 0 {
		status.LastEntryTime = time.Unix(last, 0)
		status.OldestEntryTime = time.Unix(oldest, 0)
	}
	return status, nil
}

// Clear deletes every key under the store prefix.
func (rs *RedisStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	keys, err := rs.keys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return rs.client.Del(ctx, keys...).Err()
}

// Close closes the underlying client.
func (rs *RedisStore) Close() error {
	if rs.client == nil {
		return nil
	}
	return rs.client.Close()
}

// IsMiss reports whether err from a CacheStore Get means the key is absent.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil) || errors.Is(err, sql.ErrNoRows)
}
