package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	entryKeyPrefix = "faq:entry:"
	hitsKeyPrefix  = "faq:hits:"
)

// redisStore implements Store on Redis. The answer body is stored as
// JSON under one key and the hit count under a companion counter key so
// the increment is atomic server-side.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func (s *redisStore) entryKey(key string) string {
	return entryKeyPrefix + key
}

func (s *redisStore) hitsKey(key string) string {
	return hitsKeyPrefix + key
}

// Lookup implements Store.
func (s *redisStore) Lookup(ctx context.Context, key string) (*Entry, bool, error) {
	val, err := s.client.Get(ctx, s.entryKey(key)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis lookup: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, false, fmt.Errorf("redis lookup: decode entry: %w", err)
	}

	hits, err := s.client.Incr(ctx, s.hitsKey(key)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis lookup: increment hits: %w", err)
	}
	entry.HitCount = int(hits)

	return &entry, true, nil
}

// Put implements Store.
func (s *redisStore) Put(ctx context.Context, key string, entry Entry) error {
	entry.HitCount = 0
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis put: encode entry: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(key), val, s.ttl)
	pipe.Set(ctx, s.hitsKey(key), 0, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

// Clear implements Store.
func (s *redisStore) Clear(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx, entryKeyPrefix+"*")
	if err != nil {
		return 0, err
	}
	hitKeys, err := s.scanKeys(ctx, hitsKeyPrefix+"*")
	if err != nil {
		return 0, err
	}

	all := append(keys, hitKeys...)
	if len(all) > 0 {
		if err := s.client.Del(ctx, all...).Err(); err != nil {
			return 0, fmt.Errorf("redis clear: %w", err)
		}
	}
	return len(keys), nil
}

// Entries implements Store.
func (s *redisStore) Entries(ctx context.Context) ([]Entry, error) {
	keys, err := s.scanKeys(ctx, entryKeyPrefix+"*")
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		val, err := s.client.Get(ctx, k).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("redis entries: %w", err)
		}

		var entry Entry
		if err := json.Unmarshal([]byte(val), &entry); err != nil {
			continue
		}

		hitsKey := hitsKeyPrefix + k[len(entryKeyPrefix):]
		if hits, err := s.client.Get(ctx, hitsKey).Int(); err == nil {
			entry.HitCount = hits
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Len implements Store.
func (s *redisStore) Len(ctx context.Context) (int, error) {
	keys, err := s.scanKeys(ctx, entryKeyPrefix+"*")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) scanKeys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}
