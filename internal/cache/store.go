package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidStoreType is returned for unknown driver names.
	ErrInvalidStoreType = errors.New("invalid store type")
	// ErrInvalidConfig is returned when a driver is missing required options.
	ErrInvalidConfig = errors.New("invalid store configuration")
)

// Entry is one cached answer. Answers are immutable after creation;
// only the hit count changes.
type Entry struct {
	OriginalQuestion string    `json:"original_question"`
	Answer           string    `json:"answer"`
	CreatedAt        time.Time `json:"created_at"`
	HitCount         int       `json:"hit_count"`
}

// Store is the answer-cache persistence driver. Lookup increments the
// entry's hit count as an observable side effect; the increment and the
// read are one atomic operation with respect to concurrent callers.
type Store interface {
	Lookup(ctx context.Context, key string) (*Entry, bool, error)
	Put(ctx context.Context, key string, entry Entry) error
	Clear(ctx context.Context) (int, error)
	Entries(ctx context.Context) ([]Entry, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

// StoreType selects the answer-cache driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
)

type storeConfig struct {
	redisClient *redis.Client
	redisTTL    time.Duration
}

// StoreOption configures NewStore.
type StoreOption func(*storeConfig)

// WithRedisClient supplies the client used by the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) {
		c.redisClient = client
	}
}

// WithRedisTTL bounds the lifetime of redis-backed entries.
func WithRedisTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) {
		c.redisTTL = ttl
	}
}

// NewStore creates a Store for the given driver type. The memory driver
// is the default deployment shape; redis is opt-in for deployments that
// want the cache to survive a restart.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return newMemoryStore(), nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidConfig
		}
		ttl := config.redisTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    ttl,
		}, nil

	default:
		return nil, ErrInvalidStoreType
	}
}
