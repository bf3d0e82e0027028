package consent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

// TTL is how long an acceptance is remembered.
const TTL = 24 * 90 * time.Hour

// Key is the persistence key of the consent flag for a brand.
func Key(brand string) string {
	brand = strings.ToLower(strings.TrimSpace(brand))
	if brand == "" {
		brand = "spinlab"
	}
	return brand + "-cookie-consent"
}

// Store remembers whether a visitor accepted the cookie banner.
type Store interface {
	Given(ctx context.Context, visitor string) (bool, error)
	Give(ctx context.Context, visitor string) error
}

// MemoryStore keeps consent in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	given map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{given: make(map[string]time.Time)}
}

func (s *MemoryStore) Given(_ context.Context, visitor string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.given[visitor]
	return ok && time.Since(at) < TTL, nil
}

func (s *MemoryStore) Give(_ context.Context, visitor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.given[visitor] = time.Now().UTC()
	return nil
}

type record struct {
	Given bool      `json:"given"`
	At    time.Time `json:"at"`
}

// RedisStore keeps consent in redis under "<brand>-cookie-consent:<visitor>".
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, brand string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: Key(brand)}
}

func (s *RedisStore) key(visitor string) string {
	return s.prefix + ":" + visitor
}

func (s *RedisStore) Given(ctx context.Context, visitor string) (bool, error) {
	v, err := s.rdb.Get(ctx, s.key(visitor)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get consent: %w", err)
	}
	var rec record
	if err := jsoniter.UnmarshalFromString(v, &rec); err != nil {
		return false, fmt.Errorf("decode consent: %w", err)
	}
	return rec.Given, nil
}

func (s *RedisStore) Give(ctx context.Context, visitor string) error {
	v, err := jsoniter.MarshalToString(record{Given: true, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(visitor), v, TTL).Err(); err != nil {
		return fmt.Errorf("set consent: %w", err)
	}
	return nil
}
