package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix  = "assistant:session:"
	defaultSessionTTL = 24 * time.Hour

	lockRetryInterval = 25 * time.Millisecond
	lockTTL           = 30 * time.Second
)

// RedisConfig configures the Redis-backed session store.
type RedisConfig struct {
	Addr     string        `envconfig:"ADDR" split_words:"true" default:"localhost:6379"`
	Password string        `envconfig:"PASSWORD" split_words:"true"`
	DB       int           `envconfig:"DB" split_words:"true" default:"0"`
	TTL      time.Duration `envconfig:"TTL" split_words:"true" default:"24h"`
}

// RedisStore persists TurnState in Redis. Entries expire after the
// configured TTL, which is the deployment's answer to unbounded session
// growth; TTL 0 disables expiry.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption customizes RedisStore.
type RedisOption func(*RedisStore)

func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			s.prefix = trimmed
		}
	}
}

func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

func NewRedisStore(cfg RedisConfig, opts ...RedisOption) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, errors.New("redis addr is required")
	}
	client := backend.NewClient(&backend.Options{
		Addr:     strings.TrimSpace(cfg.Addr),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ttl := cfg.TTL
	if ttl < 0 {
		return nil, errors.New("ttl must be >= 0")
	}
	if ttl == 0 {
		ttl = defaultSessionTTL
	}

	return NewRedisStoreFromClient(client, append([]RedisOption{WithTTL(ttl)}, opts...)...), nil
}

// NewRedisStoreFromClient builds a store on an existing client. Used by
// tests running against miniredis.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: defaultKeyPrefix,
		ttl:    defaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	return store
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*TurnState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var st TurnState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("unmarshal turn state: %w", err)
	}
	st.EnsureParameters()
	return &st, nil
}

func (s *RedisStore) Put(ctx context.Context, st *TurnState) error {
	if st == nil {
		return ErrNilState
	}
	if strings.TrimSpace(st.UserID) == "" {
		return ErrInvalidUser
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal turn state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(st.UserID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Evict(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, ErrInvalidUser
	}
	removed, err := s.client.Del(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del: %w", err)
	}
	return removed > 0, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// NewLocker builds a per-user locker sharing this store's client and prefix.
func (s *RedisStore) NewLocker() *RedisLocker {
	return NewRedisLocker(s.client, s.prefix)
}

// RedisLocker provides per-user mutual exclusion across processes using a
// SET NX lock with a safety TTL.
type RedisLocker struct {
	client *backend.Client
	prefix string
}

func NewRedisLocker(client *backend.Client, prefix string) *RedisLocker {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = defaultKeyPrefix
	}
	return &RedisLocker{
		client: client,
		prefix: trimmed,
	}
}

func (l *RedisLocker) lockKey(userID string) string {
	return l.prefix + "lock:" + userID
}

func (l *RedisLocker) Lock(ctx context.Context, userID string) (func(), error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}

	key := l.lockKey(userID)
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// Release only if we still own the lock.
		current, err := l.client.Get(context.Background(), key).Result()
		if err != nil || current != token {
			return
		}
		l.client.Del(context.Background(), key)
	}, nil
}
