package store

import (
	"context"
	"fmt"
	"time"

	"profile-service/config"

	"github.com/redis/go-redis/v9"
)

// DeletionJournal remembers accounts whose deletion stopped half way: the
// profile is gone but the user row could not be removed.
type DeletionJournal interface {
	Record(ctx context.Context, identityID string) error
	Pending(ctx context.Context, identityID string) (bool, error)
	Resolve(ctx context.Context, identityID string) error
	Close() error
}

type setClient interface {
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SIsMember(ctx context.Context, key string, member interface{}) *redis.BoolCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

var newRedisClient = func(opts *redis.Options) setClient {
	return redis.NewClient(opts)
}

// RedisJournal keeps the pending deletions in a single Redis set.
type RedisJournal struct {
	client setClient
	key    string
}

func NewRedisJournal(cfg config.RedisConfig) (*RedisJournal, error) {
	client := newRedisClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisJournal{client: client, key: cfg.JournalKey}, nil
}

func (j *RedisJournal) Record(ctx context.Context, identityID string) error {
	if err := j.client.SAdd(ctx, j.key, identityID).Err(); err != nil {
		return fmt.Errorf("record pending deletion: %w", err)
	}
	return nil
}

func (j *RedisJournal) Pending(ctx context.Context, identityID string) (bool, error) {
	pending, err := j.client.SIsMember(ctx, j.key, identityID).Result()
	if err != nil {
		return false, fmt.Errorf("check pending deletion: %w", err)
	}
	return pending, nil
}

func (j *RedisJournal) Resolve(ctx context.Context, identityID string) error {
	if err := j.client.SRem(ctx, j.key, identityID).Err(); err != nil {
		return fmt.Errorf("resolve pending deletion: %w", err)
	}
	return nil
}

func (j *RedisJournal) Close() error {
	return j.client.Close()
}

// NopJournal is used when no Redis address is configured. Nothing is
// remembered, so interrupted deletions are only visible in the logs.
type NopJournal struct{}

func (NopJournal) Record(context.Context, string) error          { return nil }
func (NopJournal) Pending(context.Context, string) (bool, error) { return false, nil }
func (NopJournal) Resolve(context.Context, string) error         { return nil }
func (NopJournal) Close() error                                  { return nil }
