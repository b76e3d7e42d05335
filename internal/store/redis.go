package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/lewisedginton/dating_coach/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisKeyPrefix namespaces snapshot keys.
const DefaultRedisKeyPrefix = "coach:conversation:"

// RedisStore keeps each snapshot as a JSON string under prefix+id, expiring after ttl.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	KeyPrefix string
	// TTL of zero keeps snapshots forever.
	TTL    time.Duration
	Logger logger.Logger
}

// NewRedisClient parses a redis URL and applies password and database overrides.
func NewRedisClient(url, password string, db int, timeout time.Duration) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	if db != 0 {
		opts.DB = db
	}
	if timeout > 0 {
		opts.DialTimeout = timeout
		opts.ReadTimeout = timeout
		opts.WriteTimeout = timeout
	}
	return redis.NewClient(opts), nil
}

// NewRedisStore wraps client.
func NewRedisStore(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultRedisKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: opts.TTL, logger: opts.Logger}
}

func (s *RedisStore) key(conversationID string) string {
	return s.prefix + conversationID
}

// Save writes the snapshot and refreshes its expiry.
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.ConversationID), data, s.ttl).Err(); err != nil {
		s.logger.Error("failed to save snapshot", logger.ErrorField(err), logger.ConversationIDField(snap.ConversationID))
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Delete removes the snapshot key.
func (s *RedisStore) Delete(ctx context.Context, conversationID string) error {
	if err := s.client.Del(ctx, s.key(conversationID)).Err(); err != nil {
		s.logger.Error("failed to delete snapshot", logger.ErrorField(err), logger.ConversationIDField(conversationID))
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// LoadAll scans every key under the prefix. Keys that expire between SCAN and GET
// are skipped.
func (s *RedisStore) LoadAll(ctx context.Context) ([]Snapshot, error) {
	var out []Snapshot
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get snapshot %s: %w", key, err)
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot %s: %w", key, err)
		}
		snap.ConversationID = key[len(s.prefix):]
		out = append(out, snap)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan snapshots: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ConversationID < out[j].ConversationID })
	return out, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
