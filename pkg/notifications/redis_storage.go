package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps each session queue in a redis list.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	limit  int64
}

// NewRedisStorage creates a redis-backed queue. Lists expire after ttl of
// inactivity so abandoned sessions do not accumulate notices.
func NewRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "growwise:notices:"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStorage{client: client, prefix: prefix, ttl: ttl, limit: DefaultQueueLimit}
}

func (s *RedisStorage) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *RedisStorage) Push(ctx context.Context, n Notice) error {
	if err := validate(n); err != nil {
		return err
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notifications: encode: %w", err)
	}

	key := s.key(n.SessionID)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.LTrim(ctx, key, -s.limit, -1)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("notifications: push: %w", err)
	}
	return nil
}

func (s *RedisStorage) Drain(ctx context.Context, sessionID string) ([]Notice, error) {
	key := s.key(sessionID)

	var items *redis.StringSliceCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("notifications: drain: %w", err)
	}

	raw := items.Val()
	out := make([]Notice, 0, len(raw))
	for _, item := range raw {
		var n Notice
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
