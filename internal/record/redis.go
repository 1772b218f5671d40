// internal/record/redis.go
//
// Redis-backed Store for deployments where the room controller and the
// front-of-house display share a Redis instance. Same three keys as the
// SQLite backend; staleness is still an explicit check at load time (the
// budget moves with penalties, so a store-side TTL would be wrong).

package record

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr string) (Store, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{rdb: rdb, prefix: "escaperoom:"}, nil
}

func (s *redisStore) Load(ctx context.Context) (Record, bool, error) {
	var rec Record
	vals, err := s.rdb.MGet(ctx, s.key(KeyStartedAt), s.key(KeyBudget), s.key(KeySubmitted)).Result()
	if err != nil {
		return rec, false, err
	}
	for _, v := range vals {
		if v == nil {
			return rec, false, nil
		}
	}

	millis, err := strconv.ParseInt(vals[0].(string), 10, 64)
	if err != nil {
		return rec, false, fmt.Errorf("sessionStartTimestamp: %w", err)
	}
	rec.StartedAt = time.UnixMilli(millis)
	if rec.BudgetMinutes, err = strconv.Atoi(vals[1].(string)); err != nil {
		return rec, false, fmt.Errorf("timeBudgetMinutes: %w", err)
	}
	if rec.Submitted, err = DecodeSubmitted(vals[2].(string)); err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (s *redisStore) Save(ctx context.Context, rec Record) error {
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(KeyStartedAt), strconv.FormatInt(rec.StartedAt.UnixMilli(), 10), 0)
	pipe.Set(ctx, s.key(KeyBudget), strconv.Itoa(rec.BudgetMinutes), 0)
	pipe.Set(ctx, s.key(KeySubmitted), EncodeSubmitted(rec.Submitted), 0)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *redisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key(KeyStartedAt), s.key(KeyBudget), s.key(KeySubmitted)).Err()
}

func (s *redisStore) key(k string) string { return s.prefix + k }
