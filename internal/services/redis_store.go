package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps payloads as RedisJSON documents. Every failure degrades to
// a miss; nothing here is allowed to fail a request.
type RedisStore struct {
	conn *RedisConn
	log  *zap.Logger
}

func NewRedisStore(conn *RedisConn, log *zap.Logger) *RedisStore {
	return &RedisStore{conn: conn, log: log}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	client := s.conn.acquire(ctx)
	if client == nil {
		return nil, false
	}
	val, err := client.JSONGet(ctx, key).Result()
	if errors.Is(err, redis.Nil) || (err == nil && val == "") {
		s.log.Info("no data found in cache", zap.String("key", key))
		return nil, false
	}
	if err != nil {
		s.log.Error("cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	s.log.Debug("data found in cache", zap.String("key", key))
	return []byte(val), true
}

// Set writes the document and its expiry in one MULTI/EXEC. A failed expiry
// leaves the document in place; there is no rollback.
func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	client := s.conn.acquire(ctx)
	if client == nil {
		return ErrUncached
	}
	var set *redis.StatusCmd
	var expire *redis.BoolCmd
	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		set = pipe.JSONSet(ctx, key, "$", val)
		expire = pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err := checkWrite(set, expire, err); err != nil {
		s.log.Warn("failed to cache data", zap.String("key", key), zap.Error(err))
		return err
	}
	s.log.Debug("data cached", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (s *RedisStore) Ready(ctx context.Context) bool {
	return s.conn.EnsureReady(ctx)
}

func (s *RedisStore) Close() error {
	s.conn.Disconnect()
	return nil
}

func checkWrite(set *redis.StatusCmd, expire *redis.BoolCmd, err error) error {
	if err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	if set == nil || set.Val() != "OK" {
		return errors.New("cache write: json.set not acknowledged")
	}
	if expire == nil || !expire.Val() {
		return errors.New("cache write: expire not applied")
	}
	return nil
}
