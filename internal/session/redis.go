package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/yprite/Tesla-LockChime-sub001/internal/models"
)

const keyPrefix = "session:"

// RedisStore keeps metadata in Redis so it outlives the process that
// accepted the connection. Records expire after ttl as a safety net for
// connections whose leave never ran.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisStore {
	return &RedisStore{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "session_store").Logger(),
	}
}

func (s *RedisStore) Attach(ctx context.Context, connID string, meta models.SessionMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", connID, err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+connID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store session %s: %w", connID, err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, connID string) models.SessionMetadata {
	var meta models.SessionMetadata

	data, err := s.rdb.Get(ctx, keyPrefix+connID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Str("conn", connID).Msg("session lookup failed")
		}
		return meta
	}

	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Warn().Err(err).Str("conn", connID).Msg("corrupt session record")
		return models.SessionMetadata{}
	}
	return meta
}

func (s *RedisStore) Detach(ctx context.Context, connID string) {
	if err := s.rdb.Del(ctx, keyPrefix+connID).Err(); err != nil {
		s.log.Warn().Err(err).Str("conn", connID).Msg("session cleanup failed")
	}
}
