package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nad125/pharmabot/types"
)

const sessionPrefix = "session:"

// RedisStorage is a Redis-backed implementation of Storage for deployments
// where conversations must survive process restarts or span multiple
// replicas.
type RedisStorage struct {
	client *redis.Client
}

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	IdleTimeout  time.Duration
}

// NewRedisStorage connects to Redis and verifies the connection with a ping.
func NewRedisStorage(opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		MinIdleConns: opts.MinIdleConns,
		IdleTimeout:  opts.IdleTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &RedisStorage{client: client}, nil
}

func sessionKey(id uint64) string {
	return fmt.Sprintf("%s%d", sessionPrefix, id)
}

// SaveSession saves a session to Redis as JSON.
func (s *RedisStorage) SaveSession(ctx context.Context, session types.Session) error {
	return withContextError(ctx, func() error {
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session %d: %v", session.ID, err)
		}
		key := sessionKey(session.ID)
		if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
			return fmt.Errorf("failed to set %s in Redis: %v", key, err)
		}
		return nil
	})
}

// GetSession retrieves a session from Redis.
func (s *RedisStorage) GetSession(ctx context.Context, id uint64) (types.Session, error) {
	return withContext(ctx, func() (types.Session, error) {
		key := sessionKey(id)
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return types.Session{}, fmt.Errorf("%w: id=%d", ErrSessionNotFound, id)
		} else if err != nil {
			return types.Session{}, fmt.Errorf("failed to get %s from Redis: %v", key, err)
		}

		var session types.Session
		if err := json.Unmarshal(data, &session); err != nil {
			return types.Session{}, fmt.Errorf("failed to unmarshal %s: %v", key, err)
		}
		return session, nil
	})
}

// DeleteSession removes a session from Redis.
func (s *RedisStorage) DeleteSession(ctx context.Context, id uint64) error {
	return withContextError(ctx, func() error {
		if err := s.client.Del(ctx, sessionKey(id)).Err(); err != nil {
			return fmt.Errorf("failed to delete session %d: %v", id, err)
		}
		return nil
	})
}

// ClearFinished removes completed, pre-empted and failed sessions from Redis.
func (s *RedisStorage) ClearFinished(ctx context.Context) error {
	return withContextError(ctx, func() error {
		keys, err := s.client.Keys(ctx, sessionPrefix+"*").Result()
		if err != nil {
			return fmt.Errorf("failed to scan session keys: %v", err)
		}
		if len(keys) == 0 {
			return nil
		}

		pipe := s.client.Pipeline()
		for _, key := range keys {
			data, err := s.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			} else if err != nil {
				return fmt.Errorf("failed to get %s: %v", key, err)
			}

			var session types.Session
			if err := json.Unmarshal(data, &session); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %v", key, err)
			}

			switch session.Status {
			case types.SessionCompleted, types.SessionPreempted, types.SessionFailed:
				pipe.Del(ctx, key)
			}
		}

		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("failed to execute pipeline for deletion: %v", err)
		}
		return nil
	})
}

// Close closes the Redis client connection.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
