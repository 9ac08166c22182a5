package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ederson/cardforge/internal/logger"
	"github.com/ederson/cardforge/internal/models"
)

// RedisStore keeps checkpoints in Redis, for deployments where the server
// process is not the only writer or restarts lose local disk.
type RedisStore struct {
	rdb *goredis.Client
	log *logger.Logger
}

func NewRedisStore(addr string) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		rdb: rdb,
		log: logger.Default().WithPrefix("checkpoint"),
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, state models.AutoScanState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, raw, 0).Err()
}

func (s *RedisStore) Load(ctx context.Context, key string) (*models.AutoScanState, error) {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var state models.AutoScanState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.log.Warn("discarding unreadable checkpoint %s: %v", key, err)
		return nil, nil
	}
	return &state, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
