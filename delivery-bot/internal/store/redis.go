package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisKey is the hash holding one field per guild.
const RedisKey = "draftmail:guild_accounts"

type RedisStore struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

func NewRedisStore(rdb *goredis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, guildID string) (Account, error) {
	raw, err := s.rdb.HGet(ctx, RedisKey, guildID).Result()
	if errors.Is(err, goredis.Nil) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read guild account: %w", err)
	}

	var acc Account
	if err := json.Unmarshal([]byte(raw), &acc); err != nil {
		return Account{}, fmt.Errorf("failed to decode guild account: %w", err)
	}
	return acc, nil
}

func (s *RedisStore) Put(ctx context.Context, guildID string, acc Account) error {
	b, err := json.Marshal(acc)
	if err != nil {
		return err
	}
	if err := s.rdb.HSet(ctx, RedisKey, guildID, b).Err(); err != nil {
		return fmt.Errorf("failed to write guild account: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, guildID string) error {
	n, err := s.rdb.HDel(ctx, RedisKey, guildID).Result()
	if err != nil {
		return fmt.Errorf("failed to delete guild account: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) (map[string]Account, error) {
	all, err := s.rdb.HGetAll(ctx, RedisKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list guild accounts: %w", err)
	}

	out := make(map[string]Account, len(all))
	for guildID, raw := range all {
		var acc Account
		if err := json.Unmarshal([]byte(raw), &acc); err != nil {
			s.logger.Warn("Skipping malformed guild account", zap.String("guild_id", guildID), zap.Error(err))
			continue
		}
		out[guildID] = acc
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
