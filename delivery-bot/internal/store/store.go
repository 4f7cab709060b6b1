// Package store persists per-guild sender accounts.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"draftmail/pkg/config"
	"draftmail/pkg/db"
	"draftmail/pkg/redis"
	"draftmail/pkg/secret"
)

// ErrNotFound is returned when a guild has no account configured.
var ErrNotFound = errors.New("guild account not found")

// Account is the sender configured for one guild. Secret is a reference,
// never the clear-text credential unless the plain backend is in use.
type Account struct {
	Address   string     `json:"email"`
	Secret    secret.Ref `json:"app_password"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
}

// Store is a keyed set of guild accounts. Last write wins.
type Store interface {
	Get(ctx context.Context, guildID string) (Account, error)
	Put(ctx context.Context, guildID string, acc Account) error
	Delete(ctx context.Context, guildID string) error
	List(ctx context.Context) (map[string]Account, error)
	Close() error
}

// Config selects a backend.
type Config struct {
	Backend string             `yaml:"backend"` // file | redis | postgres
	Path    string             `yaml:"path"`
	Redis   config.RedisConfig `yaml:"redis"`
	DB      config.DBConfig    `yaml:"db"`
}

// DefaultPath is where the file backend keeps its data.
const DefaultPath = "guild_mail_config.json"

// Open creates the configured backend.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "file", "":
		path := cfg.Path
		if path == "" {
			path = DefaultPath
		}
		return NewFileStore(path, logger)
	case "redis":
		client, err := redis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		return NewRedisStore(client, logger), nil
	case "postgres":
		pool, err := db.NewConnection(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		s := NewPostgresStore(pool, logger)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
