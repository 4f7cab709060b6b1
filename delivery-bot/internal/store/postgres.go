package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"draftmail/pkg/secret"
)

type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresStore(db *pgxpool.Pool, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the accounts table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
        CREATE TABLE IF NOT EXISTS guild_mail_accounts (
            guild_id    TEXT PRIMARY KEY,
            address     TEXT NOT NULL,
            secret_ref  TEXT NOT NULL,
            updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create guild_mail_accounts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, guildID string) (Account, error) {
	query := `
        SELECT address, secret_ref, updated_at
        FROM guild_mail_accounts
        WHERE guild_id = $1
    `
	var acc Account
	var ref string
	err := s.db.QueryRow(ctx, query, guildID).Scan(&acc.Address, &ref, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read guild account: %w", err)
	}
	acc.Secret = secret.Ref(ref)
	return acc, nil
}

func (s *PostgresStore) Put(ctx context.Context, guildID string, acc Account) error {
	updatedAt := acc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query := `
        INSERT INTO guild_mail_accounts (guild_id, address, secret_ref, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (guild_id) DO UPDATE
        SET address = EXCLUDED.address,
            secret_ref = EXCLUDED.secret_ref,
            updated_at = EXCLUDED.updated_at
    `
	if _, err := s.db.Exec(ctx, query, guildID, acc.Address, string(acc.Secret), updatedAt); err != nil {
		s.logger.Error("Failed to upsert guild account", zap.String("guild_id", guildID), zap.Error(err))
		return fmt.Errorf("failed to write guild account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, guildID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM guild_mail_accounts WHERE guild_id = $1`, guildID)
	if err != nil {
		return fmt.Errorf("failed to delete guild account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) (map[string]Account, error) {
	rows, err := s.db.Query(ctx, `SELECT guild_id, address, secret_ref, updated_at FROM guild_mail_accounts`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild accounts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]Account)
	for rows.Next() {
		var guildID, ref string
		var acc Account
		if err := rows.Scan(&guildID, &acc.Address, &ref, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		acc.Secret = secret.Ref(ref)
		out[guildID] = acc
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
