package store

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"draftmail/pkg/config"
	"draftmail/pkg/db"
	"draftmail/pkg/secret"
)

// exerciseStore runs the behaviour every backend shares.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "g1")
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.Put(ctx, "g1", Account{Address: "a@example.com", Secret: "plain:one", UpdatedAt: now}))
	require.NoError(t, s.Put(ctx, "g2", Account{Address: "b@example.com", Secret: "plain:two", UpdatedAt: now}))

	acc, err := s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", acc.Address)
	assert.Equal(t, secret.Ref("plain:one"), acc.Secret)

	// last write wins
	require.NoError(t, s.Put(ctx, "g1", Account{Address: "c@example.com", Secret: "plain:three", UpdatedAt: now}))
	acc, err = s.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "c@example.com", acc.Address)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.Delete(ctx, "g2"))
	assert.ErrorIs(t, s.Delete(ctx, "g2"), ErrNotFound)
	_, err = s.Get(ctx, "g2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "guilds.json"), zap.NewNop())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStore_RoundTripAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	ctx := context.Background()

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "123", Account{Address: "ops@example.com", Secret: "plain:app-pass"}))
	require.NoError(t, s.Close())

	reloaded, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	acc, err := reloaded.Get(ctx, "123")
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", acc.Address)
	assert.Equal(t, secret.Ref("plain:app-pass"), acc.Secret)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"), zap.NewNop())
	require.NoError(t, err)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_MalformedFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	// the next write replaces the broken file
	require.NoError(t, s.Put(context.Background(), "g", Account{Address: "a@example.com", Secret: "plain:x"}))
	reloaded, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	_, err = reloaded.Get(context.Background(), "g")
	assert.NoError(t, err)
}

func TestFileStore_NullFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o600))

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NotPanics(t, func() {
		require.NoError(t, s.Put(context.Background(), "g1", Account{Address: "a@example.com", Secret: "plain:x"}))
	})
	acc, err := s.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", acc.Address)
}

func TestFileStore_ReadsLegacyClearTextEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guilds.json")
	legacy := `{"42": {"email": "legacy@example.com", "app_password": "abcd efgh"}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	s, err := NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	acc, err := s.Get(context.Background(), "42")
	require.NoError(t, err)

	plain, err := secret.NewPlainBackend().Open(context.Background(), acc.Secret)
	require.NoError(t, err)
	assert.Equal(t, "abcd efgh", plain)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	s := NewRedisStore(rdb, zap.NewNop())
	defer s.Close()
	exerciseStore(t, s)

	assert.True(t, mr.Exists(RedisKey))
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := Open(context.Background(), Config{
		Backend: "redis",
		Redis:   config.RedisConfig{Addr: mr.Addr()},
	}, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &RedisStore{}, s)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "etcd"}, zap.NewNop())
	assert.Error(t, err)
}

// TestPostgresStore runs against a real database when DRAFTMAIL_TEST_PG_HOST is set.
func TestPostgresStore(t *testing.T) {
	host := os.Getenv("DRAFTMAIL_TEST_PG_HOST")
	if host == "" {
		t.Skip("DRAFTMAIL_TEST_PG_HOST not set")
	}
	port, _ := strconv.Atoi(config.GetEnv("DRAFTMAIL_TEST_PG_PORT", "5432"))

	ctx := context.Background()
	pool, err := db.NewConnection(ctx, config.DBConfig{
		Host:     host,
		Port:     port,
		User:     config.GetEnv("DRAFTMAIL_TEST_PG_USER", "postgres"),
		Password: config.GetEnv("DRAFTMAIL_TEST_PG_PASSWORD", "postgres"),
		Name:     config.GetEnv("DRAFTMAIL_TEST_PG_DB", "postgres"),
	}, zap.NewNop())
	require.NoError(t, err)

	s := NewPostgresStore(pool, zap.NewNop())
	defer s.Close()
	require.NoError(t, s.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `DELETE FROM guild_mail_accounts WHERE guild_id IN ('g1', 'g2')`)
	require.NoError(t, err)

	exerciseStore(t, s)
}
