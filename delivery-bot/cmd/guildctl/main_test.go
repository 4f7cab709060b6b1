package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/secret"
)

func setupConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "delivery-bot")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.yaml"), []byte("log:\n  level: error\n"), 0o600))
	t.Setenv("CONFIG_DIR", root)
	t.Setenv("CONFIG_ENV", "test")
	return filepath.Join(root, "guilds.json")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSetGetListDelete(t *testing.T) {
	path := setupConfig(t)

	out, err := run(t, "app-pass\n", "--file", path, "set", "42", "ops@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")

	out, err = run(t, "", "--file", path, "get", "42")
	require.NoError(t, err)
	assert.Contains(t, out, "ops@example.com")
	assert.NotContains(t, out, "app-pass")

	out, err = run(t, "", "--file", path, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "42")
	assert.NotContains(t, out, "app-pass")

	_, err = run(t, "", "--file", path, "delete", "42")
	require.NoError(t, err)

	_, err = run(t, "", "--file", path, "get", "42")
	assert.Error(t, err)
}

func TestSet_RejectsInvalidAddress(t *testing.T) {
	path := setupConfig(t)

	_, err := run(t, "pw\n", "--file", path, "set", "42", "not-an-address")
	assert.Error(t, err)
}

func TestSeal_MigratesPlainSecrets(t *testing.T) {
	path := setupConfig(t)
	key, err := secret.GenerateKey()
	require.NoError(t, err)
	t.Setenv(secret.DefaultKeyEnv, key)

	_, err = run(t, "", "--file", path, "set", "42", "ops@example.com", "--password", "app-pass")
	require.NoError(t, err)

	out, err := run(t, "", "--file", path, "--secret-backend", "aead", "seal")
	require.NoError(t, err)
	assert.Contains(t, out, "Sealed 1 of 1")

	st, err := store.NewFileStore(path, zap.NewNop())
	require.NoError(t, err)
	acc, err := st.Get(context.Background(), "42")
	require.NoError(t, err)
	scheme, _ := acc.Secret.Scheme()
	assert.Equal(t, secret.SchemeAEAD, scheme)

	backend, err := secret.NewAEADBackendFromEnv("")
	require.NoError(t, err)
	plaintext, err := backend.Open(context.Background(), acc.Secret)
	require.NoError(t, err)
	assert.Equal(t, "app-pass", plaintext)
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "", "keygen")
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 44)
}
