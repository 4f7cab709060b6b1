package secret

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefScheme(t *testing.T) {
	tests := []struct {
		ref     Ref
		scheme  string
		payload string
	}{
		{"plain:hunter2", SchemePlain, "hunter2"},
		{"aead:AAAA", SchemeAEAD, "AAAA"},
		{"env:GMAIL_APP_PASSWORD", SchemeEnv, "GMAIL_APP_PASSWORD"},
		{"abcd efgh ijkl mnop", SchemePlain, "abcd efgh ijkl mnop"},
		{"weird:value", SchemePlain, "weird:value"},
	}
	for _, tt := range tests {
		scheme, payload := tt.ref.Scheme()
		assert.Equal(t, tt.scheme, scheme, string(tt.ref))
		assert.Equal(t, tt.payload, payload, string(tt.ref))
	}
}

func TestRefStringHidesPayload(t *testing.T) {
	assert.Equal(t, "plain:***", Ref("plain:hunter2").String())
	assert.NotContains(t, Ref("aead:xyz").String(), "xyz")
}

func TestPlainBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewPlainBackend()

	ref, err := b.Seal(ctx, "app-password")
	require.NoError(t, err)

	got, err := b.Open(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "app-password", got)

	_, err = b.Open(ctx, "aead:zzz")
	assert.Error(t, err)
}

func TestAEADBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	b, err := NewAEADBackend(key)
	require.NoError(t, err)

	ref, err := b.Seal(ctx, "app-password")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(ref), "aead:"))
	assert.NotContains(t, string(ref), "app-password")

	got, err := b.Open(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "app-password", got)

	legacy, err := b.Open(ctx, "plain:old-secret")
	require.NoError(t, err)
	assert.Equal(t, "old-secret", legacy)
}

func TestAEADBackendRejectsTamperingAndWrongKey(t *testing.T) {
	ctx := context.Background()
	b1, err := NewAEADBackend(make([]byte, 32))
	require.NoError(t, err)
	other := make([]byte, 32)
	other[0] = 1
	b2, err := NewAEADBackend(other)
	require.NoError(t, err)

	ref, err := b1.Seal(ctx, "secret")
	require.NoError(t, err)

	_, err = b2.Open(ctx, ref)
	assert.Error(t, err)

	_, err = b1.Open(ctx, "aead:"+Ref(base64.StdEncoding.EncodeToString([]byte("short"))))
	assert.Error(t, err)
}

func TestNewAEADBackendFromEnv(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	t.Setenv("DRAFTMAIL_TEST_KEY", key)

	b, err := NewBackend(Config{Backend: "aead", KeyEnv: "DRAFTMAIL_TEST_KEY"})
	require.NoError(t, err)
	assert.Equal(t, "aead", b.Name())

	t.Setenv("DRAFTMAIL_TEST_KEY", base64.StdEncoding.EncodeToString([]byte("too-short")))
	_, err = NewBackend(Config{Backend: "aead", KeyEnv: "DRAFTMAIL_TEST_KEY"})
	assert.Error(t, err)
}

func TestEnvBackend(t *testing.T) {
	ctx := context.Background()
	b := NewEnvBackend()
	t.Setenv("DRAFTMAIL_TEST_APP_PASSWORD", "from-env")

	got, err := b.Open(ctx, "env:DRAFTMAIL_TEST_APP_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	_, err = b.Open(ctx, "env:DRAFTMAIL_TEST_MISSING")
	assert.Error(t, err)

	_, err = b.Seal(ctx, "x")
	assert.ErrorIs(t, err, ErrSealUnsupported)
}

func TestNewBackendUnknown(t *testing.T) {
	_, err := NewBackend(Config{Backend: "vault"})
	assert.Error(t, err)
}
