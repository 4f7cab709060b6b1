package secret

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/chacha20poly1305"
)

// DefaultKeyEnv is the environment variable read by the aead backend.
const DefaultKeyEnv = "DRAFTMAIL_SECRET_KEY"

// AEADBackend seals secrets with XChaCha20-Poly1305.
type AEADBackend struct {
	key []byte
}

// NewAEADBackend returns a backend using a 32-byte key.
func NewAEADBackend(key []byte) (*AEADBackend, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: got %d bytes, want %d", len(key), chacha20poly1305.KeySize)
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &AEADBackend{key: k}, nil
}

// NewAEADBackendFromEnv reads a base64 key from envVar (DefaultKeyEnv when empty).
func NewAEADBackendFromEnv(envVar string) (*AEADBackend, error) {
	if envVar == "" {
		envVar = DefaultKeyEnv
	}
	raw, ok := os.LookupEnv(envVar)
	if !ok {
		return nil, fmt.Errorf("environment variable %q is not set", envVar)
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", envVar, err)
	}
	return NewAEADBackend(key)
}

// GenerateKey returns a random key encoded for DefaultKeyEnv.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generating random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

func (b *AEADBackend) Seal(_ context.Context, plaintext string) (Ref, error) {
	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return Ref(SchemeAEAD + ":" + base64.StdEncoding.EncodeToString(sealed)), nil
}

func (b *AEADBackend) Open(_ context.Context, ref Ref) (string, error) {
	if v, ok := openPlain(ref); ok {
		return v, nil
	}
	scheme, payload := ref.Scheme()
	if scheme != SchemeAEAD {
		return "", fmt.Errorf("aead backend cannot open %q reference", scheme)
	}

	sealed, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("decoding sealed secret: %w", err)
	}

	aead, err := chacha20poly1305.NewX(b.key)
	if err != nil {
		return "", err
	}
	if len(sealed) < aead.NonceSize() {
		return "", fmt.Errorf("sealed secret too short")
	}

	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("opening sealed secret: %w", err)
	}
	return string(plaintext), nil
}

func (b *AEADBackend) Name() string { return SchemeAEAD }
