// Package secret stores credential secrets as opaque references that are
// resolved through a pluggable backend.
package secret

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Ref is a stored reference to a secret, formatted "<scheme>:<payload>".
// A value without a known scheme is treated as a plain-text secret.
type Ref string

const (
	SchemePlain = "plain"
	SchemeAEAD  = "aead"
	SchemeEnv   = "env"
)

// ErrSealUnsupported is returned by backends that only resolve references.
var ErrSealUnsupported = errors.New("backend cannot seal secrets")

// Backend seals plaintext into references and opens them again.
type Backend interface {
	Seal(ctx context.Context, plaintext string) (Ref, error)
	Open(ctx context.Context, ref Ref) (string, error)
	Name() string
}

// Scheme returns the scheme and payload of ref.
func (r Ref) Scheme() (string, string) {
	s := string(r)
	if i := strings.Index(s, ":"); i > 0 {
		switch scheme := s[:i]; scheme {
		case SchemePlain, SchemeAEAD, SchemeEnv:
			return scheme, s[i+1:]
		}
	}
	return SchemePlain, s
}

// String hides the payload so refs are safe to log.
func (r Ref) String() string {
	scheme, _ := r.Scheme()
	return scheme + ":***"
}

// Config selects and configures a backend.
type Config struct {
	Backend string `yaml:"backend"` // plain | aead | env
	KeyEnv  string `yaml:"key_env"` // aead: env var holding a base64 32-byte key
}

// NewBackend creates a Backend from cfg.
func NewBackend(cfg Config) (Backend, error) {
	switch cfg.Backend {
	case SchemePlain, "":
		return NewPlainBackend(), nil
	case SchemeAEAD:
		return NewAEADBackendFromEnv(cfg.KeyEnv)
	case SchemeEnv:
		return NewEnvBackend(), nil
	default:
		return nil, fmt.Errorf("unknown secret backend %q", cfg.Backend)
	}
}

// openPlain is shared by every backend so that legacy clear-text entries keep working.
func openPlain(ref Ref) (string, bool) {
	scheme, payload := ref.Scheme()
	if scheme != SchemePlain {
		return "", false
	}
	return payload, true
}
