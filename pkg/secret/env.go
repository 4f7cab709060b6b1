package secret

import (
	"context"
	"fmt"
	"os"
)

// EnvBackend resolves "env:NAME" references from the process environment.
// It cannot seal: operators provision the variable and store the reference.
type EnvBackend struct{}

func NewEnvBackend() *EnvBackend { return &EnvBackend{} }

func (b *EnvBackend) Seal(_ context.Context, _ string) (Ref, error) {
	return "", ErrSealUnsupported
}

func (b *EnvBackend) Open(_ context.Context, ref Ref) (string, error) {
	if v, ok := openPlain(ref); ok {
		return v, nil
	}
	scheme, name := ref.Scheme()
	if scheme != SchemeEnv {
		return "", fmt.Errorf("env backend cannot open %q reference", scheme)
	}
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("environment variable %q is not set", name)
	}
	return v, nil
}

func (b *EnvBackend) Name() string { return SchemeEnv }
