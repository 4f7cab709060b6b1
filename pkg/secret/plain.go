package secret

import (
	"context"
	"fmt"
)

// PlainBackend stores secrets in clear text. Kept for local development and
// for reading entries written before encryption was configured.
type PlainBackend struct{}

func NewPlainBackend() *PlainBackend { return &PlainBackend{} }

func (b *PlainBackend) Seal(_ context.Context, plaintext string) (Ref, error) {
	return Ref(SchemePlain + ":" + plaintext), nil
}

func (b *PlainBackend) Open(_ context.Context, ref Ref) (string, error) {
	if v, ok := openPlain(ref); ok {
		return v, nil
	}
	scheme, _ := ref.Scheme()
	return "", fmt.Errorf("plain backend cannot open %q reference", scheme)
}

func (b *PlainBackend) Name() string { return SchemePlain }
