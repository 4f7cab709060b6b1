package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// FileStore keeps accounts in memory and rewrites a JSON file on every mutation.
type FileStore struct {
	mu       sync.RWMutex
	path     string
	accounts map[string]Account
	logger   *zap.Logger
}

// NewFileStore loads path. A missing or malformed file yields an empty store.
func NewFileStore(path string, logger *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		accounts: make(map[string]Account),
		logger:   logger,
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("Guild store file not found, starting empty", zap.String("path", path))
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read guild store: %w", err)
	}

	var loaded map[string]Account
	if err := json.Unmarshal(data, &loaded); err != nil {
		logger.Warn("Guild store file is malformed, starting empty",
			zap.String("path", path),
			zap.Error(err),
		)
		return s, nil
	}
	// a literal null decodes without error into a nil map
	if loaded != nil {
		s.accounts = loaded
	}

	logger.Info("Guild store loaded", zap.String("path", path), zap.Int("guilds", len(s.accounts)))
	return s, nil
}

func (s *FileStore) Get(_ context.Context, guildID string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[guildID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (s *FileStore) Put(_ context.Context, guildID string, acc Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.accounts[guildID]
	s.accounts[guildID] = acc
	if err := s.flush(); err != nil {
		if existed {
			s.accounts[guildID] = prev
		} else {
			delete(s.accounts, guildID)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.accounts[guildID]
	if !ok {
		return ErrNotFound
	}
	delete(s.accounts, guildID)
	if err := s.flush(); err != nil {
		s.accounts[guildID] = prev
		return err
	}
	return nil
}

func (s *FileStore) List(_ context.Context) (map[string]Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]Account, len(s.accounts))
	for k, v := range s.accounts {
		out[k] = v
	}
	return out, nil
}

func (s *FileStore) Close() error { return nil }

// flush writes the whole map to a temp file in the same directory, syncs it
// and renames it over the store file. Caller holds mu.
func (s *FileStore) flush() error {
	data, err := json.MarshalIndent(s.accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode guild store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".guild-store-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace guild store: %w", err)
	}

	s.logger.Debug("Guild store written", zap.String("path", s.path), zap.Int("guilds", len(s.accounts)))
	return nil
}
