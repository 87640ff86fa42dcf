package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"houseprice/internal/models"
)

// FileStore keeps accounts in a single JSON object keyed by email, the
// users.json layout of the first deployment. Every call re-reads the file so
// edits made outside the process are picked up.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) load() (map[string]models.User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read users file: %w", err)
	}
	users := map[string]models.User{}
	if len(data) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode users file: %w", err)
	}
	return users, nil
}

func (s *FileStore) save(users map[string]models.User) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users file: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create users dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Get(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.load()
	if err != nil {
		return models.User{}, err
	}
	u, ok := users[email]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *FileStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := users[user.Email]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, user.Email)
	}
	users[user.Email] = user
	return s.save(users)
}

func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(users), nil
}
