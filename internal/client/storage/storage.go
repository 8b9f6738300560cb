// Package storage keeps the session's bearer token across restarts.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TokenKey is the single key the durable storage holds.
const TokenKey = "authToken"

// TokenStore persists exactly one bearer token.
type TokenStore interface {
	// Load returns the stored token, or an empty string when none is stored.
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	// Clear erases the token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

type tokenFile struct {
	AuthToken string `json:"auth_token"`
}

// FileStore keeps the token in a JSON document readable only by the owner.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the file at path. The file is
// created on the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path is the location of the token file.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Load(_ context.Context) (string, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	f, err := os.Open(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()

	var doc tokenFile
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return "", fmt.Errorf("decode token file: %w", err)
	}
	return doc.AuthToken, nil
}

func (fs *FileStore) Save(_ context.Context, token string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	f, err := os.OpenFile(fs.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tokenFile{AuthToken: token}); err != nil {
		f.Close()
		return fmt.Errorf("write token file: %w", err)
	}
	return f.Close()
}

func (fs *FileStore) Clear(_ context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (ms *MemoryStore) Load(_ context.Context) (string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.token, nil
}

func (ms *MemoryStore) Save(_ context.Context, token string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.token = token
	return nil
}

func (ms *MemoryStore) Clear(_ context.Context) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.token = ""
	return nil
}
