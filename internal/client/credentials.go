package client

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Credentials is the minimal state persisted between runs: enough to resume
// a session without storing the password.
type Credentials struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refresh_token"`
}

// CredentialsStore persists credentials between runs.
type CredentialsStore interface {
	// Load returns the stored credentials, or nil when none exist.
	Load() (*Credentials, error)
	Save(creds *Credentials) error
	Clear() error
}

// FileCredentialsStore keeps credentials in a mode-0600 JSON file.
type FileCredentialsStore struct {
	path string
}

// NewFileCredentialsStore creates a store backed by the file at path.
func NewFileCredentialsStore(path string) *FileCredentialsStore {
	return &FileCredentialsStore{path: path}
}

// Load implements CredentialsStore.
func (s *FileCredentialsStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials file: %w", err)
	}
	return &creds, nil
}

// Save implements CredentialsStore.
func (s *FileCredentialsStore) Save(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials file: %w", err)
	}
	return nil
}

// Clear implements CredentialsStore.
func (s *FileCredentialsStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove credentials file: %w", err)
	}
	return nil
}
