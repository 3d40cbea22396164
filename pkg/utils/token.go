package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const (
	tokenDirName   = ".theatre-rota/tokens"
	tokenFilePerms = 0600 // Read/write for owner only
	tokenDirPerms  = 0700 // Read/write/execute for owner only
)

// TokenStore persists one OAuth token per environment
type TokenStore struct {
	Dir string
	Env string
}

// NewTokenStore returns the store under the user's home directory
func NewTokenStore(env string) (*TokenStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &TokenStore{Dir: filepath.Join(homeDir, tokenDirName), Env: env}, nil
}

// Path returns the token file path
func (s *TokenStore) Path() string {
	return filepath.Join(s.Dir, fmt.Sprintf("token-%s.json", s.Env))
}

// Load returns the stored token, or nil when none has been saved yet
func (s *TokenStore) Load() (*oauth2.Token, error) {
	data, err := os.ReadFile(s.Path())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &token, nil
}

// Save writes the token with owner-only permissions
func (s *TokenStore) Save(token *oauth2.Token) error {
	if err := os.MkdirAll(s.Dir, tokenDirPerms); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(s.Path(), data, tokenFilePerms); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Delete removes the token file; a missing file is not an error
func (s *TokenStore) Delete() error {
	if err := os.Remove(s.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
