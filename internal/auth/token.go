package auth

import (
	"collsync/internal/config"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

const tokenFile = "token.json"

func SaveToken(token *oauth2.Token) error {
	dir, err := config.Dir()
	if err != nil {
		return err
	}

	b, err := json.Marshal(token)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, tokenFile)
	if err := os.WriteFile(path, b, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

func LoadToken() (*oauth2.Token, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(filepath.Join(dir, tokenFile))
	if err != nil {
		return nil, fmt.Errorf("token not found, run 'collsync login --token <token>' first: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(b, &token); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return &token, nil
}

// TokenSource exposes the cached token as an oauth2 source for callers
// that want automatic header injection.
func TokenSource() (oauth2.TokenSource, error) {
	token, err := LoadToken()
	if err != nil {
		return nil, err
	}

	return oauth2.StaticTokenSource(token), nil
}
