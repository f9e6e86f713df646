package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// LoadToken reads a persisted OAuth token from disk.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	return &token, nil
}

// SaveToken persists an OAuth token to disk, creating parent directories
// as needed. The file is written with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

// TokenSource builds a self-refreshing token source from a persisted token
// and the OAuth client configuration. Refreshed tokens are written back to
// the token file so the next run starts with a fresh one.
func TokenSource(ctx context.Context, conf *oauth2.Config, tokenPath string) (oauth2.TokenSource, error) {
	token, err := LoadToken(tokenPath)
	if err != nil {
		return nil, err
	}

	return &persistingTokenSource{
		base:      conf.TokenSource(ctx, token),
		tokenPath: tokenPath,
		last:      token,
	}, nil
}

// persistingTokenSource saves refreshed tokens back to disk.
type persistingTokenSource struct {
	base      oauth2.TokenSource
	tokenPath string
	last      *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	if token.AccessToken != s.last.AccessToken {
		s.last = token
		// Best-effort: a failed save only means a refresh next run.
		_ = SaveToken(s.tokenPath, token)
	}
	return token, nil
}
