package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth tokens for Google APIs
type TokenProvider interface {
	// GetTokenForAccount retrieves an OAuth token for the specified account
	GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens from the per-account token files
type FileTokenProvider struct{}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider() *FileTokenProvider {
	return &FileTokenProvider{}
}

// GetTokenForAccount returns a valid token for the account, refreshing and
// persisting it when the stored access token has expired.
func (p *FileTokenProvider) GetTokenForAccount(ctx context.Context, account string) (*oauth2.Token, error) {
	stored, err := readToken(account)
	if err != nil {
		return nil, err
	}

	token, err := GetOAuthConfig().TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token for account %s: %w", account, err)
	}

	if token.AccessToken != stored.AccessToken {
		if err := writeToken(account, token); err != nil {
			return nil, err
		}
	}
	return token, nil
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return HasTokenForAccount(account)
}

// StaticTokenProvider serves fixed tokens, keyed by account.
type StaticTokenProvider map[string]*oauth2.Token

func (p StaticTokenProvider) GetTokenForAccount(_ context.Context, account string) (*oauth2.Token, error) {
	token, ok := p[account]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", account, ErrNoToken)
	}
	return token, nil
}

func (p StaticTokenProvider) HasTokenForAccount(account string) bool {
	_, ok := p[account]
	return ok
}
