package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	// DefaultAccount is used when no account name is given.
	DefaultAccount = "default"

	oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"
	appName        = "julian"
)

// ErrNoToken is returned when no token is stored for an account.
var ErrNoToken = errors.New("no Google OAuth token found")

var (
	credsMu      sync.RWMutex
	clientID     = os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")

	accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SetClientCredentials overrides the OAuth client used for the code flow.
// Empty values leave the current setting untouched.
func SetClientCredentials(id, secret string) {
	credsMu.Lock()
	defer credsMu.Unlock()
	if id != "" {
		clientID = id
	}
	if secret != "" {
		clientSecret = secret
	}
}

// HasClientCredentials reports whether an OAuth client is configured.
func HasClientCredentials() bool {
	credsMu.RLock()
	defer credsMu.RUnlock()
	return clientID != "" && clientSecret != ""
}

// GetOAuthConfig returns the OAuth2 configuration for the Google APIs julian uses
func GetOAuthConfig() *oauth2.Config {
	credsMu.RLock()
	defer credsMu.RUnlock()
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  oobRedirectURL,
		Scopes:       DefaultOAuthScopes,
	}
}

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

func tokenDir() string {
	return filepath.Join(userCacheDir(), appName)
}

func getTokenFilePath(account string) string {
	return filepath.Join(tokenDir(), fmt.Sprintf("google-%s.token", account))
}

// HasTokenForAccount checks if a token file exists for the specified account
func HasTokenForAccount(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// HasToken checks if a token exists for the default account
func HasToken() bool {
	return HasTokenForAccount(DefaultAccount)
}

// GetAuthURLForAccount returns the consent URL for the specified account.
// The account name is carried in the state parameter.
func GetAuthURLForAccount(account string) string {
	return GetOAuthConfig().AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveTokenForAccount exchanges an authorization code and stores the token
func SaveTokenForAccount(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if authCode == "" {
		return fmt.Errorf("authorization code cannot be empty")
	}

	token, err := GetOAuthConfig().Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return writeToken(account, token)
}

func writeToken(account string, token *oauth2.Token) error {
	if err := os.MkdirAll(tokenDir(), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(getTokenFilePath(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func readToken(account string) (*oauth2.Token, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(getTokenFilePath(account))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("account %s: %w", account, ErrNoToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	return &token, nil
}

// RemoveTokenForAccount deletes the stored token. A missing token is not an error.
func RemoveTokenForAccount(account string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}
	if err := os.Remove(getTokenFilePath(account)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

// GetTokenSourceForAccount returns a refreshing token source for the stored token
func GetTokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	token, err := readToken(account)
	if err != nil {
		return nil, err
	}
	return GetOAuthConfig().TokenSource(ctx, token), nil
}

// NewHTTPClient returns an OAuth2 HTTP client for the token source.
// The client is configured to use HTTP/1.1 to avoid HTTP/2 protocol errors.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			ForceAttemptHTTP2: false,
		}
	}
	return client
}

// GetAuthenticationErrorMessage explains how to authorize an account
func GetAuthenticationErrorMessage(account string) string {
	return fmt.Sprintf("Google OAuth token not found for account %q. "+
		"Use the google_get_auth_url tool with account=%q to start the OAuth flow, "+
		"then google_save_auth_code with the code you receive (or run `julian auth --account %s`).",
		account, account, account)
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
