package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/google"
)

// loadConfig reads julian.toml from --config or the default search path.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var path string
	if f := cmd.Flags().Lookup("config"); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// configureGoogleCredentials installs the OAuth client used for the code
// flow and token refresh. Explicit values win over GOOGLE_CLIENT_ID and
// GOOGLE_CLIENT_SECRET, which win over the config file.
func configureGoogleCredentials(cfg *config.Config, clientID, clientSecret string) bool {
	if clientID == "" {
		clientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if clientSecret == "" {
		clientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if clientID == "" {
		clientID = cfg.Google.ClientID
	}
	if clientSecret == "" {
		clientSecret = cfg.Google.ClientSecret
	}
	if clientID == "" || clientSecret == "" {
		return false
	}
	google.SetClientCredentials(clientID, clientSecret)
	return true
}

// loadEnvFallbacks sets each flag from its environment variable unless the
// flag was given on the command line.
func loadEnvFallbacks(cmd *cobra.Command, fallbacks map[string]string) error {
	for flagName, env := range fallbacks {
		if cmd.Flags().Changed(flagName) {
			continue
		}
		value := os.Getenv(env)
		if value == "" {
			continue
		}
		if err := cmd.Flags().Set(flagName, value); err != nil {
			return fmt.Errorf("invalid %s value %q: %w", env, value, err)
		}
	}
	return nil
}
