package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/julian/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		account            string
		code               string
		remove             bool
		googleClientID     string
		googleClientSecret string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize a Google account",
		Long: `Authorize julian to access the Google Calendar of an account.

The command prints a consent URL. Open it, grant access and paste the
authorization code back. The token is stored per account and refreshed
automatically. Use --remove to forget an account.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if remove {
				if err := google.RemoveTokenForAccount(account); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed token for account %q\n", account)
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !configureGoogleCredentials(cfg, googleClientID, googleClientSecret) && !google.HasClientCredentials() {
				return fmt.Errorf("no Google OAuth client configured: set --google-client-id and --google-client-secret, GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET, or the [google] section of julian.toml")
			}
			return runAuth(cmd, account, code)
		},
	}

	cmd.Flags().StringVar(&account, "account", google.DefaultAccount, "Name of the account to authorize (letters, digits, '-' and '_')")
	cmd.Flags().StringVar(&code, "code", "", "Authorization code; prompts for it when empty")
	cmd.Flags().BoolVar(&remove, "remove", false, "Remove the stored token for the account")
	cmd.Flags().StringVar(&googleClientID, "google-client-id", "", "Google OAuth Client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret. Can also use GOOGLE_CLIENT_SECRET env var.")

	return cmd
}

func runAuth(cmd *cobra.Command, account, code string) error {
	out := cmd.OutOrStdout()

	if code == "" {
		fmt.Fprintf(out, "Open this URL in your browser to authorize account %q:\n\n%s\n\n", account, google.GetAuthURLForAccount(account))
		fmt.Fprint(out, "Enter the authorization code: ")

		var err error
		code, err = readAuthCode(cmd.InOrStdin())
		if err != nil {
			return err
		}
	}

	if err := google.SaveTokenForAccount(cmd.Context(), account, code); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Fprintf(out, "Authorized account %q\n", account)
	return nil
}

// readAuthCode reads the first non-empty line.
func readAuthCode(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read authorization code: %w", err)
	}
	return "", fmt.Errorf("no authorization code entered")
}
