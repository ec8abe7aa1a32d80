// Package google_tools provides MCP tools for the Google OAuth code flow.
//
// The OAuth flow:
//  1. A calendar tool reports that no token exists for the account
//  2. google_get_auth_url returns the consent URL
//  3. The user visits the URL, grants calendar access and copies the code
//  4. google_save_auth_code exchanges the code and stores the token
//
// Stored tokens are refreshed automatically. Saving a new code drops the
// cached client for the account so the next call uses the new token.
package google_tools
