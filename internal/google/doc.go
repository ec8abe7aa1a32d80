// Package google provides OAuth2 authentication and token management for Google APIs.
//
// Tokens are stored per account as JSON files in the user cache directory
// (for example ~/.cache/julian/google-work.token). Accounts are authorized
// with the out-of-band code flow: GetAuthURLForAccount returns a consent URL
// and SaveTokenForAccount exchanges the code the user pastes back.
//
// The TokenProvider interface lets callers swap the token source, which the
// calendar client uses to build authenticated API clients.
package google
