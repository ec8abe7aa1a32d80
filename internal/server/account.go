package server

import (
	"context"
	"net/http"
	"strings"
)

// AccountHeader selects the Google account for requests on the HTTP transport.
const AccountHeader = "X-Julian-Account"

type accountKey struct{}

// WithAccount returns a context carrying the account name.
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, accountKey{}, account)
}

// AccountFromContext returns the account stored by WithAccount.
func AccountFromContext(ctx context.Context) (string, bool) {
	account, ok := ctx.Value(accountKey{}).(string)
	return account, ok && account != ""
}

// AccountFromRequest copies the account header into the request context.
// Its signature matches mcp-go's HTTPContextFunc.
func AccountFromRequest(ctx context.Context, r *http.Request) context.Context {
	account := strings.TrimSpace(r.Header.Get(AccountHeader))
	if account == "" {
		return ctx
	}
	return WithAccount(ctx, account)
}
