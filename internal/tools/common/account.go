package common

import (
	"context"

	"github.com/teemow/julian/internal/server"
)

// DefaultAccount is used when neither the transport nor the arguments name an account.
const DefaultAccount = "default"

// GetAccountFromArgs extracts the account name from the request context and arguments.
//
// Priority order:
//  1. Account from context (set from the X-Julian-Account header on HTTP)
//  2. Explicit "account" argument in request
//  3. "default"
func GetAccountFromArgs(ctx context.Context, args map[string]interface{}) string {
	if account, ok := server.AccountFromContext(ctx); ok {
		return account
	}

	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return DefaultAccount
}
