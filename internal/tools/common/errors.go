package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/julian/internal/freeslots"
	"github.com/teemow/julian/internal/google"
)

// ClientErrorResult converts a failure to obtain a Google client into a
// tool error. Missing tokens get instructions for the OAuth flow.
func ClientErrorResult(account string, err error) *mcp.CallToolResult {
	if errors.Is(err, google.ErrNoToken) {
		return mcp.NewToolResultError(google.GetAuthenticationErrorMessage(account))
	}
	return mcp.NewToolResultError(err.Error())
}

// OperationErrorResult reports a failed operation. Invalid slot requests are
// reported as such so the caller can correct its arguments.
func OperationErrorResult(operation string, err error) *mcp.CallToolResult {
	if errors.Is(err, freeslots.ErrInvalidRequest) || errors.Is(err, freeslots.ErrNaiveInstant) {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid request: %v", err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", operation, err))
}
