package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/server"
	"github.com/teemow/julian/internal/tools/common"
)

const (
	ProfileURI          = "user://profile"
	CalendarSettingsURI = "calendar://settings"
)

// RegisterResources registers all resources with the MCP server
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	profileResource := mcp.NewResource(
		ProfileURI,
		"Current User Profile",
		mcp.WithResourceDescription("Information about the authenticated Google account"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(profileResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUserProfile(ctx, request, sc)
	})

	settingsResource := mcp.NewResource(
		CalendarSettingsURI,
		"Calendar Settings",
		mcp.WithResourceDescription("Primary calendar time zone, Google Calendar settings and free-slot search defaults"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendarSettings(ctx, request, sc)
	})

	return nil
}

func jsonContents(uri string, data interface{}) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// handleUserProfile returns the Google profile of the current account
func handleUserProfile(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	account := common.GetAccountFromArgs(ctx, nil)

	info, err := sc.UserInfo(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get user profile for account %s: %w", account, err)
	}
	sc.SetUserEmail(account, info.Email)

	return jsonContents(request.Params.URI, map[string]interface{}{
		"account":       account,
		"email":         info.Email,
		"name":          info.Name,
		"picture":       info.Picture,
		"verifiedEmail": info.VerifiedEmail,
	})
}
