package common

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/julian/internal/instrumentation"
	"github.com/teemow/julian/internal/server"
)

// ToolHandler is the signature of an MCP tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a trace span, metrics and
// audit logging. Tool results flagged IsError count as failures.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, "", "", sc, handler)
}

// InstrumentedToolHandlerWithService is like InstrumentedToolHandler but also
// records the Google service and operation behind the tool in
// google_api_operations_total.
func InstrumentedToolHandlerWithService(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return instrument(toolName, serviceName, operation, sc, handler)
}

func instrument(toolName, serviceName, operation string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(ctx, request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, account)
		invocation := instrumentation.NewToolInvocation(toolName).WithAccount(account)
		if serviceName != "" {
			invocation.WithService(serviceName, operation)
		}
		if email, ok := sc.CachedUserEmail(account); ok {
			invocation.WithUser(email)
		}

		result, err := handler(ctx, request)

		outcome := err
		if outcome == nil && result != nil && result.IsError {
			outcome = errors.New(ResultText(result))
		}
		invocation.Complete(ctx, outcome)
		instrumentation.EndSpan(span, outcome)

		metrics := sc.Metrics()
		metrics.RecordToolInvocation(ctx, toolName, invocation.Status(), account, invocation.Duration)
		if serviceName != "" {
			metrics.RecordGoogleAPIOperation(ctx, serviceName, operation, invocation.Status(), invocation.Duration)
		}
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

// ResultText returns the first text content of a tool result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return ""
}
