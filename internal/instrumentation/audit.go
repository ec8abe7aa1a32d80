package instrumentation

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// ToolInvocation captures one MCP tool call for audit logging.
type ToolInvocation struct {
	Tool      string
	UserEmail string
	Account   string
	Service   string
	Operation string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	TraceID   string
}

// NewToolInvocation creates a ToolInvocation with timing started.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, StartTime: time.Now()}
}

// WithUser sets the user's email.
func (ti *ToolInvocation) WithUser(email string) *ToolInvocation {
	ti.UserEmail = email
	return ti
}

// WithAccount sets the Google account name.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithService sets the Google service and operation.
func (ti *ToolInvocation) WithService(service, operation string) *ToolInvocation {
	ti.Service = service
	ti.Operation = operation
	return ti
}

// Complete records the outcome and duration. The trace ID is taken from ctx.
func (ti *ToolInvocation) Complete(ctx context.Context, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	ti.TraceID = GetTraceID(ctx)
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// UserDomain returns the domain of the user's email, or "unknown".
func (ti *ToolInvocation) UserDomain() string {
	_, domain, ok := strings.Cut(ti.UserEmail, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return domain
}

func (ti *ToolInvocation) attrs(includePII bool) []any {
	args := []any{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if includePII {
		args = append(args, slog.String("user", ti.UserEmail))
	} else {
		args = append(args, slog.String("user_domain", ti.UserDomain()))
	}
	if ti.Account != "" {
		args = append(args, slog.String("account", ti.Account))
	}
	if ti.Service != "" {
		args = append(args, slog.String("service", ti.Service))
	}
	if ti.Operation != "" {
		args = append(args, slog.String("operation", ti.Operation))
	}
	if ti.TraceID != "" {
		args = append(args, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		args = append(args, slog.String("error", ti.Error))
	}
	return args
}

// AuditLogger writes one structured line per tool invocation.
type AuditLogger struct {
	logger *slog.Logger
	config AuditLoggingConfig
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger, config: config}
}

// LogToolInvocation logs at info level on success and warn level on failure.
// Full emails are only logged when IncludePII is set.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.config.Enabled {
		return
	}
	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.config.IncludePII)...)
	} else {
		al.logger.Warn("tool_failed", ti.attrs(al.config.IncludePII)...)
	}
}
