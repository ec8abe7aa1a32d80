package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"google.golang.org/api/option"

	"github.com/teemow/julian/internal/calendar"
	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/google"
	"github.com/teemow/julian/internal/instrumentation"
	"github.com/teemow/julian/internal/logging"
	"github.com/teemow/julian/internal/scheduling"
)

// ErrShutdown is returned by client lookups after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// ServerContext holds the shared state of the MCP server: per-account
// calendar clients, the scheduling defaults and the instrumentation hooks.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config        *config.Config
	tokenProvider google.TokenProvider
	clientOptions []option.ClientOption
	clock         func() time.Time
	logger        *slog.Logger
	readOnly      bool

	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu              sync.RWMutex
	calendarClients map[string]*calendar.Client // Maps account name to Calendar client
	userEmails      map[string]string           // Maps account name to the account's email
	shutdown        bool
}

// ContextOption configures a ServerContext.
type ContextOption func(*ServerContext)

// WithTokenProvider replaces the file token store.
func WithTokenProvider(p google.TokenProvider) ContextOption {
	return func(sc *ServerContext) { sc.tokenProvider = p }
}

// WithClientOptions adds Google API client options, e.g. an endpoint override.
func WithClientOptions(opts ...option.ClientOption) ContextOption {
	return func(sc *ServerContext) { sc.clientOptions = append(sc.clientOptions, opts...) }
}

// WithClock replaces time.Now for every planner the context creates.
func WithClock(clock func() time.Time) ContextOption {
	return func(sc *ServerContext) { sc.clock = clock }
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(sc *ServerContext) { sc.logger = logger }
}

// WithReadOnly marks the server as not exposing write tools.
func WithReadOnly(readOnly bool) ContextOption {
	return func(sc *ServerContext) { sc.readOnly = readOnly }
}

// NewServerContext creates a new server context. A nil cfg uses config.Default().
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...ContextOption) (*ServerContext, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		config:          cfg,
		tokenProvider:   google.NewFileTokenProvider(),
		clock:           time.Now,
		logger:          slog.Default(),
		calendarClients: make(map[string]*calendar.Client),
		userEmails:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(sc)
	}
	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the loaded configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// ReadOnly reports whether write tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// TokenProvider returns the token provider used for new clients.
func (sc *ServerContext) TokenProvider() google.TokenProvider {
	return sc.tokenProvider
}

// HasTokenForAccount reports whether the account can be used without the OAuth flow.
func (sc *ServerContext) HasTokenForAccount(account string) bool {
	return sc.tokenProvider.HasTokenForAccount(account)
}

// CalendarClientForAccount returns the cached Calendar client for an account,
// creating it on first use. The error wraps google.ErrNoToken when the
// account has not been authorized yet.
func (sc *ServerContext) CalendarClientForAccount(ctx context.Context, account string) (*calendar.Client, error) {
	sc.mu.RLock()
	client, ok := sc.calendarClients[account]
	shutdown := sc.shutdown
	sc.mu.RUnlock()

	if shutdown {
		return nil, ErrShutdown
	}
	if ok {
		return client, nil
	}

	if !sc.tokenProvider.HasTokenForAccount(account) {
		return nil, fmt.Errorf("account %s: %w", account, google.ErrNoToken)
	}

	client, err := calendar.NewClientForAccountWithProvider(ctx, account, sc.tokenProvider, sc.clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar client for account %s: %w", account, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if existing, ok := sc.calendarClients[account]; ok {
		return existing, nil
	}
	sc.calendarClients[account] = client
	return client, nil
}

// SetCalendarClientForAccount sets the Calendar client for a specific account
func (sc *ServerContext) SetCalendarClientForAccount(account string, client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.calendarClients[account] = client
}

// CachedAccounts lists the accounts with an initialized Calendar client.
func (sc *ServerContext) CachedAccounts() []string {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	accounts := make([]string, 0, len(sc.calendarClients))
	for account := range sc.calendarClients {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts
}

// ForgetAccount drops the cached client and email, e.g. after re-authorization.
func (sc *ServerContext) ForgetAccount(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.calendarClients, account)
	delete(sc.userEmails, account)
}

// UserEmail returns the email address of the account's Google user.
// The lookup goes through the userinfo API once and is cached.
func (sc *ServerContext) UserEmail(ctx context.Context, account string) (string, error) {
	sc.mu.RLock()
	email, ok := sc.userEmails[account]
	sc.mu.RUnlock()
	if ok {
		return email, nil
	}

	info, err := sc.UserInfo(ctx, account)
	if err != nil {
		return "", err
	}

	sc.SetUserEmail(account, info.Email)
	return info.Email, nil
}

// CachedUserEmail returns the account's email if it has been looked up before.
func (sc *ServerContext) CachedUserEmail(account string) (string, bool) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	email, ok := sc.userEmails[account]
	return email, ok
}

// UserInfo fetches the account's Google profile.
func (sc *ServerContext) UserInfo(ctx context.Context, account string) (*google.UserInfo, error) {
	token, err := sc.tokenProvider.GetTokenForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token for account %s: %w", account, err)
	}
	ts := google.GetOAuthConfig().TokenSource(ctx, token)
	return google.GetUserInfo(ctx, ts, sc.clientOptions...)
}

// SetUserEmail caches the email address of an account.
func (sc *ServerContext) SetUserEmail(account, email string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.userEmails[account] = email
}

// PlannerForAccount builds a scheduling planner over the account's primary
// calendar with the configured defaults. The user's email is looked up on a
// best-effort basis; without it declined events still count as busy.
func (sc *ServerContext) PlannerForAccount(ctx context.Context, account string) (*scheduling.Planner, error) {
	client, err := sc.CalendarClientForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogAdapter(logging.WithAccount(sc.logger, account))
	opts := []scheduling.Option{
		scheduling.WithClock(sc.clock),
		scheduling.WithLogger(logger),
	}

	if email, err := sc.UserEmail(ctx, account); err != nil {
		logger.Debug("user email unavailable", logging.Err(err))
	} else {
		opts = append(opts, scheduling.WithUserEmail(email))
	}

	loc, err := sc.config.Scheduling.Location()
	if err != nil {
		return nil, err
	}
	if loc != nil {
		opts = append(opts, scheduling.WithLocation(loc))
	}

	if m := sc.Metrics(); m != nil {
		opts = append(opts, scheduling.WithObserver(m))
	}

	return scheduling.NewPlanner(client, sc.config.Scheduling, opts...), nil
}

// Now returns the server clock's current time.
func (sc *ServerContext) Now() time.Time {
	return sc.clock()
}

// SetMetrics sets the metrics recorder used by tool handlers and planners.
func (sc *ServerContext) SetMetrics(m *instrumentation.Metrics) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.metrics = m
}

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.metrics
}

// SetAuditLogger sets the audit logger used by tool handlers.
func (sc *ServerContext) SetAuditLogger(al *instrumentation.AuditLogger) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.auditLogger = al
}

// AuditLogger returns the audit logger, or nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.auditLogger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.calendarClients = make(map[string]*calendar.Client)
	sc.cancel()
	return nil
}
