package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/config"
	"github.com/teemow/julian/internal/instrumentation"
	"github.com/teemow/julian/internal/logging"
	"github.com/teemow/julian/internal/server"
)

const (
	transportStdio          = "stdio"
	transportStreamableHTTP = "streamable-http"

	startupTimeout = 5 * time.Second
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server (default: true)
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

// serveOptions collects the serve flags after environment fallbacks.
type serveOptions struct {
	transport          string
	httpAddr           string
	yolo               bool
	googleClientID     string
	googleClientSecret string
	disableStreaming   bool
	tlsCertFile        string
	tlsKeyFile         string
	logLevel           string
	logFormat          string
	sessionTimeout     time.Duration
	metrics            MetricsConfig
}

// serveEnvFallbacks maps serve flags to the environment variables consulted
// when the flag is not given.
var serveEnvFallbacks = map[string]string{
	"transport":            "JULIAN_TRANSPORT",
	"http-addr":            "JULIAN_HTTP_ADDR",
	"google-client-id":     "GOOGLE_CLIENT_ID",
	"google-client-secret": "GOOGLE_CLIENT_SECRET",
	"tls-cert-file":        "TLS_CERT_FILE",
	"tls-key-file":         "TLS_KEY_FILE",
	"log-level":            "LOG_LEVEL",
	"log-format":           "LOG_FORMAT",
	"session-timeout":      "SESSION_TIMEOUT",
	"metrics-enabled":      "METRICS_ENABLED",
	"metrics-addr":         "METRICS_ADDR",
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol (MCP) server to provide Google Calendar
tools and calendar assistant prompts for AI assistants.

Supports multiple transport types:
  - stdio: Standard input/output (default)
  - streamable-http: Streamable HTTP transport

Safety Mode:
  By default, the server operates in read-only mode, providing only safe operations.
  Use --yolo to enable write operations (creating, moving and declining events).

Accounts:
  Tokens are stored per account in ~/.cache/julian. Authorize an account with
  "julian auth --account NAME" or through the google_get_auth_url and
  google_save_auth_code tools. Over HTTP the X-Julian-Account header selects
  the account for a request.

Google OAuth client:
  --google-client-id and --google-client-secret flags
  OR GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars
  OR the [google] section of julian.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFallbacks(cmd, serveEnvFallbacks); err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			configureGoogleCredentials(cfg, opts.googleClientID, opts.googleClientSecret)
			return runServe(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", transportStdio, "Transport type: stdio or streamable-http. Can also use JULIAN_TRANSPORT env var.")
	cmd.Flags().StringVar(&opts.httpAddr, "http-addr", ":8080", "HTTP server address (for streamable-http transport). Can also use JULIAN_HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&opts.yolo, "yolo", false, "Enable write operations (creating, moving and declining events). Default is read-only mode.")
	cmd.Flags().StringVar(&opts.googleClientID, "google-client-id", "", "Google OAuth Client ID for the code flow and token refresh. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&opts.googleClientSecret, "google-client-secret", "", "Google OAuth Client Secret for the code flow and token refresh. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&opts.disableStreaming, "disable-streaming", false, "Disable streaming for HTTP transport (for compatibility with certain clients)")

	// TLS flags for HTTPS support
	cmd.Flags().StringVar(&opts.tlsCertFile, "tls-cert-file", "", "Path to TLS certificate file (PEM format). If provided with --tls-key-file, enables HTTPS. Can also use TLS_CERT_FILE env var.")
	cmd.Flags().StringVar(&opts.tlsKeyFile, "tls-key-file", "", "Path to TLS private key file (PEM format). If provided with --tls-cert-file, enables HTTPS. Can also use TLS_KEY_FILE env var.")

	// Logging flags
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")

	cmd.Flags().DurationVar(&opts.sessionTimeout, "session-timeout", server.DefaultSessionTimeout, "Idle time after which an HTTP session is dropped. Can also use SESSION_TIMEOUT env var.")

	// Metrics server flags
	cmd.Flags().BoolVar(&opts.metrics.Enabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port. Can also use METRICS_ENABLED env var.")
	cmd.Flags().StringVar(&opts.metrics.Addr, "metrics-addr", server.DefaultMetricsAddr, "Metrics server address. Can also use METRICS_ADDR env var.")

	return cmd
}

func runServe(parent context.Context, cfg *config.Config, opts serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr; the stdio transport owns stdout.
	logger, err := logging.New(logging.Options{Level: opts.logLevel, Format: opts.logFormat})
	if err != nil {
		return err
	}
	logger = logger.With(slog.String(logging.KeyTransport, opts.transport))
	slog.SetDefault(logger)

	if opts.transport != transportStdio && opts.transport != transportStreamableHTTP {
		return fmt.Errorf("unsupported transport type: %s (supported: %s, %s)", opts.transport, transportStdio, transportStreamableHTTP)
	}

	// Initialize instrumentation provider
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(shutdownCtx, instrConfig)
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	// Start metrics server if enabled and not in stdio mode
	if opts.transport != transportStdio && opts.metrics.Enabled && provider.PrometheusHandler() != nil {
		metricsServer, err := startMetricsServer(opts.metrics, provider, logger)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	// readOnly is the inverse of yolo
	readOnly := !opts.yolo

	serverContext, err := server.NewServerContext(shutdownCtx, cfg,
		server.WithLogger(logger),
		server.WithReadOnly(readOnly),
	)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	// Set metrics and audit logger on server context for tool instrumentation
	if provider.Enabled() {
		serverContext.SetMetrics(provider.Metrics())
	}
	serverContext.SetAuditLogger(instrumentation.NewAuditLogger(logger, instrConfig.AuditLogging))

	sessions := server.NewSessionTracker(opts.sessionTimeout, serverContext.Metrics(), logger)
	defer sessions.Stop()

	mcpSrv := newMCPServer(mcpserver.WithHooks(sessions.Hooks()))

	if readOnly {
		logger.Info("starting server in READ-ONLY mode (use --yolo to enable write operations)")
	} else {
		logger.Info("starting server with WRITE operations enabled (--yolo flag is set)")
	}
	if cfg.Path != "" {
		logger.Info("loaded configuration", "path", cfg.Path)
	}

	if err := registerAll(mcpSrv, serverContext); err != nil {
		return err
	}

	switch opts.transport {
	case transportStdio:
		return runStdioServer(mcpSrv)
	default:
		return runStreamableHTTPServer(shutdownCtx, mcpSrv, serverContext, sessions, opts, logger)
	}
}

func startMetricsServer(config MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    config.Addr,
		InstrumentationProvider: provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	// Use ready channel to confirm metrics server started successfully
	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		logger.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(startupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}

func runStdioServer(mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	err := <-serverDone
	if err != nil {
		return fmt.Errorf("server stopped with error: %w", err)
	}
	return nil
}

func runStreamableHTTPServer(ctx context.Context, mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, sessions *server.SessionTracker, opts serveOptions, logger *slog.Logger) error {
	httpServer, err := server.NewHTTPServer(mcpSrv, server.HTTPServerConfig{
		Addr:             opts.httpAddr,
		DisableStreaming: opts.disableStreaming,
		TLSCertFile:      opts.tlsCertFile,
		TLSKeyFile:       opts.tlsKeyFile,
		HealthChecker:    server.NewHealthChecker(sc, sessions, version),
		Sessions:         sessions,
		Metrics:          sc.Metrics(),
		Logger:           logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}

	scheme := "http"
	if httpServer.TLSEnabled() {
		scheme = "https"
	}
	fmt.Fprintf(os.Stderr, "Streamable HTTP server starting on %s\n", opts.httpAddr)
	fmt.Fprintf(os.Stderr, "  MCP endpoint: %s://<host>%s\n", scheme, server.MCPEndpointPath)
	fmt.Fprintf(os.Stderr, "  Health endpoints: /healthz, /readyz\n")
	fmt.Fprintf(os.Stderr, "  Account header: %s\n", server.AccountHeader)
	if opts.metrics.Enabled {
		fmt.Fprintf(os.Stderr, "  Metrics endpoint: %s/metrics\n", opts.metrics.Addr)
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := httpServer.Start(); err != nil {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error shutting down HTTP server: %w", err)
		}
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
		logger.Info("HTTP server stopped normally")
	}

	logger.Info("HTTP server gracefully stopped")
	return nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
