package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/instrumentation"
)

// MCPEndpointPath is where the streamable HTTP transport is served.
const MCPEndpointPath = "/mcp"

// HTTPServerConfig configures the streamable HTTP transport.
type HTTPServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// DisableStreaming answers every request with plain JSON instead of SSE.
	DisableStreaming bool

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	HealthChecker *HealthChecker
	Sessions      *SessionTracker
	Metrics       *instrumentation.Metrics
	Logger        *slog.Logger
}

// HTTPServer serves the MCP server over streamable HTTP together with the
// health endpoints. The Google account of a request is taken from the
// AccountHeader.
type HTTPServer struct {
	config     HTTPServerConfig
	mcpHandler *mcpserver.StreamableHTTPServer
	httpServer *http.Server
	listenAddr string
}

// NewHTTPServer wraps an MCP server for the streamable HTTP transport.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, config HTTPServerConfig) (*HTTPServer, error) {
	if mcpSrv == nil {
		return nil, fmt.Errorf("mcp server is required")
	}
	if (config.TLSCertFile == "") != (config.TLSKeyFile == "") {
		return nil, fmt.Errorf("both TLS cert and key must be provided")
	}
	for _, f := range []string{config.TLSCertFile, config.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("failed to find TLS file: %w", err)
		}
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	opts := []mcpserver.StreamableHTTPOption{
		mcpserver.WithEndpointPath(MCPEndpointPath),
		mcpserver.WithHTTPContextFunc(AccountFromRequest),
	}
	if config.DisableStreaming {
		opts = append(opts, mcpserver.WithDisableStreaming(true))
	}

	return &HTTPServer{
		config:     config,
		mcpHandler: mcpserver.NewStreamableHTTPServer(mcpSrv, opts...),
	}, nil
}

// TLSEnabled reports whether the server listens with HTTPS.
func (s *HTTPServer) TLSEnabled() bool {
	return s.config.TLSCertFile != ""
}

// Handler returns the complete HTTP handler: the MCP endpoint plus the
// health endpoints when a HealthChecker is configured.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(MCPEndpointPath, trackSessions(s.mcpHandler, s.config.Sessions))
	if s.config.HealthChecker != nil {
		s.config.HealthChecker.RegisterHealthEndpoints(mux)
	}
	return instrumentHTTP(mux, s.config.Metrics)
}

// Start serves until Shutdown.
func (s *HTTPServer) Start() error {
	return s.StartWithReadySignal(nil)
}

// StartWithReadySignal binds the listener, closes ready and serves until
// Shutdown. ready may be nil.
func (s *HTTPServer) StartWithReadySignal(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listenAddr = ln.Addr().String()

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.config.Logger.Info("starting MCP HTTP server",
		"addr", s.listenAddr,
		"endpoint", MCPEndpointPath,
		"tls", s.TLSEnabled(),
		"streaming", !s.config.DisableStreaming,
	)
	if ready != nil {
		close(ready)
	}

	if s.TLSEnabled() {
		err = s.httpServer.ServeTLS(ln, s.config.TLSCertFile, s.config.TLSKeyFile)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.config.HealthChecker != nil {
		s.config.HealthChecker.SetReady(false)
	}
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.mcpHandler.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ListenAddr returns the bound address once the server has started.
func (s *HTTPServer) ListenAddr() string {
	return s.listenAddr
}

// trackSessions keeps the tracker's idle timers current. The MCP server
// registers sessions on initialize but does not unregister them on DELETE.
func trackSessions(next http.Handler, sessions *SessionTracker) http.Handler {
	if sessions == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get(mcpserver.HeaderKeySessionID)
		next.ServeHTTP(w, r)
		if sessionID == "" {
			return
		}
		if r.Method == http.MethodDelete {
			sessions.Unregister(r.Context(), sessionID)
			return
		}
		sessions.Touch(sessionID)
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps SSE streaming working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func instrumentHTTP(next http.Handler, metrics *instrumentation.Metrics) http.Handler {
	if metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
