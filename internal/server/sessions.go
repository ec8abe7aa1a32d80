package server

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/julian/internal/instrumentation"
)

const (
	// DefaultSessionTimeout drops sessions that have been idle this long.
	DefaultSessionTimeout = 24 * time.Hour

	defaultCleanupInterval = 10 * time.Minute
)

type sessionInfo struct {
	registered time.Time
	lastAccess time.Time
}

// SessionTracker keeps the set of connected MCP sessions and feeds the
// active_sessions gauge. It is attached to the MCP server through Hooks.
type SessionTracker struct {
	mu             sync.RWMutex
	sessions       map[string]*sessionInfo
	sessionTimeout time.Duration
	now            func() time.Time
	metrics        *instrumentation.Metrics
	logger         *slog.Logger

	cleanupTicker *time.Ticker
	cleanupDone   chan struct{}
	stopOnce      sync.Once
}

// NewSessionTracker creates a tracker and starts its expiry loop.
func NewSessionTracker(timeout time.Duration, metrics *instrumentation.Metrics, logger *slog.Logger) *SessionTracker {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	t := &SessionTracker{
		sessions:       make(map[string]*sessionInfo),
		sessionTimeout: timeout,
		now:            time.Now,
		metrics:        metrics,
		logger:         logger,
		cleanupTicker:  time.NewTicker(defaultCleanupInterval),
		cleanupDone:    make(chan struct{}),
	}
	go t.cleanupLoop()
	return t
}

// Hooks returns MCP server hooks that register and unregister sessions.
func (t *SessionTracker) Hooks() *mcpserver.Hooks {
	hooks := &mcpserver.Hooks{}
	hooks.AddOnRegisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		t.Register(ctx, session.SessionID())
	})
	hooks.AddOnUnregisterSession(func(ctx context.Context, session mcpserver.ClientSession) {
		t.Unregister(ctx, session.SessionID())
	})
	return hooks
}

// Register records a new session.
func (t *SessionTracker) Register(ctx context.Context, sessionID string) {
	t.mu.Lock()
	_, exists := t.sessions[sessionID]
	now := t.now()
	t.sessions[sessionID] = &sessionInfo{registered: now, lastAccess: now}
	t.mu.Unlock()

	if !exists {
		t.metrics.IncrementActiveSessions(ctx)
		t.logger.Debug("session registered", "session", sessionID)
	}
}

// Unregister removes a session.
func (t *SessionTracker) Unregister(ctx context.Context, sessionID string) {
	t.mu.Lock()
	_, exists := t.sessions[sessionID]
	delete(t.sessions, sessionID)
	t.mu.Unlock()

	if exists {
		t.metrics.DecrementActiveSessions(ctx)
		t.logger.Debug("session unregistered", "session", sessionID)
	}
}

// Touch marks a session as used.
func (t *SessionTracker) Touch(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if info, ok := t.sessions[sessionID]; ok {
		info.lastAccess = t.now()
	}
}

// Count returns the number of tracked sessions.
func (t *SessionTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// ListSessions returns the tracked session IDs in sorted order.
func (t *SessionTracker) ListSessions() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	sessions := make([]string, 0, len(t.sessions))
	for sessionID := range t.sessions {
		sessions = append(sessions, sessionID)
	}
	sort.Strings(sessions)
	return sessions
}

// expire drops idle sessions and returns how many were removed.
func (t *SessionTracker) expire(ctx context.Context) int {
	t.mu.Lock()
	now := t.now()
	expired := 0
	for sessionID, info := range t.sessions {
		if now.Sub(info.lastAccess) > t.sessionTimeout {
			delete(t.sessions, sessionID)
			expired++
		}
	}
	t.mu.Unlock()

	for i := 0; i < expired; i++ {
		t.metrics.DecrementActiveSessions(ctx)
	}
	return expired
}

func (t *SessionTracker) cleanupLoop() {
	for {
		select {
		case <-t.cleanupTicker.C:
			if n := t.expire(context.Background()); n > 0 {
				t.logger.Info("cleaned up expired sessions", "count", n)
			}
		case <-t.cleanupDone:
			return
		}
	}
}

// Stop ends the expiry loop. It is safe to call more than once.
func (t *SessionTracker) Stop() {
	t.stopOnce.Do(func() {
		t.cleanupTicker.Stop()
		close(t.cleanupDone)
	})
}
