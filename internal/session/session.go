// Package session manages the one live agent chat session tied to the
// mounted inspector: create on agent selection, tear down the previous
// session first, and guarantee at most one cleanup call per session id
// even when several teardown triggers fire.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/standardbeagle/pagelens/internal/debug"
)

// API is the session-issuing collaborator, typically the agent backend.
type API interface {
	CreateSession(ctx context.Context, agentName string) (sessionID string, err error)
	CleanupSession(ctx context.Context, sessionID string) error
}

// AgentSession identifies the current chat session.
type AgentSession struct {
	SessionID string `json:"sessionId"`
	AgentName string `json:"agentName"`
}

// Manager owns the current AgentSession. All teardown paths (shutdown,
// page-hide, agent switch) funnel through CleanupCurrent, guarded so the
// cleanup call goes out once per session id.
type Manager struct {
	mu          sync.Mutex
	api         API
	current     *AgentSession
	cleanupDone bool
}

// NewManager returns a manager with no current session.
func NewManager(api API) *Manager {
	return &Manager{api: api}
}

// EnsureSession makes agentName's session current. Any previous session
// gets its cleanup call issued first (fire-and-forget; completion is not
// awaited). A creation failure leaves no current session, so subsequent
// work degrades to stateless rather than reusing a stale id.
//
// The create call runs outside the lock: it can block on the network for
// seconds, and the teardown triggers must stay responsive throughout.
func (m *Manager) EnsureSession(ctx context.Context, agentName string) (string, error) {
	m.mu.Lock()
	m.issueCleanupLocked("agent switch")
	m.current = nil
	m.mu.Unlock()

	id, err := m.api.CreateSession(ctx, agentName)
	if err != nil {
		debug.Error("session", "failed to create session for %s: %v", agentName, err)
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}

	m.mu.Lock()
	m.current = &AgentSession{SessionID: id, AgentName: agentName}
	m.cleanupDone = false
	m.mu.Unlock()

	debug.Info("session", "created session %s for agent %s", id, agentName)
	return id, nil
}

// Current returns the live session, or nil when none exists.
func (m *Manager) Current() *AgentSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// CleanupCurrent issues the cleanup call for the current session if one
// exists and it has not been cleaned up yet. Safe to call from any of the
// teardown triggers in any order; only the first call per session id sends
// anything. Failures are logged, never returned.
func (m *Manager) CleanupCurrent(trigger string) {
	m.mu.Lock()
	m.issueCleanupLocked(trigger)
	m.mu.Unlock()
}

// issueCleanupLocked marks the current session cleaned and fires the
// cleanup call on its own goroutine. The call is issued before the caller
// proceeds, but its completion is never awaited.
func (m *Manager) issueCleanupLocked(trigger string) {
	if m.current == nil || m.cleanupDone {
		return
	}
	m.cleanupDone = true
	id := m.current.SessionID

	debug.Info("session", "cleaning up session %s (%s)", id, trigger)
	go func() {
		if err := m.api.CleanupSession(context.Background(), id); err != nil {
			debug.Warn("session", "cleanup of session %s failed: %v", id, err)
		}
	}()
}
