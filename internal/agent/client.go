// Package agent holds the collaborators around the chat-agent side of an
// inspection: session issuing (remote backend or local fallback) and the
// Anthropic-backed analyzer that can work an inspection item.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client talks to a remote session-issuing backend over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type createSessionRequest struct {
	AgentName string `json:"agentName"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// CreateSession requests a new session id for agentName.
func (c *Client) CreateSession(ctx context.Context, agentName string) (string, error) {
	body, err := json.Marshal(createSessionRequest{AgentName: agentName})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sessions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("session create request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("session create returned %d: %s", resp.StatusCode, data)
	}

	var out createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode session response: %w", err)
	}
	if out.SessionID == "" {
		return "", fmt.Errorf("backend returned an empty session id")
	}
	return out.SessionID, nil
}

// CleanupSession tears down sessionID on the backend. Callers treat this
// as best-effort.
func (c *Client) CleanupSession(ctx context.Context, sessionID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/sessions/"+sessionID, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("session cleanup request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("session cleanup returned %d", resp.StatusCode)
	}
	return nil
}

// LocalSessions is the fallback session issuer used when no backend is
// configured: ids are minted locally and cleanup is a no-op, which keeps
// the lifecycle plumbing exercised without a server.
type LocalSessions struct{}

// CreateSession mints a local session id.
func (LocalSessions) CreateSession(ctx context.Context, agentName string) (string, error) {
	return "local-" + uuid.NewString(), nil
}

// CleanupSession is a no-op for local sessions.
func (LocalSessions) CleanupSession(ctx context.Context, sessionID string) error {
	return nil
}
