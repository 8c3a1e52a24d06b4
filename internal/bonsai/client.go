// Package bonsai implements the remote training-orchestrator transport:
// simulator session registration, the advance round-trip and session
// deletion, as JSON over HTTP against the platform's v2 API.
package bonsai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/plateworks/moab-session/internal/httputil"
	"github.com/plateworks/moab-session/internal/session"
)

// DefaultServer is the production API host.
const DefaultServer = "https://api.bons.ai"

// Client talks to the training service for one workspace. It implements
// session.Orchestrator. No call is retried; failures surface to the
// session loop, which tears the session down.
type Client struct {
	Server    string
	Workspace string
	AccessKey string

	HTTP httputil.Doer
}

// NewClient creates a client for the given workspace.
func NewClient(server, workspace, accessKey string, doer httputil.Doer) *Client {
	if server == "" {
		server = DefaultServer
	}
	if doer == nil {
		doer = httputil.NewStandardClient(nil)
	}
	return &Client{Server: server, Workspace: workspace, AccessKey: accessKey, HTTP: doer}
}

func (c *Client) sessionsURL() string {
	return fmt.Sprintf("%s/v2/workspaces/%s/simulatorSessions", c.Server, c.Workspace)
}

// do sends one JSON request and decodes the response into out (when out
// is non-nil). Non-2xx statuses are errors carrying the response body.
func (c *Client) do(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.AccessKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned status %d: %s", method, url, resp.StatusCode, b)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", url, err)
	}
	return nil
}

type registerResponse struct {
	SessionID string `json:"sessionId"`
}

// Register creates a simulator session and returns its id.
func (c *Client) Register(ctx context.Context, iface session.SimulatorInterface) (string, error) {
	var resp registerResponse
	if err := c.do(ctx, http.MethodPost, c.sessionsURL(), iface, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("registration returned no session id")
	}
	return resp.SessionID, nil
}

// Advance pushes the simulator state and returns the orchestrator's next
// event.
func (c *Client) Advance(ctx context.Context, sessionID string, state session.SimulatorState) (session.Event, error) {
	url := fmt.Sprintf("%s/%s/advance", c.sessionsURL(), sessionID)
	var event session.Event
	if err := c.do(ctx, http.MethodPost, url, state, &event); err != nil {
		return session.Event{}, err
	}
	return event, nil
}

// Delete releases the simulator session.
func (c *Client) Delete(ctx context.Context, sessionID string) error {
	url := fmt.Sprintf("%s/%s", c.sessionsURL(), sessionID)
	return c.do(ctx, http.MethodDelete, url, nil, nil)
}
