package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ServerStatus fetches the agent server status from GET /.
func (c *httpClient) ServerStatus(ctx context.Context) (*ServerStatus, error) {
	var out ServerStatus
	if err := c.get(ctx, "/", &out); err != nil {
		return nil, eris.Wrap(err, "agent: server status")
	}
	return &out, nil
}

// ListAgents returns the names of available agents.
func (c *httpClient) ListAgents(ctx context.Context) ([]string, error) {
	var out struct {
		Agents []string `json:"agents"`
	}
	if err := c.get(ctx, "/agents", &out); err != nil {
		return nil, eris.Wrap(err, "agent: list agents")
	}
	return out.Agents, nil
}

// LoadAgent loads the named agent on the server.
func (c *httpClient) LoadAgent(ctx context.Context, name string) error {
	if err := c.post(ctx, fmt.Sprintf("/agents/%s/load", name), nil, nil); err != nil {
		return eris.Wrap(err, fmt.Sprintf("agent: load %s", name))
	}
	return nil
}

// ListConnections returns the configured backend connections.
func (c *httpClient) ListConnections(ctx context.Context) (map[string]ConnectionInfo, error) {
	var out struct {
		Connections map[string]ConnectionInfo `json:"connections"`
	}
	if err := c.get(ctx, "/connections", &out); err != nil {
		return nil, eris.Wrap(err, "agent: list connections")
	}
	return out.Connections, nil
}

// ListConnectionActions returns the action catalog of one connection.
func (c *httpClient) ListConnectionActions(ctx context.Context, connection string) (map[string]any, error) {
	var out struct {
		Connection string         `json:"connection"`
		Actions    map[string]any `json:"actions"`
	}
	if err := c.get(ctx, fmt.Sprintf("/connections/%s/actions", connection), &out); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("agent: list actions for %s", connection))
	}
	return out.Actions, nil
}

// StartAgent starts the loaded agent. An "Agent already running" rejection
// counts as success.
func (c *httpClient) StartAgent(ctx context.Context) error {
	err := c.post(ctx, "/agent/start", nil, nil)
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && strings.Contains(apiErr.Detail, "Agent already running") {
		return nil
	}
	return eris.Wrap(err, "agent: start")
}

// StopAgent stops the running agent.
func (c *httpClient) StopAgent(ctx context.Context) error {
	if err := c.post(ctx, "/agent/stop", nil, nil); err != nil {
		return eris.Wrap(err, "agent: stop")
	}
	return nil
}
