// Package agent is the HTTP client for the cold-chain agent service: a thin
// JSON transport, an RPC-style action invoker, and the agent lifecycle
// endpoints. Action failures never surface as Go errors past the invoker
// boundary; they come back as failure payloads (see invoke.go).
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
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Default base URL for a locally running agent service.
const defaultBaseURL = "http://localhost:8000"

// Payload is a decoded JSON object returned by the agent service. The
// normalizer layer owns all shape interpretation; the client only unwraps
// the outer envelope.
type Payload map[string]any

// Succeeded reports whether a payload represents a successful action. The
// backend signals success inconsistently: an explicit success flag, or a
// status of "success"/"completed" (and "redirected" for batch completion).
func (p Payload) Succeeded() bool {
	if ok, found := p["success"].(bool); found {
		return ok
	}
	switch p["status"] {
	case "success", "completed", "redirected":
		return true
	}
	return false
}

// ErrorMessage returns the error text carried by a failure payload, if any.
func (p Payload) ErrorMessage() string {
	if s, ok := p["error"].(string); ok {
		return s
	}
	if res, ok := p["result"].(map[string]any); ok {
		if s, ok := res["error"].(string); ok {
			return s
		}
	}
	return ""
}

// APIError is returned when the agent service responds with a non-2xx status.
// Detail holds the `detail` field extracted from the error body when the body
// was parseable JSON.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agent: HTTP %d: %s", e.StatusCode, e.Detail)
}

// ServerStatus is the response from GET /.
type ServerStatus struct {
	Status       string `json:"status"`
	Agent        string `json:"agent"`
	AgentRunning bool   `json:"agent_running"`
}

// ConnectionInfo describes one configured backend connection.
type ConnectionInfo struct {
	Configured    bool `json:"configured"`
	IsLLMProvider bool `json:"is_llm_provider"`
}

// Client defines the agent service operations.
type Client interface {
	// InvokeAction calls an action of a named connection. It never returns a
	// Go error: transport failures, non-2xx statuses and malformed bodies are
	// all folded into a failure payload.
	InvokeAction(ctx context.Context, connection, action string, params map[string]any) Payload

	// InvokeRegistered calls a registered action (no connection binding).
	// Same failure contract as InvokeAction.
	InvokeRegistered(ctx context.Context, action string, params map[string]any) Payload

	ServerStatus(ctx context.Context) (*ServerStatus, error)
	ListAgents(ctx context.Context) ([]string, error)
	LoadAgent(ctx context.Context, name string) error
	ListConnections(ctx context.Context) (map[string]ConnectionInfo, error)
	ListConnectionActions(ctx context.Context, connection string) (map[string]any, error)
	StartAgent(ctx context.Context) error
	StopAgent(ctx context.Context) error
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps outgoing requests at rps requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new agent service client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	reqID := uuid.New().String()
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(data, resp)}
		zap.L().Debug("agent request failed",
			zap.String("request_id", reqID),
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// errorDetail extracts the `detail` field from an error body, falling back to
// a message built from the status line when the body is not JSON.
func errorDetail(body []byte, resp *http.Response) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return fmt.Sprintf("API request failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
