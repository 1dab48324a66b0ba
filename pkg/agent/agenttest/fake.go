// Package agenttest provides a scriptable agent.Client for service tests.
package agenttest

import (
	"context"
	"sync"

	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

// Call records one action invocation seen by the fake. Registered actions
// carry an empty Connection.
type Call struct {
	Connection string
	Action     string
	Params     map[string]any
}

// Fake implements agent.Client by dispatching invocations to Handler and
// recording every call. The zero value answers every action with a failure
// payload and every lifecycle endpoint with its zero value.
type Fake struct {
	// Handler resolves action invocations. When nil, every action fails.
	Handler func(call Call) agent.Payload

	// Lifecycle endpoint overrides. Nil funcs return zero values.
	ServerStatusFn          func(ctx context.Context) (*agent.ServerStatus, error)
	ListAgentsFn            func(ctx context.Context) ([]string, error)
	LoadAgentFn             func(ctx context.Context, name string) error
	ListConnectionsFn       func(ctx context.Context) (map[string]agent.ConnectionInfo, error)
	ListConnectionActionsFn func(ctx context.Context, connection string) (map[string]any, error)
	StartAgentFn            func(ctx context.Context) error
	StopAgentFn             func(ctx context.Context) error

	mu    sync.Mutex
	calls []Call
}

var _ agent.Client = (*Fake)(nil)

// Calls returns a copy of every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns how many invocations of the named action were recorded.
func (f *Fake) CallCount(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Action == action {
			n++
		}
	}
	return n
}

func (f *Fake) dispatch(call Call) agent.Payload {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	handler := f.Handler
	f.mu.Unlock()

	if handler == nil {
		return agent.Payload{"success": false, "error": "no handler"}
	}
	return handler(call)
}

func (f *Fake) InvokeAction(ctx context.Context, connection, action string, params map[string]any) agent.Payload {
	return f.dispatch(Call{Connection: connection, Action: action, Params: params})
}

func (f *Fake) InvokeRegistered(ctx context.Context, action string, params map[string]any) agent.Payload {
	return f.dispatch(Call{Action: action, Params: params})
}

func (f *Fake) ServerStatus(ctx context.Context) (*agent.ServerStatus, error) {
	if f.ServerStatusFn != nil {
		return f.ServerStatusFn(ctx)
	}
	return &agent.ServerStatus{}, nil
}

func (f *Fake) ListAgents(ctx context.Context) ([]string, error) {
	if f.ListAgentsFn != nil {
		return f.ListAgentsFn(ctx)
	}
	return nil, nil
}

func (f *Fake) LoadAgent(ctx context.Context, name string) error {
	if f.LoadAgentFn != nil {
		return f.LoadAgentFn(ctx, name)
	}
	return nil
}

func (f *Fake) ListConnections(ctx context.Context) (map[string]agent.ConnectionInfo, error) {
	if f.ListConnectionsFn != nil {
		return f.ListConnectionsFn(ctx)
	}
	return nil, nil
}

func (f *Fake) ListConnectionActions(ctx context.Context, connection string) (map[string]any, error) {
	if f.ListConnectionActionsFn != nil {
		return f.ListConnectionActionsFn(ctx, connection)
	}
	return nil, nil
}

func (f *Fake) StartAgent(ctx context.Context) error {
	if f.StartAgentFn != nil {
		return f.StartAgentFn(ctx)
	}
	return nil
}

func (f *Fake) StopAgent(ctx context.Context) error {
	if f.StopAgentFn != nil {
		return f.StopAgentFn(ctx)
	}
	return nil
}
