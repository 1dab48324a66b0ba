package resilience

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/berrytrace/coldchain-cli/pkg/agent"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error", err: eris.New("bad input"), want: false},
		{
			name: "explicit transient",
			err:  NewTransientError(eris.New("backend flapped"), 0),
			want: true,
		},
		{
			name: "wrapped transient",
			err:  eris.Wrap(NewTransientError(eris.New("backend flapped"), 0), "batch: get"),
			want: true,
		},
		{
			name: "api 503",
			err:  &agent.APIError{StatusCode: 503, Detail: "overloaded"},
			want: true,
		},
		{
			name: "api 429",
			err:  &agent.APIError{StatusCode: 429, Detail: "slow down"},
			want: true,
		},
		{
			name: "api 404",
			err:  &agent.APIError{StatusCode: 404, Detail: "no such batch"},
			want: false,
		},
		{
			name: "api 400",
			err:  &agent.APIError{StatusCode: 400, Detail: "bad request"},
			want: false,
		},
		{
			name: "connection reset string",
			err:  eris.New("read tcp 127.0.0.1:8000: connection reset by peer"),
			want: true,
		},
		{
			name: "io timeout string",
			err:  eris.New("dial tcp: i/o timeout"),
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.Truef(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 201, 301, 400, 401, 403, 404, 422, 501} {
		assert.Falsef(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
