package agent

import (
	"context"

	"go.uber.org/zap"
)

const (
	actionPath           = "/agent/action"
	registeredActionPath = "/agent/registered-action"

	// The backend ignores the connection field for registered actions but the
	// request schema still requires one.
	registeredPlaceholder = "registered"
)

type actionRequest struct {
	Connection string         `json:"connection"`
	Action     string         `json:"action"`
	Params     map[string]any `json:"params"`
}

// failure builds the uniform failure payload callers receive instead of an
// error. Keeping the shape identical to a backend {success:false, error}
// envelope means the normalizer layer treats both paths the same way.
func failure(msg string) Payload {
	return Payload{"success": false, "error": msg}
}

// InvokeAction posts {connection, action, params} to the action endpoint and
// unwraps the response envelope. When the body carries a result object with
// no explicit success flag, success is synthesized from the envelope status;
// otherwise the body is returned unchanged.
func (c *httpClient) InvokeAction(ctx context.Context, connection, action string, params map[string]any) Payload {
	return c.invoke(ctx, actionPath, connection, action, params)
}

// InvokeRegistered posts a registered action (transaction history/detail
// lookups). Identical unwrap contract, fixed placeholder connection.
func (c *httpClient) InvokeRegistered(ctx context.Context, action string, params map[string]any) Payload {
	return c.invoke(ctx, registeredActionPath, registeredPlaceholder, action, params)
}

func (c *httpClient) invoke(ctx context.Context, path, connection, action string, params map[string]any) Payload {
	if params == nil {
		params = map[string]any{}
	}

	zap.L().Debug("invoking agent action",
		zap.String("connection", connection),
		zap.String("action", action),
	)

	var body map[string]any
	err := c.post(ctx, path, actionRequest{Connection: connection, Action: action, Params: params}, &body)
	if err != nil {
		zap.L().Warn("agent action failed",
			zap.String("connection", connection),
			zap.String("action", action),
			zap.Error(err),
		)
		return failure(err.Error())
	}
	if body == nil {
		return failure("empty response body")
	}

	if result, ok := body["result"].(map[string]any); ok {
		if _, has := result["success"]; !has {
			result["success"] = body["status"] == "success"
		}
		return Payload(result)
	}
	return Payload(body)
}
