package testhost

import (
	"context"
	"encoding/json"

	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
)

// FocusWindowTool is a main-thread-lane tool used to exercise the waker
// (spec §8 scenario S6): invoking it from off the host's real main thread
// is exactly what the wait-for-main-thread-drain path exists for.
type FocusWindowTool struct{}

func NewFocusWindowTool() (toolapi.Tool, error) { return FocusWindowTool{}, nil }

func (FocusWindowTool) Name() string { return "focus_window" }

func (FocusWindowTool) Describe() toolapi.Descriptor {
	return toolapi.Descriptor{
		Name:               "focus_window",
		Description:        "Brings a host panel to the foreground; requires the host main thread",
		RequiresMainThread: true,
		ParameterSchema:    json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

func (FocusWindowTool) Invoke(ctx context.Context, argumentsJSON string) (interface{}, error) {
	return map[string]interface{}{"focused": true}, nil
}
