package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkjsonschema "github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hostbridge/ide-agent-bridge/internal/brokercfg"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

var logSurface = logger.New("broker:toolsurface")

// ToolSurface keeps the outer MCP server's registered tools in sync with
// the inner agent's tool catalog (spec §4.10 "Sync"). Registrations are
// additive: tools the agent drops mid-session are never unregistered,
// matching the outer framework's assumption that it cached the tool list
// at session start.
type ToolSurface struct {
	server     *sdk.Server
	cfg        brokercfg.Config
	controller *Controller

	mu            sync.Mutex
	registered    map[string]bool
	cachedVersion int
}

// NewToolSurface constructs a tool surface bound to server. Call
// SetController once the reconnect controller exists (the two are
// mutually referential: the controller resyncs through this surface after
// each reconnect, and the surface invokes tools through the controller).
func NewToolSurface(server *sdk.Server, cfg brokercfg.Config) *ToolSurface {
	return &ToolSurface{server: server, cfg: cfg, registered: make(map[string]bool)}
}

// SetController wires the reconnect controller this surface dispatches
// invocations through.
func (ts *ToolSurface) SetController(controller *Controller) {
	ts.controller = controller
}

// Sync issues list_tools on conn and registers any descriptor not already
// registered. If the returned version matches the cached version and at
// least one tool is already registered, Sync is a no-op (spec §4.10).
func (ts *ToolSurface) Sync(ctx context.Context, conn *Connection) error {
	resp, err := conn.Send(ctx, wire.CmdListTools, "", ts.cfg.RequestTimeout)
	if err != nil {
		return fmt.Errorf("broker: list_tools failed: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("broker: list_tools returned an error: %s", resp.Error)
	}

	var result wire.ListToolsResult
	if err := json.Unmarshal([]byte(resp.Data), &result); err != nil {
		return fmt.Errorf("broker: failed to parse list_tools result: %w", err)
	}

	ts.mu.Lock()
	alreadySynced := result.Version == ts.cachedVersion && len(ts.registered) > 0
	ts.mu.Unlock()
	if alreadySynced {
		logSurface.Printf("catalog version %d already synced, skipping", result.Version)
		return nil
	}

	for _, descriptor := range result.Tools {
		ts.mu.Lock()
		already := ts.registered[descriptor.Name]
		ts.mu.Unlock()
		if already {
			continue
		}
		if err := ts.registerTool(descriptor); err != nil {
			logSurface.Printf("failed to register tool %s: %v", descriptor.Name, err)
			continue
		}
		ts.mu.Lock()
		ts.registered[descriptor.Name] = true
		ts.mu.Unlock()
	}

	ts.mu.Lock()
	ts.cachedVersion = result.Version
	ts.mu.Unlock()
	logSurface.Printf("synced catalog version=%d tools=%d", result.Version, len(result.Tools))
	return nil
}

// registerTool translates descriptor's draft-07 parameter schema into the
// SDK's schema representation (preserving type, constraints, defaults,
// optionality, and descriptions per spec §4.5) and registers an
// outer-framework tool whose handler proxies to invoke_tool.
func (ts *ToolSurface) registerTool(descriptor wire.ToolDescriptorWire) error {
	schema, err := translateSchema(json.RawMessage(descriptor.ParameterSchema))
	if err != nil {
		return err
	}

	name := descriptor.Name
	handler := func(ctx context.Context, req *sdk.CallToolRequest, args interface{}) (*sdk.CallToolResult, interface{}, error) {
		return ts.invoke(ctx, name, args)
	}

	sdk.AddTool(ts.server, &sdk.Tool{
		Name:        name,
		Description: descriptor.Description,
		InputSchema: schema,
	}, handler)

	logSurface.Printf("registered outer tool: %s", name)
	return nil
}

func translateSchema(raw json.RawMessage) (*sdkjsonschema.Schema, error) {
	normalized := toolapi.NormalizeSchema(raw)
	var schema sdkjsonschema.Schema
	if err := json.Unmarshal(normalized, &schema); err != nil {
		return nil, fmt.Errorf("broker: failed to translate parameter schema: %w", err)
	}
	return &schema, nil
}

type invokeResult struct {
	Result   interface{} `json:"result"`
	Advisory string      `json:"advisory,omitempty"`
}

// invoke is the outer-framework call handler shape (spec §4.10 "Invoke"):
// marshal arguments to JSON, ensureConnection(), issue invoke_tool, unwrap
// the response, and — for reload-triggering tools — wait for the settle
// delay and report the host's post-reload reachability.
func (ts *ToolSurface) invoke(ctx context.Context, name string, args interface{}) (*sdk.CallToolResult, interface{}, error) {
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return &sdk.CallToolResult{IsError: true}, nil, fmt.Errorf("broker: failed to marshal arguments: %w", err)
	}

	conn, err := ts.controller.EnsureConnection(ctx, false)
	if err != nil {
		return &sdk.CallToolResult{IsError: true}, nil, err
	}

	params, _ := json.Marshal(wire.InvokeToolParams{Tool: name, Arguments: string(argsJSON)})
	resp, err := conn.Send(ctx, wire.CmdInvokeTool, string(params), ts.cfg.RequestTimeout)
	if err != nil {
		return &sdk.CallToolResult{IsError: true}, nil, err
	}
	if !resp.Ok {
		return &sdk.CallToolResult{IsError: true}, nil, errors.New(resp.Error)
	}

	payload := parseOrPassthrough(resp.Data)

	if !ts.cfg.IsReloadTrigger(name) {
		return nil, payload, nil
	}

	advisory := ts.awaitReload(ctx)
	return nil, invokeResult{Result: payload, Advisory: advisory}, nil
}

// awaitReload implements spec §4.10's reload-triggering settle delay: pause
// briefly, then drive the reconnect controller with expectingReload=true
// and translate its outcome into the two advisory strings spec §4.10 names.
func (ts *ToolSurface) awaitReload(ctx context.Context) string {
	select {
	case <-time.After(ts.cfg.ReloadSettleDelay):
	case <-ctx.Done():
		return "host may still be reloading"
	}

	reloadCtx, cancel := context.WithTimeout(ctx, ts.cfg.ReconnectBudget)
	defer cancel()

	conn, err := ts.controller.EnsureConnection(reloadCtx, true)
	if err != nil {
		logSurface.Printf("reload wait failed: %v", err)
		return "host may still be reloading"
	}
	if err := ts.Sync(reloadCtx, conn); err != nil {
		logSurface.Printf("post-reload resync failed: %v", err)
		return "host may still be reloading"
	}
	return "host reloaded and ready"
}

func parseOrPassthrough(data string) interface{} {
	var parsed interface{}
	if err := json.Unmarshal([]byte(data), &parsed); err != nil {
		return data
	}
	return parsed
}
