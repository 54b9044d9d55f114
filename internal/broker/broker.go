package broker

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hostbridge/ide-agent-bridge/internal/brokercfg"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

var logBroker = logger.New("broker:broker")

// Broker wires the reconnect controller, the dynamic tool surface, and the
// MCP SDK's stdio transport together into the runnable external subprocess
// described in spec §6 ("the broker is launched by its parent agent
// framework with stdio").
type Broker struct {
	cfg        brokercfg.Config
	server     *sdk.Server
	surface    *ToolSurface
	controller *Controller
}

// New constructs a Broker bound to projectOverride (the optional
// "--project <path>" switch; empty means discover from the working
// directory).
func New(cfg brokercfg.Config, projectOverride string) *Broker {
	server := sdk.NewServer(&sdk.Implementation{
		Name:    "ide-agent-bridge",
		Version: "1.0.0",
	}, nil)

	surface := NewToolSurface(server, cfg)
	locator := &DiscoveryLocator{ProjectOverride: projectOverride}
	controller := NewController(cfg, locator, surface.Sync)
	surface.SetController(controller)

	return &Broker{cfg: cfg, server: server, surface: surface, controller: controller}
}

// Run connects to the agent, resyncs the tool surface, and then serves the
// outer stdio transport until it closes or ctx is cancelled.
func (b *Broker) Run(ctx context.Context) error {
	if _, err := b.controller.EnsureConnection(ctx, false); err != nil {
		return fmt.Errorf("broker: initial connection failed: %w", err)
	}

	logBroker.Printf("serving stdio transport")
	defer b.controller.Close()
	return b.server.Run(ctx, &sdk.StdioTransport{})
}
