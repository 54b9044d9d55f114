// Package testhost provides an in-process harness that drives a real
// internal/agent.Server alongside a simulated host main-loop ticker, for
// end-to-end tests spanning internal/agent, internal/broker, and
// internal/waker together. Grounded on the teacher's
// internal/testutil/mcptest.Server, which wraps a real *sdk.Server the
// same way this wraps a real *agent.Server: construct it, start it, expose
// the pieces a test driver needs, tear it down on Stop.
package testhost

import (
	"context"
	"sync"
	"time"

	"github.com/hostbridge/ide-agent-bridge/internal/agent"
	"github.com/hostbridge/ide-agent-bridge/internal/agenttools"
	"github.com/hostbridge/ide-agent-bridge/internal/registry"
	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
	"github.com/hostbridge/ide-agent-bridge/internal/waker"
)

// Options configures a Host.
type Options struct {
	ProjectRoot    string
	ProjectName    string
	HostVersion    string
	ExtraFactories []func() (toolapi.Tool, error)
	Controller     waker.WindowController
	TickInterval   time.Duration
}

// Host wraps a real agent.Server plus a goroutine that calls DrainOnce on
// a fixed interval, standing in for the host's real main-loop tick.
type Host struct {
	opts     Options
	Registry *registry.Registry
	Waker    *waker.Waker
	Server   *agent.Server

	stopTick chan struct{}
	tickDone chan struct{}

	mu      sync.Mutex
	ticking bool
}

// New builds, binds, and starts serving a Host. The caller must call
// StartTicking to begin simulating the host main loop, and Stop to tear
// everything down.
func New(opts Options) (*Host, error) {
	if opts.ProjectName == "" {
		opts.ProjectName = "test-project"
	}
	if opts.HostVersion == "" {
		opts.HostVersion = "test-host"
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = 10 * time.Millisecond
	}

	reg := registry.New()
	factories := agenttools.Factories(opts.ProjectName, opts.ProjectRoot, opts.HostVersion)
	factories = append(factories, opts.ExtraFactories...)
	reg.Discover(factories)

	w := waker.New(opts.Controller)
	w.Initialize()

	srv := agent.New(agent.Config{
		ProjectRoot: opts.ProjectRoot,
		HostVersion: opts.HostVersion,
		ProjectName: opts.ProjectName,
		Registry:    reg,
		Waker:       w,
	})

	if err := srv.Listen(); err != nil {
		return nil, err
	}
	if err := srv.PublishDiscovery(); err != nil {
		return nil, err
	}
	go func() { _ = srv.Serve() }()

	return &Host{
		opts:     opts,
		Registry: reg,
		Waker:    w,
		Server:   srv,
	}, nil
}

// Port returns the agent's bound TCP port.
func (h *Host) Port() int {
	return h.Server.Port()
}

// StartTicking starts the simulated main-loop goroutine, calling
// Server.DrainOnce every TickInterval until StopTicking or Stop.
func (h *Host) StartTicking() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ticking {
		return
	}
	h.ticking = true
	h.stopTick = make(chan struct{})
	h.tickDone = make(chan struct{})

	go func() {
		defer close(h.tickDone)
		ticker := time.NewTicker(h.opts.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stopTick:
				return
			case <-ticker.C:
				h.Server.DrainOnce(context.Background())
			}
		}
	}()
}

// StopTicking halts the simulated main-loop goroutine. Safe to call even
// if StartTicking was never called.
func (h *Host) StopTicking() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.ticking {
		return
	}
	close(h.stopTick)
	<-h.tickDone
	h.ticking = false
}

// Stop halts ticking (if running) and shuts down the underlying server.
func (h *Host) Stop() error {
	h.StopTicking()
	return h.Server.Shutdown()
}

// Reload simulates a host reload (spec §9 glossary: "a host-initiated
// teardown-and-recreate of all in-host code, including the agent, keeping
// the same process id"): shuts down the current server, rebuilds the
// registry and a fresh server bound to a new port, and republishes
// discovery. The Host's Registry/Server fields are updated in place.
func (h *Host) Reload() error {
	h.StopTicking()
	if err := h.Server.Shutdown(); err != nil {
		return err
	}

	reg := registry.New()
	factories := agenttools.Factories(h.opts.ProjectName, h.opts.ProjectRoot, h.opts.HostVersion)
	factories = append(factories, h.opts.ExtraFactories...)
	reg.Discover(factories)

	srv := agent.New(agent.Config{
		ProjectRoot: h.opts.ProjectRoot,
		HostVersion: h.opts.HostVersion,
		ProjectName: h.opts.ProjectName,
		Registry:    reg,
		Waker:       h.Waker,
	})
	if err := srv.Listen(); err != nil {
		return err
	}
	if err := srv.PublishDiscovery(); err != nil {
		return err
	}
	go func() { _ = srv.Serve() }()

	h.Registry = reg
	h.Server = srv
	return nil
}
