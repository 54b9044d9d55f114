package broker

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostbridge/ide-agent-bridge/internal/agent"
	"github.com/hostbridge/ide-agent-bridge/internal/agenttools"
	"github.com/hostbridge/ide-agent-bridge/internal/registry"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

func startTestAgent(t *testing.T) *agent.Server {
	t.Helper()
	dir := t.TempDir()
	reg := registry.New()
	reg.Discover(agenttools.Factories("test-project", dir, "test-host"))

	s := agent.New(agent.Config{
		ProjectRoot: dir,
		HostVersion: "test-host",
		ProjectName: "test-project",
		Registry:    reg,
	})
	require.NoError(t, s.Listen())
	require.NoError(t, s.PublishDiscovery())
	go func() { _ = s.Serve() }()
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestDial_SucceedsAndPingsOnConnect(t *testing.T) {
	srv := startTestAgent(t)
	addr := "127.0.0.1:" + portString(srv.Port())

	conn, err := Dial(context.Background(), addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()
}

func TestConnection_SendRoundTrip(t *testing.T) {
	srv := startTestAgent(t)
	addr := "127.0.0.1:" + portString(srv.Port())

	conn, err := Dial(context.Background(), addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	resp, err := conn.Send(context.Background(), wire.CmdListTools, "", time.Second)
	require.NoError(t, err)
	assert.True(t, resp.Ok)
}

func TestConnection_CloseFailsPendingWaiters(t *testing.T) {
	srv := startTestAgent(t)
	addr := "127.0.0.1:" + portString(srv.Port())

	conn, err := Dial(context.Background(), addr, time.Second)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, sendErr := conn.Send(context.Background(), wire.CmdPing, "", 5*time.Second)
		done <- sendErr
	}()

	conn.Close()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("expected pending send to fail promptly after Close")
	}
}

func portString(p int) string {
	return strconv.Itoa(p)
}
