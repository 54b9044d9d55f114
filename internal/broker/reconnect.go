package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hostbridge/ide-agent-bridge/internal/brokercfg"
	"github.com/hostbridge/ide-agent-bridge/internal/discovery"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

var logReconnect = logger.New("broker:reconnect")

// ErrHostNotRunning is returned when no cached pid is alive and no
// discovery record can be read (spec §4.9 step 5).
var ErrHostNotRunning = errors.New("broker: host not running")

// ErrReconnectTimeout is returned when the wait-for-reload substate
// exhausts its budget (spec §4.9 "timeout" exit state).
var ErrReconnectTimeout = errors.New("broker: reconnect timed out waiting for host to become ready")

// Controller implements the ensureConnection() state machine (spec §4.9).
// It is not safe for concurrent use from multiple goroutines at once,
// matching the broker's single-threaded event-loop model (spec §5); a
// mutex is still held around state mutation to make that assumption
// explicit and cheap to relax later.
type Controller struct {
	cfg     brokercfg.Config
	locator *DiscoveryLocator

	// onConnected is invoked after every successful (re)connection, before
	// EnsureConnection returns, to resync the dynamic tool surface
	// (spec §4.10 "Sync"). It is injected rather than imported directly so
	// this package stays free of any dependency on the MCP SDK.
	onConnected func(ctx context.Context, conn *Connection) error

	mu         sync.Mutex
	conn       *Connection
	cachedPID  int
	lastPort   int
	hasCached  bool
}

// NewController constructs a reconnect controller. onConnected may be nil
// (tests commonly pass nil and assert on the returned connection directly).
func NewController(cfg brokercfg.Config, locator *DiscoveryLocator, onConnected func(ctx context.Context, conn *Connection) error) *Controller {
	return &Controller{cfg: cfg, locator: locator, onConnected: onConnected}
}

// EnsureConnection runs the state machine described in spec §4.9.
// expectingReload is true when the caller has just issued a command known
// to trigger a host reload (spec §4.10); it changes the wait-for-reload
// substate's acceptance criteria.
func (c *Controller) EnsureConnection(ctx context.Context, expectingReload bool) (*Connection, error) {
	c.mu.Lock()
	current := c.conn
	c.mu.Unlock()

	// Step 1: a current connection exists and a bounded ping succeeds.
	if current != nil {
		pingCtx, cancel := context.WithTimeout(ctx, c.cfg.PingTimeout)
		_, err := current.Send(pingCtx, wire.CmdPing, "", c.cfg.PingTimeout)
		cancel()
		if err == nil {
			return current, nil
		}
		logReconnect.Printf("existing connection ping failed: %v", err)
	}

	// Step 2: drop the current connection.
	c.dropConnection()

	// Step 3: read the discovery record and try a fresh connection.
	rec, recErr := c.locator.Read()
	if recErr == nil {
		conn, err := c.connectAndAdopt(ctx, rec)
		if err == nil {
			return conn, nil
		}
		logReconnect.Printf("fresh connect failed: %v", err)
	} else {
		logReconnect.Printf("discovery read failed: %v", recErr)
	}

	// Step 4: consult the cached pid.
	c.mu.Lock()
	cachedPID, hasCached, lastPort := c.cachedPID, c.hasCached, c.lastPort
	c.mu.Unlock()

	if hasCached && discovery.IsAlive(cachedPID) {
		return c.waitForReload(ctx, expectingReload, lastPort)
	}

	// Step 5: no cached pid, or it is dead.
	return nil, ErrHostNotRunning
}

// waitForReload implements spec §4.9's wait-for-reload substate: poll with
// exponential backoff starting at cfg.ReconnectPollMin, capped at
// cfg.ReconnectPollMax, for up to cfg.ReconnectBudget.
func (c *Controller) waitForReload(ctx context.Context, expectingReload bool, lastKnownPort int) (*Connection, error) {
	deadline := time.Now().Add(c.cfg.ReconnectBudget)
	backoff := c.cfg.ReconnectPollMin
	observedChange := !expectingReload

	for {
		if time.Now().After(deadline) {
			return nil, ErrReconnectTimeout
		}

		rec, err := c.locator.Read()
		if err != nil {
			logReconnect.Printf("wait-for-reload: discovery not ready yet: %v", err)
		} else {
			if expectingReload && !observedChange {
				if rec.Port == lastKnownPort {
					logReconnect.Printf("wait-for-reload: observed stale pre-reload port %d, continuing to wait", rec.Port)
				} else {
					observedChange = true
				}
			}

			if !expectingReload || observedChange {
				conn, connErr := c.connectAndAdopt(ctx, rec)
				if connErr == nil {
					return conn, nil
				}
				logReconnect.Printf("wait-for-reload: connect attempt failed: %v", connErr)
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > c.cfg.ReconnectPollMax {
			backoff = c.cfg.ReconnectPollMax
		}
	}
}

func (c *Controller) connectAndAdopt(ctx context.Context, rec *discovery.Record) (*Connection, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", rec.Port)
	conn, err := Dial(ctx, addr, c.cfg.PingTimeout)
	if err != nil {
		return nil, err
	}

	if c.onConnected != nil {
		if err := c.onConnected(ctx, conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("broker: tool resync failed after connect: %w", err)
		}
	}

	c.mu.Lock()
	c.conn = conn
	c.cachedPID = rec.PID
	c.lastPort = rec.Port
	c.hasCached = true
	c.mu.Unlock()

	logReconnect.Printf("connected to agent at %s (pid=%d)", addr, rec.PID)
	return conn, nil
}

func (c *Controller) dropConnection() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// Close tears down the controller's current connection, if any.
func (c *Controller) Close() {
	c.dropConnection()
}
