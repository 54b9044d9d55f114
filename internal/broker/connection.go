// Package broker implements the external subprocess side of the bridge:
// a TCP client to the in-host agent, a reconnect state machine, and a
// dynamic tool surface exposed over the MCP SDK's stdio JSON-RPC front.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

var logConn = logger.New("broker:connection")

// pendingEntry is one in-flight request awaiting its matching response
// (spec §4.7 "Send").
type pendingEntry struct {
	resultCh chan *wire.Response
}

// Connection is a single TCP client connection to the agent. It owns a
// background receive loop that dispatches responses to waiters by id; all
// public methods are safe to call from the broker's single-threaded event
// loop, which is the only caller in practice (spec §5 "the broker is
// single-threaded cooperative with an event loop").
type Connection struct {
	conn   net.Conn
	reader *wire.Reader
	writer *wire.Writer

	pendingMu sync.Mutex
	pending   map[string]*pendingEntry

	closeOnce sync.Once
	closed    chan struct{}
}

// Dial opens a TCP connection to addr and pings it, failing if the ping
// does not succeed within pingTimeout (spec §4.7 "Open").
func Dial(ctx context.Context, addr string, pingTimeout time.Duration) (*Connection, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("broker: failed to dial %s: %w", addr, err)
	}

	c := &Connection{
		conn:    conn,
		reader:  wire.NewReader(conn),
		writer:  wire.NewWriter(conn),
		pending: make(map[string]*pendingEntry),
		closed:  make(chan struct{}),
	}
	go c.receiveLoop()

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if _, err := c.Send(pingCtx, wire.CmdPing, "", pingTimeout); err != nil {
		c.Close()
		return nil, fmt.Errorf("broker: ping failed after dial: %w", err)
	}

	logConn.Printf("connected to %s", addr)
	return c, nil
}

// Send generates a fresh globally-unique request id, writes the envelope,
// and waits up to timeout for the matching response (spec §4.7 "Send").
func (c *Connection) Send(ctx context.Context, cmd, params string, timeout time.Duration) (*wire.Response, error) {
	id := uuid.NewString()
	entry := &pendingEntry{resultCh: make(chan *wire.Response, 1)}

	c.pendingMu.Lock()
	c.pending[id] = entry
	c.pendingMu.Unlock()

	cleanup := func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}

	req := &wire.Request{ID: id, Cmd: cmd, Params: params}
	payload, _ := json.Marshal(req)
	logger.LogRPCRequest(logger.RPCDirectionOutbound, "agent", cmd, payload)

	if err := c.writer.WriteRequest(req); err != nil {
		cleanup()
		return nil, fmt.Errorf("broker: failed to write request %s: %w", cmd, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-entry.resultCh:
		return resp, nil
	case <-timer.C:
		cleanup()
		return nil, fmt.Errorf("broker: request %s (id=%s) timed out after %s", cmd, id, timeout)
	case <-ctx.Done():
		cleanup()
		return nil, ctx.Err()
	case <-c.closed:
		cleanup()
		return nil, fmt.Errorf("broker: connection closed while awaiting %s", cmd)
	}
}

// receiveLoop is the per-connection line reader (spec §4.7 "Receive"): it
// parses each line into a response envelope and dispatches it to the
// waiter registered under that id. A response with no matching waiter
// (arrived after its timeout) is logged and discarded.
func (c *Connection) receiveLoop() {
	for {
		resp, err := c.reader.ReadResponse()
		if err != nil {
			logConn.Printf("receive loop ended: %v", err)
			c.Close()
			return
		}

		payload, _ := json.Marshal(resp)
		logger.LogRPCResponse(logger.RPCDirectionInbound, "agent", payload, nil)

		c.pendingMu.Lock()
		entry, ok := c.pending[resp.ID]
		if ok {
			delete(c.pending, resp.ID)
		}
		c.pendingMu.Unlock()

		if !ok {
			logConn.Printf("discarding response with no waiter: id=%s", resp.ID)
			continue
		}
		entry.resultCh <- resp
	}
}

// Close cancels all pending entries with a connection-closed failure and
// drops the socket (spec §4.7 "Close"). Safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()

		c.pendingMu.Lock()
		defer c.pendingMu.Unlock()
		for id := range c.pending {
			delete(c.pending, id)
		}
	})
}
