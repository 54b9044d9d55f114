// Package agent implements the in-host TCP listener described in spec
// §4.3: a dual-lane request pipeline where background-safe commands
// execute inline on a reader goroutine and main-thread-lane commands are
// queued for the host's own tick loop to drain.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hostbridge/ide-agent-bridge/internal/discovery"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/registry"
	"github.com/hostbridge/ide-agent-bridge/internal/waker"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

var logServer = logger.New("agent:server")

// Config carries the fixed, per-session values the server needs but does
// not own: the project it is serving, the values it reports in ping, and
// the tool registry it dispatches against.
type Config struct {
	ProjectRoot string
	HostVersion string
	ProjectName string
	Registry    *registry.Registry
	Waker       *waker.Waker
}

// Server is the agent's TCP listener and dispatcher. One Server exists per
// host process; it is reconstructed (registry re-discovered, discovery
// record rewritten) on every host reload.
type Server struct {
	projectRoot string
	hostVersion string
	projectName string
	registry    *registry.Registry
	waker       *waker.Waker
	queue       *mainThreadQueue

	listener net.Listener

	connsMu  sync.Mutex
	conns    map[uint64]net.Conn
	nextConn uint64

	shuttingDown atomic.Bool
}

// New constructs a Server. Call Listen to bind and Serve to start
// accepting connections.
func New(cfg Config) *Server {
	w := cfg.Waker
	if w == nil {
		w = waker.New(nil)
	}
	return &Server{
		projectRoot: cfg.ProjectRoot,
		hostVersion: cfg.HostVersion,
		projectName: cfg.ProjectName,
		registry:    cfg.Registry,
		waker:       w,
		queue:       newMainThreadQueue(),
		conns:       make(map[uint64]net.Conn),
	}
}

// Listen binds to the loopback interface on a dynamic port (spec §4.3
// "Listen"). It does not start accepting connections; call Serve for that.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("agent: failed to bind loopback listener: %w", err)
	}
	s.listener = ln
	logServer.Printf("listening on %s", ln.Addr().String())
	return nil
}

// Port returns the bound TCP port. Valid only after a successful Listen.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// PublishDiscovery freezes the registry and writes the discovery record so
// the broker can find this agent (spec §3 "Discovery record", §4.8).
func (s *Server) PublishDiscovery() error {
	s.registry.Freeze()
	return discovery.Write(s.projectRoot, discovery.Record{
		Port:        s.Port(),
		PID:         pid(),
		ProjectPath: s.projectRoot,
	})
}

// Serve runs the accept loop: one long-running goroutine polls for
// incoming connections, handing each accepted client to its own background
// reader goroutine (spec §4.3 "Accept loop"). Serve blocks until the
// listener is closed by Shutdown.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shuttingDown.Load() {
				return nil
			}
			return fmt.Errorf("agent: accept failed: %w", err)
		}
		connID := atomic.AddUint64(&s.nextConn, 1)
		s.trackConn(connID, conn)
		go s.serveConn(connID, conn)
	}
}

func (s *Server) trackConn(connID uint64, conn net.Conn) {
	s.connsMu.Lock()
	s.conns[connID] = conn
	s.connsMu.Unlock()
}

func (s *Server) untrackConn(connID uint64) {
	s.connsMu.Lock()
	delete(s.conns, connID)
	s.connsMu.Unlock()
}

// serveConn is the per-connection reader loop (spec §4.3 "Per-connection
// reader"). It owns the connection's write lock via a single *wire.Writer
// shared between this goroutine (background-lane responses) and the drain
// (main-thread-lane responses for requests this connection enqueued).
func (s *Server) serveConn(connID uint64, conn net.Conn) {
	defer s.untrackConn(connID)
	defer conn.Close()

	reader := wire.NewReader(conn)
	writer := wire.NewWriter(conn)

	logServer.Printf("conn=%d accepted from %s", connID, conn.RemoteAddr())

	for {
		req, err := reader.ReadRequest()
		if err != nil {
			if err != io.EOF {
				logServer.Printf("conn=%d read error: %v", connID, err)
			}
			return
		}

		payload, _ := wireMarshal(req)
		logger.LogRPCRequest(logger.RPCDirectionInbound, fmt.Sprintf("conn-%d", connID), req.Cmd, payload)

		if req.ID == "" {
			req.ID = "unknown"
		}
		s.handleEnvelope(connID, writer, req)
	}
}

// DrainOnce removes every currently queued main-thread-lane request and
// executes each synchronously on the calling goroutine, which the host is
// responsible for making its actual main thread (spec §4.3 "Main-thread
// drain"). Returns the number of requests drained. After draining at least
// one request, re-minimization is scheduled if this subsystem woke the
// window.
func (s *Server) DrainOnce(ctx context.Context) int {
	drained := s.queue.DrainAll()
	for _, call := range drained {
		resp := s.execute(ctx, call.request.req)
		s.writeResponse(call.connID, call.writer, resp)
	}
	if len(drained) > 0 && s.waker.ShouldRestore() {
		s.waker.RestoreMinimizedState()
	}
	return len(drained)
}

// Shutdown closes the listener, closes every accepted stream, drains any
// remaining main-thread requests with a shutdown error, and deletes the
// discovery record (spec §4.3 "Shutdown").
func (s *Server) Shutdown() error {
	s.shuttingDown.Store(true)

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.connsMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.connsMu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}

	for _, call := range s.queue.DrainAll() {
		resp := wire.Fail(call.request.req.ID, wire.ErrClassLifecycle, "agent is shutting down")
		s.writeResponse(call.connID, call.writer, &resp)
	}

	if err := discovery.Delete(s.projectRoot); err != nil {
		return fmt.Errorf("agent: failed to delete discovery record: %w", err)
	}
	logServer.Printf("shutdown complete")
	return nil
}

func wireMarshal(req *wire.Request) ([]byte, error) {
	return json.Marshal(req)
}

func pid() int {
	return os.Getpid()
}
