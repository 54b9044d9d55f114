package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/registry"
	"github.com/hostbridge/ide-agent-bridge/internal/wire"
)

var logDispatch = logger.New("agent:dispatch")

// streamWriter is the subset of *wire.Writer the dispatcher needs to write
// a response back to its originating connection. A narrow interface keeps
// this file testable without a real net.Conn.
type streamWriter interface {
	WriteResponse(resp *wire.Response) error
}

// lane identifies which of the two execution paths a request belongs to
// (spec §4.3 step 3).
type lane int

const (
	laneBackground lane = iota
	laneMainThread
)

// classifyLane determines which lane a request runs on. invoke_tool for an
// unknown tool is deliberately routed to the background lane so its error
// response is immediate (spec §4.3 step 3).
func (s *Server) classifyLane(req *wire.Request) lane {
	if req.Cmd != wire.CmdInvokeTool {
		return laneBackground
	}
	var params wire.InvokeToolParams
	if err := json.Unmarshal([]byte(req.Params), &params); err != nil {
		return laneBackground
	}
	if s.registry.RequiresMainThread(params.Tool) {
		return laneMainThread
	}
	return laneBackground
}

// execute runs req to completion and returns its response envelope. It is
// safe to call from either lane: the background lane calls it inline, the
// drain calls it once per queued item on the main thread.
func (s *Server) execute(ctx context.Context, req *wire.Request) *wire.Response {
	switch req.Cmd {
	case wire.CmdPing:
		resp := wire.OK(req.ID, wire.PingResult{
			Status:      "ok",
			HostVersion: s.hostVersion,
			ProjectName: s.projectName,
		})
		return &resp

	case wire.CmdListTools:
		catalog := s.registry.List()
		wireTools := make([]wire.ToolDescriptorWire, 0, len(catalog.Tools))
		for _, d := range catalog.Tools {
			wireTools = append(wireTools, wire.ToolDescriptorWire{
				Name:               d.Name,
				Description:        d.Description,
				RequiresMainThread: d.RequiresMainThread,
				ParameterSchema:    string(d.ParameterSchema),
			})
		}
		resp := wire.OK(req.ID, wire.ListToolsResult{Version: catalog.Version, Tools: wireTools})
		return &resp

	case wire.CmdInvokeTool:
		return s.executeInvokeTool(ctx, req)

	default:
		resp := wire.Fail(req.ID, wire.ErrClassProtocol, fmt.Sprintf("unknown command %q", req.Cmd))
		return &resp
	}
}

func (s *Server) executeInvokeTool(ctx context.Context, req *wire.Request) *wire.Response {
	var params wire.InvokeToolParams
	if err := json.Unmarshal([]byte(req.Params), &params); err != nil {
		resp := wire.Fail(req.ID, wire.ErrClassProtocol, "invoke_tool: malformed params: "+err.Error())
		return &resp
	}
	if params.Tool == "" {
		resp := wire.Fail(req.ID, wire.ErrClassInvalidArg, "invoke_tool: missing tool parameter")
		return &resp
	}

	result, err := s.registry.Invoke(ctx, params.Tool, params.Arguments)
	if err != nil {
		class := classifyInvokeError(err)
		resp := wire.Fail(req.ID, class, err.Error())
		return &resp
	}

	resp := wire.OK(req.ID, result)
	return &resp
}

func classifyInvokeError(err error) wire.ErrorClass {
	var unknown registry.ErrUnknownTool
	if ok := asUnknownTool(err, &unknown); ok {
		return wire.ErrClassNotFound
	}
	return wire.ErrClassToolFail
}

func asUnknownTool(err error, target *registry.ErrUnknownTool) bool {
	for err != nil {
		if u, ok := err.(registry.ErrUnknownTool); ok {
			*target = u
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// handleEnvelope is the per-connection reader's entry point for one parsed
// request (spec §4.3 steps 2-5). It never blocks the reader: background-lane
// work runs inline here, main-thread-lane work is enqueued and this
// function returns immediately.
func (s *Server) handleEnvelope(connID uint64, writer streamWriter, req *wire.Request) {
	logDispatch.Printf("conn=%d cmd=%s id=%s", connID, req.Cmd, req.ID)

	if !isKnownCommand(req.Cmd) {
		resp := wire.Fail(req.ID, wire.ErrClassProtocol, fmt.Sprintf("unknown command %q", req.Cmd))
		s.writeResponse(connID, writer, &resp)
		return
	}

	if s.classifyLane(req) == laneMainThread {
		s.queue.Enqueue(pendingCall{connID: connID, writer: writer, request: dispatchRequest{req: req}})
		s.waker.WakeIfMinimized()
		return
	}

	resp := s.execute(context.Background(), req)
	s.writeResponse(connID, writer, resp)
}

func isKnownCommand(cmd string) bool {
	switch cmd {
	case wire.CmdPing, wire.CmdListTools, wire.CmdInvokeTool:
		return true
	default:
		return false
	}
}

func (s *Server) writeResponse(connID uint64, writer streamWriter, resp *wire.Response) {
	payload, _ := json.Marshal(resp)
	logger.LogRPCResponse(logger.RPCDirectionOutbound, fmt.Sprintf("conn-%d", connID), payload, nil)
	if err := writer.WriteResponse(resp); err != nil {
		logDispatch.Printf("conn=%d: write response failed: %v", connID, err)
	}
}

// dispatchRequest wraps a parsed wire.Request for the main-thread queue.
// It exists as a separate type (rather than passing *wire.Request
// directly) so the queue's shape matches the teacher's request/response
// correlation envelopes, and to leave room for a deadline field without
// touching the wire package.
type dispatchRequest struct {
	req *wire.Request
}
