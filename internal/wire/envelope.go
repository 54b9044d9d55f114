// Package wire implements the line-delimited JSON envelope protocol shared
// by the in-host agent and the external broker.
package wire

import "encoding/json"

// Command names understood by the agent side of the wire protocol.
const (
	CmdPing       = "ping"
	CmdListTools  = "list_tools"
	CmdInvokeTool = "invoke_tool"
)

// ErrorClass tags the wire-visible error taxonomy of spec §7. It is carried
// only in logs and in-process error values; the wire Response itself just
// has a string Error field, matching the authoritative format in §6.
type ErrorClass string

const (
	ErrClassProtocol   ErrorClass = "protocol"
	ErrClassNotFound   ErrorClass = "not-found"
	ErrClassInvalidArg ErrorClass = "invalid-arg"
	ErrClassToolFail   ErrorClass = "tool-failure"
	ErrClassTransport  ErrorClass = "transport"
	ErrClassLifecycle  ErrorClass = "lifecycle"
)

// Request is the envelope sent from broker to agent (or, in tests, from any
// client to the agent). Params carries an embedded JSON string rather than a
// nested object, per spec §3 ("the host's JSON facility does not support
// arbitrary nested objects").
type Request struct {
	ID     string `json:"id"`
	Cmd    string `json:"cmd"`
	Params string `json:"params,omitempty"`
}

// Response is the envelope sent from agent back to broker. Exactly one of
// Data/Error is meaningful, selected by Ok.
type Response struct {
	ID    string `json:"id"`
	Ok    bool   `json:"ok"`
	Data  string `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK builds a successful response, marshaling result to the embedded data string.
func OK(id string, result interface{}) Response {
	data, err := json.Marshal(result)
	if err != nil {
		return Fail(id, ErrClassToolFail, "failed to marshal result: "+err.Error())
	}
	return Response{ID: id, Ok: true, Data: string(data)}
}

// Fail builds a failed response. class is informational (logged) and not
// part of the wire format itself, which only ever carries a message string.
func Fail(id string, class ErrorClass, message string) Response {
	return Response{ID: id, Ok: false, Error: message}
}

// PingParams is empty; ping takes no parameters.
type PingParams struct{}

// PingResult is the success payload for the ping command.
type PingResult struct {
	Status      string `json:"status"`
	HostVersion string `json:"hostVersion"`
	ProjectName string `json:"projectName"`
}

// ListToolsResult is the success payload for the list_tools command.
type ListToolsResult struct {
	Version int                    `json:"version"`
	Tools   []ToolDescriptorWire   `json:"tools"`
}

// ToolDescriptorWire mirrors internal/toolapi.ToolDescriptor for the wire
// format, kept separate so the wire package has no dependency on toolapi.
type ToolDescriptorWire struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	RequiresMainThread bool   `json:"requiresMainThread"`
	ParameterSchema    string `json:"parameterSchema"`
}

// InvokeToolParams is the decoded form of invoke_tool's embedded params string.
type InvokeToolParams struct {
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
}
