// Package agenttools ships a pair of always-available tools so the agent's
// registry and dispatch path has something concrete to exercise end to
// end, in the same spirit as the teacher's sys package (two trivial
// tools shipped next to the dispatcher rather than a real backend call).
package agenttools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
	"github.com/hostbridge/ide-agent-bridge/internal/toolapi"
)

var logTools = logger.New("agenttools:project_info")

// ProjectInfoTool reports static facts about the host project. It is
// background-safe: it only reads values captured at construction time.
type ProjectInfoTool struct {
	projectName string
	projectRoot string
	hostVersion string
}

// NewProjectInfoTool constructs the project_info tool.
func NewProjectInfoTool(projectName, projectRoot, hostVersion string) *ProjectInfoTool {
	return &ProjectInfoTool{projectName: projectName, projectRoot: projectRoot, hostVersion: hostVersion}
}

func (t *ProjectInfoTool) Name() string { return "project_info" }

func (t *ProjectInfoTool) Describe() toolapi.Descriptor {
	return toolapi.Descriptor{
		Name:               t.Name(),
		Description:        "Return the name, root path, and host version of the currently open project.",
		RequiresMainThread: false,
		ParameterSchema:    json.RawMessage(`{"type":"object","properties":{}}`),
	}
}

type projectInfoResult struct {
	ProjectName string `json:"projectName"`
	ProjectRoot string `json:"projectRoot"`
	HostVersion string `json:"hostVersion"`
}

func (t *ProjectInfoTool) Invoke(ctx context.Context, argumentsJSON string) (interface{}, error) {
	logTools.Printf("invoked")
	return projectInfoResult{
		ProjectName: t.projectName,
		ProjectRoot: t.projectRoot,
		HostVersion: t.hostVersion,
	}, nil
}

// EchoTool reflects its single argument back, useful for exercising
// argument-schema validation without any host side effects.
type EchoTool struct{}

// NewEchoTool constructs the echo tool.
func NewEchoTool() *EchoTool { return &EchoTool{} }

func (t *EchoTool) Name() string { return "echo" }

func (t *EchoTool) Describe() toolapi.Descriptor {
	return toolapi.Descriptor{
		Name:               t.Name(),
		Description:        "Echo the provided message back unchanged.",
		RequiresMainThread: false,
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"message": {"type": "string", "description": "text to echo back"}
			},
			"required": ["message"]
		}`),
	}
}

type echoArgs struct {
	Message string `json:"message"`
}

type echoResult struct {
	Message string `json:"message"`
}

func (t *EchoTool) Invoke(ctx context.Context, argumentsJSON string) (interface{}, error) {
	var args echoArgs
	if err := json.Unmarshal([]byte(argumentsJSON), &args); err != nil {
		return nil, fmt.Errorf("echo: invalid arguments: %w", err)
	}
	return echoResult{Message: args.Message}, nil
}
