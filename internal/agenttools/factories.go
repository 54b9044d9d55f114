package agenttools

import "github.com/hostbridge/ide-agent-bridge/internal/toolapi"

// Factories returns the discovery factories for every built-in tool this
// package ships, in the shape internal/registry.Discover expects.
func Factories(projectName, projectRoot, hostVersion string) []func() (toolapi.Tool, error) {
	return []func() (toolapi.Tool, error){
		func() (toolapi.Tool, error) {
			return NewProjectInfoTool(projectName, projectRoot, hostVersion), nil
		},
		func() (toolapi.Tool, error) {
			return NewEchoTool(), nil
		},
	}
}
