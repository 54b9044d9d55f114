package logger

import (
	"encoding/json"
	"fmt"
	"strings"
)

// formatRPCMessage formats an RPC message for logging
func formatRPCMessage(info *RPCMessageInfo) string {
	// Short format: server→method (or server←resp) size payload
	var dir string
	if info.Direction == RPCDirectionOutbound {
		dir = "→"
	} else {
		dir = "←"
	}

	var parts []string

	// Server and direction
	if info.ServerID != "" {
		if info.Method != "" {
			parts = append(parts, fmt.Sprintf("%s%s%s", info.ServerID, dir, info.Method))
		} else {
			parts = append(parts, fmt.Sprintf("%s%sresp", info.ServerID, dir))
		}
	}

	// Size
	parts = append(parts, fmt.Sprintf("%db", info.PayloadSize))

	// Error (if present)
	if info.Error != "" {
		parts = append(parts, fmt.Sprintf("err:%s", info.Error))
	}

	// Payload preview (if present)
	if info.Payload != "" {
		parts = append(parts, info.Payload)
	}

	return strings.Join(parts, " ")
}

// formatJSONWithoutFields formats JSON by removing specified fields and compacting to single line
// Returns the formatted string, a boolean indicating if the JSON was valid, and a boolean indicating if empty
func formatJSONWithoutFields(jsonStr string, fieldsToRemove []string) (string, bool, bool) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(jsonStr), &data); err != nil {
		// If not valid JSON, return as-is with false
		return jsonStr, false, false
	}

	// Remove specified fields
	for _, field := range fieldsToRemove {
		delete(data, field)
	}

	// Check if only "params": null remains (or equivalent empty state)
	isEmpty := isEffectivelyEmpty(data)

	// Re-marshal as compact single line
	formatted, err := json.Marshal(data)
	if err != nil {
		return jsonStr, false, false
	}

	return string(formatted), true, isEmpty
}

// formatRPCMessageMarkdown formats an RPC message for markdown logging
func formatRPCMessageMarkdown(info *RPCMessageInfo) string {
	// Concise format: **server**→method \n```json \n{formatted json} \n```
	var dir string
	if info.Direction == RPCDirectionOutbound {
		dir = "→"
	} else {
		dir = "←"
	}

	var message string

	// Server, direction, and method/type
	if info.ServerID != "" {
		if info.Method != "" {
			message = fmt.Sprintf("**%s**%s`%s`", info.ServerID, dir, info.Method)

			// For tools/call, extract and display the tool name
			if info.Method == "tools/call" && info.Payload != "" {
				var data map[string]interface{}
				if err := json.Unmarshal([]byte(info.Payload), &data); err == nil {
					if params, ok := data["params"].(map[string]interface{}); ok {
						if toolName, ok := params["name"].(string); ok && toolName != "" {
							message += fmt.Sprintf(" `%s`", toolName)
						}
					}
				}
			}
		} else {
			message = fmt.Sprintf("**%s**%s`resp`", info.ServerID, dir)
		}
	}

	// Add formatted payload in code block
	if info.Payload != "" {
		// Remove jsonrpc and method fields, then format
		formatted, isValidJSON, isEmpty := formatJSONWithoutFields(info.Payload, []string{"jsonrpc", "method"})
		if isValidJSON {
			// Don't show JSON block if it's effectively empty (only params: null)
			if !isEmpty {
				// Valid JSON: use json code block for syntax highlighting (compact single line)
				// Empty line before code block per markdown convention
				// Code fences on their own lines with compact JSON content
				message += fmt.Sprintf("\n\n```json\n%s\n```", formatted)
			}
		} else {
			// Invalid JSON: use inline backticks to avoid malformed markdown
			message += fmt.Sprintf(" `%s`", formatted)
		}
	}

	// Error (if present)
	if info.Error != "" {
		message += fmt.Sprintf(" ⚠️`%s`", info.Error)
	}

	return message
}
