// Package discovery implements the handoff file the agent writes so the
// broker can find it (spec §3 "Discovery record", §4.8, §6).
package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

var logDiscovery = logger.New("discovery:record")

// FileName is the basename of the discovery record under the project's
// Library directory (spec §6: "<project>/Library/MCPInstance.json").
const FileName = "MCPInstance.json"

// LibraryDir is the well-known subdirectory name that also marks a project
// root for upward directory search (spec §4.8).
const LibraryDir = "Library"

// Record is the JSON document persisted at Path(projectRoot) (spec §3, §6).
type Record struct {
	Port        int    `json:"port"`
	PID         int    `json:"pid"`
	ProjectPath string `json:"projectPath"`
}

// Path returns the discovery file path for a given project root.
func Path(projectRoot string) string {
	return filepath.Join(projectRoot, LibraryDir, FileName)
}

// Write creates (or overwrites, on reload) the discovery record. Ownership:
// only the agent calls this, on successful listen.
func Write(projectRoot string, rec Record) error {
	dir := filepath.Join(projectRoot, LibraryDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode discovery record: %w", err)
	}

	path := Path(projectRoot)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logDiscovery.Printf("wrote discovery record: path=%s port=%d pid=%d", path, rec.Port, rec.PID)
	return nil
}

// Delete removes the discovery record. Called on clean agent shutdown. A
// missing file is not an error — shutdown may race a concurrent reader.
func Delete(projectRoot string) error {
	path := Path(projectRoot)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	logDiscovery.Printf("deleted discovery record: path=%s", path)
	return nil
}

// Read loads and validates the discovery record for projectRoot. Reads
// tolerate transient absence during reload by returning a plain "not
// exist" error the caller can distinguish with os.IsNotExist.
func Read(projectRoot string) (*Record, error) {
	path := Path(projectRoot)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("discovery record at %s is not valid JSON: %w", path, err)
	}

	if rec.Port <= 0 {
		return nil, fmt.Errorf("discovery record at %s has invalid port %d", path, rec.Port)
	}
	if rec.PID <= 0 {
		return nil, fmt.Errorf("discovery record at %s has invalid pid %d", path, rec.PID)
	}

	return &rec, nil
}
