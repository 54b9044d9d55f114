package broker

import (
	"fmt"
	"os"

	"github.com/hostbridge/ide-agent-bridge/internal/discovery"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

var logDiscovery = logger.New("broker:discovery")

// DiscoveryLocator resolves the project root and reads its discovery
// record (spec §4.8). It is a thin, mockable wrapper over
// internal/discovery so reconnect.go's tests can substitute a fake without
// touching the filesystem.
type DiscoveryLocator struct {
	// ProjectOverride, when non-empty, is used directly instead of walking
	// upward from the process's working directory. This is the broker's
	// only command-line switch (spec §6 "--project <path>").
	ProjectOverride string
}

// ProjectRoot resolves the project root: the override if set, otherwise a
// walk upward from the current working directory.
func (l *DiscoveryLocator) ProjectRoot() (string, error) {
	if l.ProjectOverride != "" {
		return l.ProjectOverride, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("broker: failed to get working directory: %w", err)
	}
	return discovery.FindProjectRoot(cwd)
}

// Read resolves the project root and reads its discovery record, applying
// the liveness check: a record whose pid is no longer running is treated
// as stale and reported as absent via discovery's own not-exist semantics
// widened to a generic error (spec §4.8 "Liveness check").
func (l *DiscoveryLocator) Read() (*discovery.Record, error) {
	root, err := l.ProjectRoot()
	if err != nil {
		return nil, err
	}
	rec, err := discovery.Read(root)
	if err != nil {
		return nil, err
	}
	if !discovery.IsAlive(rec.PID) {
		logDiscovery.Printf("discovery record pid %d is not alive, treating as stale", rec.PID)
		return nil, fmt.Errorf("broker: discovery record is stale (pid %d not running)", rec.PID)
	}
	return rec, nil
}
