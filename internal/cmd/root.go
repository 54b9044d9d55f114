package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hostbridge/ide-agent-bridge/internal/broker"
	"github.com/hostbridge/ide-agent-bridge/internal/brokercfg"
	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

const (
	defaultLogDir     = "/tmp/ide-agent-bridge/logs"
	wireTraceFileName = "wire-trace.jsonl"
	bridgeLogFileName = "bridge.log"
)

var (
	projectOverride string
	configFile      string
	logDirOverride  string
	debugLog        = logger.New("cmd:root")
	version         = "dev" // Default version, overridden by SetVersion
)

var rootCmd = &cobra.Command{
	Use:     "ide-agent-bridge",
	Short:   "Bridge between an in-editor agent and an external tool broker",
	Version: version,
	Long: `ide-agent-bridge is the external broker half of the agent/broker bridge.
It speaks MCP over stdio to its parent framework on one side and a
line-delimited JSON protocol over a TCP loopback connection to the
in-editor agent on the other, resyncing its tool surface whenever the
agent's tool catalog changes.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVarP(&projectOverride, "project", "p", "", "Project root to discover the agent's listener in (default: walk up from the working directory)")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to an optional TOML tunables file")
	rootCmd.Flags().StringVar(&logDirOverride, "log-dir", "", "Directory for log files (default: "+defaultLogDir+", or $MCP_GATEWAY_LOG_DIR)")

	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(newCompletionCmd())
}

// getDefaultLogDir resolves the log directory absent an explicit --log-dir.
func getDefaultLogDir() string {
	if dir := os.Getenv("MCP_GATEWAY_LOG_DIR"); dir != "" {
		return dir
	}
	return defaultLogDir
}

func run(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := brokercfg.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logDir := logDirOverride
	if logDir == "" {
		logDir = cfg.LogDir
	}
	if logDir == "" {
		logDir = getDefaultLogDir()
	}

	if err := logger.InitFileLogger(logDir, bridgeLogFileName); err != nil {
		debugLog.Printf("failed to init file logger: %v", err)
	}
	if err := logger.InitJSONLLogger(logDir, wireTraceFileName); err != nil {
		debugLog.Printf("failed to init wire-trace logger: %v", err)
	}

	debugLog.Printf("starting bridge: project=%q config=%q log-dir=%s", projectOverride, configFile, logDir)

	b := broker.New(cfg, projectOverride)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		debugLog.Printf("signal received, shutting down")
		cancel()
	}()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("bridge exited: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func wireTraceLogPath(logDir string) string {
	if logDir == "" {
		logDir = getDefaultLogDir()
	}
	return filepath.Join(logDir, wireTraceFileName)
}
