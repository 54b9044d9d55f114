package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/hostbridge/ide-agent-bridge/internal/logger"
)

var (
	logsFile string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect the bridge's wire-trace log",
}

var logsQueryCmd = &cobra.Command{
	Use:   "query <jq filter>",
	Short: "Run a jq filter over the JSONL wire-trace log, one result per matching line",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogsQuery,
}

func init() {
	logsQueryCmd.Flags().StringVar(&logsFile, "file", "", "Path to the wire-trace JSONL file (default: <log-dir>/"+wireTraceFileName+")")
	logsCmd.AddCommand(logsQueryCmd)
}

// runLogsQuery applies a jq filter to every line of the wire-trace log,
// printing each non-null result as its own JSON value. It follows the same
// gojq.Parse/query.Run shape the teacher used to infer response schemas,
// but here the filter is user-supplied rather than a fixed schema walk.
func runLogsQuery(cmd *cobra.Command, args []string) error {
	filterSrc := args[0]

	query, err := gojq.Parse(filterSrc)
	if err != nil {
		return fmt.Errorf("failed to parse jq filter: %w", err)
	}

	path := logsFile
	if path == "" {
		path = wireTraceLogPath(logDirOverride)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open wire-trace log %s: %w", path, err)
	}
	defer file.Close()

	return queryJSONLLines(file, query, cmd.OutOrStdout())
}

func queryJSONLLines(r io.Reader, query *gojq.Query, out io.Writer) error {
	logQuery := logger.New("cmd:logs")
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	encoder := json.NewEncoder(out)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry interface{}
		if err := json.Unmarshal(line, &entry); err != nil {
			logQuery.Printf("skipping malformed line %d: %v", lineNo, err)
			continue
		}

		iter := query.Run(entry)
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, ok := v.(error); ok {
				logQuery.Printf("jq error on line %d: %v", lineNo, err)
				continue
			}
			if v == nil {
				continue
			}
			if err := encoder.Encode(v); err != nil {
				return fmt.Errorf("failed to encode query result: %w", err)
			}
		}
	}
	return scanner.Err()
}
