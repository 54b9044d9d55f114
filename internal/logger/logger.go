package logger

import (
	"fmt"
	"hash/fnv"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Logger is a namespaced debug logger in the style of the Node "debug"
// package: output is gated by the DEBUG environment variable (comma
// separated glob patterns, "*" wildcard, "-" prefix to exclude) and, when
// enabled, prints to stderr with a per-logger elapsed-time suffix. When a
// global FileLogger has been installed (InitFileLogger), enabled output is
// also mirrored there at debug level, uncolored, so it survives in the
// rotated log file alongside the structured Log* calls.
type Logger struct {
	namespace string

	mu      sync.Mutex
	lastLog time.Time
}

// New returns a logger tagged with namespace (e.g. "agent:dispatch").
func New(namespace string) *Logger {
	return &Logger{namespace: namespace, lastLog: time.Now()}
}

// Enabled reports whether this logger's namespace currently matches the
// DEBUG environment variable. It is recomputed on every call rather than
// cached, so changing DEBUG at runtime (as the test suite does via
// t.Setenv) takes effect immediately.
func (l *Logger) Enabled() bool {
	return computeEnabled(l.namespace)
}

// Printf logs a formatted message if this logger is enabled.
func (l *Logger) Printf(format string, args ...interface{}) {
	if !l.Enabled() {
		return
	}
	l.emit(fmt.Sprintf(format, args...))
}

// Print logs a message, concatenated like fmt.Sprint, if this logger is enabled.
func (l *Logger) Print(args ...interface{}) {
	if !l.Enabled() {
		return
	}
	l.emit(fmt.Sprint(args...))
}

func (l *Logger) emit(message string) {
	l.mu.Lock()
	elapsed := time.Since(l.lastLog)
	l.lastLog = time.Now()
	l.mu.Unlock()

	diff := formatElapsed(elapsed)

	color := selectColor(l.namespace)
	if color != "" {
		fmt.Fprintf(os.Stderr, "\x1b[%sm%s\x1b[0m %s \x1b[%sm+%s\x1b[0m\n", color, l.namespace, message, color, diff)
	} else {
		fmt.Fprintf(os.Stderr, "%s %s +%s\n", l.namespace, message, diff)
	}

	globalLoggerMu.RLock()
	fl := globalFileLogger
	globalLoggerMu.RUnlock()
	if fl != nil {
		fl.Log(LogLevelDebug, l.namespace, "%s", message)
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}

// computeEnabled parses the current DEBUG env var and checks namespace
// against its comma-separated patterns, honoring "-pattern" exclusions.
// Exclusions always win, regardless of where they appear in the list.
func computeEnabled(namespace string) bool {
	debug := os.Getenv("DEBUG")
	if debug == "" {
		return false
	}

	matched := false
	for _, raw := range strings.Split(debug, ",") {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "-") {
			if matchPattern(namespace, pattern[1:]) {
				return false
			}
			continue
		}
		if matchPattern(namespace, pattern) {
			matched = true
		}
	}
	return matched
}

// matchPattern reports whether namespace matches pattern, where "*" in
// pattern matches any run of characters (including across ":" separators).
func matchPattern(namespace, pattern string) bool {
	if pattern == "*" {
		return true
	}
	if !strings.Contains(pattern, "*") {
		return namespace == pattern
	}

	parts := strings.Split(pattern, "*")
	rest := namespace

	if !strings.HasPrefix(rest, parts[0]) {
		return false
	}
	rest = rest[len(parts[0]):]

	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(rest, parts[i])
		if idx < 0 {
			return false
		}
		rest = rest[idx+len(parts[i]):]
	}

	last := parts[len(parts)-1]
	return strings.HasSuffix(rest, last)
}

// colorPalette mirrors the small ANSI foreground-color rotation the "debug"
// package uses to make namespaces visually distinguishable in a terminal.
var colorPalette = []string{"32", "33", "34", "35", "36", "91", "92", "93", "94", "95", "96"}

var (
	debugColors = os.Getenv("DEBUG_COLORS") != "0" && os.Getenv("DEBUG_COLORS") != "false"
	isTTY       = term.IsTerminal(int(os.Stderr.Fd()))
)

// selectColor deterministically picks a palette entry for namespace, or
// returns "" when colors are disabled (DEBUG_COLORS=0/false) or stderr is
// not a terminal.
func selectColor(namespace string) string {
	if !debugColors || !isTTY {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(namespace))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}
