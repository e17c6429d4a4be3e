package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/charmbracelet/log"
)

// logLevelEnv is consulted when --log-level is not given on the command line.
const logLevelEnv = "GITHUB_STATS_LOG_LEVEL"

var logLevels = []string{"info", "warn", "error", "debug"}

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// resolveLogLevel picks the flag value, or the environment when the flag was left at its default.
func resolveLogLevel(flagValue string, flagChanged bool) (log.Level, error) {
	name := flagValue
	if !flagChanged {
		if env, ok := os.LookupEnv(logLevelEnv); ok && env != "" {
			name = env
		}
	}
	if !slices.Contains(logLevels, name) {
		return 0, fmt.Errorf("invalid log level %q: must be one of %v", name, logLevels)
	}
	return log.ParseLevel(name)
}
