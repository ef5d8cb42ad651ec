package common

import (
	"fmt"
	"strings"

	"github.com/flaxkv-go/flaxkv/internal/logging"
)

// ParseLogLevel converts a config string into a logging.Level.
func ParseLogLevel(level string) logging.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logging.LevelDebug
	case "info", "":
		return logging.LevelInfo
	case "warning", "warn":
		return logging.LevelWarning
	case "error":
		return logging.LevelError
	default:
		panic(fmt.Sprintf("invalid log level: %s. must be one of debug, info, warn, error", level))
	}
}

// NewComponentLogger returns a Logger tagged with the RPC component
// name (e.g. "transport/tcp", "server", "client") that produced it.
func NewComponentLogger(component string, level logging.Level) logging.Logger {
	return logging.New(level).With("component", component)
}
