package output

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewDebugLogger returns a logger for engine diagnostics. It discards
// everything unless MINDEX_DEBUG is set, in which case it writes to a rotated
// file under the metadata store so debug output never mixes with command
// output.
func NewDebugLogger(gitDir string) *slog.Logger {
	if os.Getenv("MINDEX_DEBUG") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(newLumberjackLogger(gitDir), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newLumberjackLogger creates the rotated log sink with configuration from
// environment variables.
func newLumberjackLogger(gitDir string) *lumberjack.Logger {
	config := &lumberjack.Logger{
		Filename:   filepath.Join(gitDir, "mindex", "debug.log"),
		MaxSize:    1,  // megabytes
		MaxBackups: 2,  // old files kept
		MaxAge:     30, // days
	}

	if maxSizeStr := os.Getenv("MINDEX_LOG_MAX_SIZE"); maxSizeStr != "" {
		if maxSize, err := strconv.Atoi(maxSizeStr); err == nil && maxSize > 0 {
			config.MaxSize = maxSize
		}
	}
	if maxBackupsStr := os.Getenv("MINDEX_LOG_MAX_BACKUPS"); maxBackupsStr != "" {
		if maxBackups, err := strconv.Atoi(maxBackupsStr); err == nil && maxBackups >= 0 {
			config.MaxBackups = maxBackups
		}
	}
	return config
}
