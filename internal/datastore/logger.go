// Package datastore logging setup, per-package rotating file logger.
package datastore

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dinewatch/dinewatch-go/internal/logging"
)

var (
	datastoreLogger   *slog.Logger
	datastoreLevelVar = new(slog.LevelVar)
	loggerCloseFunc   func() error
	loggerOnce        sync.Once
	loggerMu          sync.RWMutex
)

// Logs land in the project-wide logs/ directory alongside the other
// component log files.
const defaultLogPath = "logs/datastore.log"

// InitializeLogger initializes the datastore logger. Safe to call more
// than once; initialization happens only on the first call.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		datastoreLevelVar.Set(slog.LevelInfo)

		var err error
		loggerMu.Lock()
		defer loggerMu.Unlock()
		datastoreLogger, loggerCloseFunc, err = logging.NewFileLogger(logFilePath, "datastore", datastoreLevelVar)
		if err != nil {
			// Fall back to a discard logger rather than failing startup.
			datastoreLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
			loggerCloseFunc = func() error { return nil }
			initErr = err
		}
	})

	return initErr
}

// GetLogger returns the datastore logger, initializing the default one on
// first use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if datastoreLogger != nil {
		defer loggerMu.RUnlock()
		return datastoreLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger("")

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return datastoreLogger
}

// SetLogLevel adjusts the datastore log level at runtime.
func SetLogLevel(level slog.Level) {
	datastoreLevelVar.Set(level)
}

// CloseLogger flushes and closes the log file.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerCloseFunc != nil {
		return loggerCloseFunc()
	}
	return nil
}
