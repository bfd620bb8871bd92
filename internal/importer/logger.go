// Package importer logging setup, per-package rotating file logger.
package importer

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dinewatch/dinewatch-go/internal/logging"
)

var (
	importLogger   *slog.Logger
	importLevelVar = new(slog.LevelVar)
	loggerClose    func() error
	loggerOnce     sync.Once
	loggerMu       sync.RWMutex
)

const defaultLogPath = "logs/importer.log"

// InitializeLogger initializes the importer logger. Safe to call more than
// once; initialization happens only on the first call.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		importLevelVar.Set(slog.LevelInfo)

		var err error
		loggerMu.Lock()
		defer loggerMu.Unlock()
		importLogger, loggerClose, err = logging.NewFileLogger(logFilePath, "importer", importLevelVar)
		if err != nil {
			importLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
			loggerClose = func() error { return nil }
			initErr = err
		}
	})

	return initErr
}

// GetLogger returns the importer logger, initializing the default one on
// first use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if importLogger != nil {
		defer loggerMu.RUnlock()
		return importLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger("")

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return importLogger
}

// SetLogLevel adjusts the importer log level at runtime.
func SetLogLevel(level slog.Level) {
	importLevelVar.Set(level)
}

// CloseLogger flushes and closes the log file.
func CloseLogger() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if loggerClose != nil {
		return loggerClose()
	}
	return nil
}
