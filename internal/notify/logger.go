// Package notify logging setup, per-package rotating file logger.
package notify

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dinewatch/dinewatch-go/internal/logging"
)

var (
	notifyLogger   *slog.Logger
	notifyLevelVar = new(slog.LevelVar)
	loggerClose    func() error
	loggerOnce     sync.Once
	loggerMu       sync.RWMutex
)

const defaultLogPath = "logs/notify.log"

// InitializeLogger initializes the notify logger. Safe to call more than
// once; initialization happens only on the first call.
func InitializeLogger(logFilePath string) error {
	var initErr error

	loggerOnce.Do(func() {
		if logFilePath == "" {
			logFilePath = defaultLogPath
		}

		notifyLevelVar.Set(slog.LevelInfo)

		var err error
		loggerMu.Lock()
		defer loggerMu.Unlock()
		notifyLogger, loggerClose, err = logging.NewFileLogger(logFilePath, "notify", notifyLevelVar)
		if err != nil {
			notifyLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
			loggerClose = func() error { return nil }
			initErr = err
		}
	})

	return initErr
}

// GetLogger returns the notify logger, initializing the default one on
// first use.
func GetLogger() *slog.Logger {
	loggerMu.RLock()
	if notifyLogger != nil {
		defer loggerMu.RUnlock()
		return notifyLogger
	}
	loggerMu.RUnlock()

	_ = InitializeLogger("")

	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return notifyLogger
}

// SetLogLevel adjusts the notify log level at runtime.
func SetLogLevel(level slog.Level) {
	notifyLevelVar.Set(level)
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
