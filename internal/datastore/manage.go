package datastore

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. Bulk CSV import batches can legitimately take several
// hundred milliseconds, so the threshold sits above that.
const DefaultSlowQueryThreshold = 1 * time.Second

// createGormLogger configures and returns a new GORM logger instance that
// feeds the datastore's slog logger.
func createGormLogger() gormlogger.Interface {
	return gormlogger.New(&slogWriter{logger: GetLogger()}, gormlogger.Config{
		SlowThreshold:             DefaultSlowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// slogWriter adapts slog to gorm's logger.Writer interface.
type slogWriter struct {
	logger *slog.Logger
}

func (w *slogWriter) Printf(format string, args ...any) {
	w.logger.Info("gorm", "message", fmt.Sprintf(format, args...))
}

// performAutoMigration runs GORM auto-migration for all models and wraps
// failures with database context.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(
		&Inspection{},
		&Review{},
		&Favorite{},
		&Follow{},
		&Notification{},
	); err != nil {
		return errors.New(err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("db_type", dbType).
			Context("operation", "auto_migration").
			Build()
	}

	if debug {
		GetLogger().Debug("database initialized",
			"db_type", dbType,
			"connection", connectionInfo)
	}

	return nil
}
