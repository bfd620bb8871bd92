// conf/validate.go settings validation
package conf

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// ValidateSettings checks the loaded settings for obvious misconfiguration
// and fills in values that must never be empty.
func ValidateSettings(settings *Settings) error {
	switch settings.Database.Type {
	case "sqlite", "mysql":
	default:
		return errors.Newf("unsupported database type: %q", settings.Database.Type).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("database_type", settings.Database.Type).
			Build()
	}

	if settings.Database.Type == "sqlite" && settings.Database.SQLite.Path == "" {
		return errors.Newf("sqlite database path cannot be empty").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if settings.Rating.WindowDays <= 0 {
		return errors.Newf("rating window must be positive, got %d days", settings.Rating.WindowDays).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("window_days", settings.Rating.WindowDays).
			Build()
	}

	if settings.Notify.LookbackDays < 0 {
		return errors.Newf("notify lookback cannot be negative, got %d days", settings.Notify.LookbackDays).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("lookback_days", settings.Notify.LookbackDays).
			Build()
	}

	if settings.Notify.RetentionDays <= 0 {
		settings.Notify.RetentionDays = 90
	}

	if settings.Import.BatchSize <= 0 {
		settings.Import.BatchSize = 5000
	}

	// Sessions need a stable secret; generate one per process if unset.
	if settings.Session.Secret == "" {
		settings.Session.Secret = GenerateRandomSecret()
	}

	return nil
}

// GenerateRandomSecret returns a base64 encoded random secret suitable
// for cookie signing.
func GenerateRandomSecret() string {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		// crypto/rand failing means the host is in serious trouble,
		// but a dead session secret is better than a panic here.
		return "dinewatch-insecure-fallback-secret"
	}
	return base64.StdEncoding.EncodeToString(key)
}
