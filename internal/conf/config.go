// Package conf loads and provides access to application settings.
package conf

import (
	"fmt"
	"sync"

	"github.com/spf13/viper"

	"github.com/dinewatch/dinewatch-go/internal/errors"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled    bool   // true to enable this log
	Path       string // path to log file
	MaxSize    int    // maximum size in megabytes before rotation
	MaxBackups int    // maximum number of old log files to keep
	MaxAge     int    // maximum number of days to retain old log files
}

// Settings contains all runtime application settings
type Settings struct {
	Debug bool // true to enable debug mode

	// Runtime values, not stored in config file
	Version string `yaml:"-"` // Version from build

	Main struct {
		Name string    // name of this dinewatch node
		Log  LogConfig // default log file configuration
	}

	Database struct {
		Type string // "sqlite" or "mysql"

		SQLite struct {
			Path string // path to sqlite database file
		}

		MySQL struct {
			Username string
			Password string
			Database string
			Host     string
			Port     string
		}
	}

	WebServer struct {
		Enabled bool   // true to enable the web server
		Port    string // port for the web server
		Debug   bool   // true to enable request logging
	}

	Session struct {
		Secret string // cookie signing secret for anonymous sessions
	}

	Rating struct {
		WindowDays   int // inspection lookback window for full ratings
		CacheTTL     int // fast rating cache TTL in seconds
		CacheCleanup int // fast rating cache cleanup interval in seconds
	}

	Notify struct {
		LookbackDays  int // default sweep lookback window in days
		RetentionDays int // delete notifications older than this many days

		Push struct {
			Enabled bool     // true to forward critical notifications
			URLs    []string // shoutrrr service URLs
		}
	}

	Import struct {
		BatchSize int // rows per bulk insert during CSV import
	}
}

var (
	settingsInstance *Settings
	settingsOnce     sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(err).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Context("operation", "unmarshal_settings").
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// initViper sets up the viper configuration sources.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/dinewatch")
	viper.AddConfigPath("/etc/dinewatch")

	viper.SetEnvPrefix("dinewatch")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults and environment apply.
	}

	return nil
}

// Setting returns the current settings instance, loading defaults if
// Load has not been called yet.
func Setting() *Settings {
	settingsOnce.Do(func() {
		settingsMutex.RLock()
		loaded := settingsInstance != nil
		settingsMutex.RUnlock()
		if !loaded {
			if _, err := Load(); err != nil {
				panic(fmt.Sprintf("error loading settings: %v", err))
			}
		}
	})
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
