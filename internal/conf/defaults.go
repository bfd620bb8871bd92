// conf/defaults.go default values for settings
package conf

import (
	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "DineWatch")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/dinewatch.log")
	viper.SetDefault("main.log.maxsize", 100)
	viper.SetDefault("main.log.maxbackups", 3)
	viper.SetDefault("main.log.maxage", 28)

	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.sqlite.path", "dinewatch.db")
	viper.SetDefault("database.mysql.username", "dinewatch")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "dinewatch")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")

	viper.SetDefault("webserver.enabled", true)
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.debug", false)

	viper.SetDefault("session.secret", "")

	viper.SetDefault("rating.windowdays", 1095)
	viper.SetDefault("rating.cachettl", 300)
	viper.SetDefault("rating.cachecleanup", 600)

	viper.SetDefault("notify.lookbackdays", 1)
	viper.SetDefault("notify.retentiondays", 90)
	viper.SetDefault("notify.push.enabled", false)
	viper.SetDefault("notify.push.urls", []string{})

	viper.SetDefault("import.batchsize", 5000)
}
