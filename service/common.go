package service

import (
	"blognest/app/config"
	"blognest/app/logger"

	"github.com/rs/zerolog"
)

// settings is the configuration commands run with. Tests point it at
// temporary directories.
var settings = config.Config{
	DBPath:    "data/badger",
	BackupDir: "data/backups",
	LogLevel:  "info",
}

// Configure replaces the configuration used by subsequent commands.
func Configure(cfg config.Config) {
	settings = cfg
}

func newLogger() zerolog.Logger {
	return logger.New(logger.Options{Level: settings.LogLevel, Pretty: settings.LogPretty})
}
