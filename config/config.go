package config

import (
	"github.com/lambda-feedback/studyboard/storage"
	"github.com/lambda-feedback/studyboard/util/conf"
)

type AuthConfig struct {
	// Key is the api key clients must send in the api-key header.
	// Authorization is disabled when empty.
	Key string `conf:"key"`
}

type Config struct {
	// LogLevel is the log level for the application
	LogLevel string `conf:"log_level"`

	// LogFormat is the log format for the application
	LogFormat string `conf:"log_format"`

	// Auth is the api authorization config
	Auth AuthConfig `conf:"auth"`

	// Storage is the study storage config
	Storage storage.Config `conf:"storage"`
}

// DefaultConfig holds the defaults applied before any other source.
var DefaultConfig = conf.MergeDefaults("",
	conf.DefaultConfig{
		"log_level":  "info",
		"log_format": "production",
	},
	conf.MergeDefaults("storage", storage.DefaultConfig),
)
