package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const (
	envPrefix             = "WEDDING"
	defaultHTTPAddress    = "0.0.0.0:5000"
	defaultDatabasePath   = "wedding.db"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
	defaultUploadsDir     = "uploads"
	defaultUploadMaxFiles = 10
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress        string
	DatabasePath       string
	LogLevel           string
	LogFormat          string
	UploadsDir         string
	UploadMaxFiles     int
	CORSAllowedOrigins []string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("log.format", defaultLogFormat)
	configViper.SetDefault("uploads.dir", defaultUploadsDir)
	configViper.SetDefault("uploads.max_files", defaultUploadMaxFiles)
	configViper.SetDefault("cors.allowed_origins", []string{"*"})
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:        strings.TrimSpace(configViper.GetString("http.address")),
		DatabasePath:       strings.TrimSpace(configViper.GetString("database.path")),
		LogLevel:           configViper.GetString("log.level"),
		LogFormat:          strings.ToLower(strings.TrimSpace(configViper.GetString("log.format"))),
		UploadsDir:         strings.TrimSpace(configViper.GetString("uploads.dir")),
		UploadMaxFiles:     configViper.GetInt("uploads.max_files"),
		CORSAllowedOrigins: splitOrigins(configViper.GetStringSlice("cors.allowed_origins")),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	var errs error
	if c.HTTPAddress == "" {
		errs = multierr.Append(errs, fmt.Errorf("http.address is required"))
	}
	if c.DatabasePath == "" {
		errs = multierr.Append(errs, fmt.Errorf("database.path is required"))
	}
	if c.UploadsDir == "" {
		errs = multierr.Append(errs, fmt.Errorf("uploads.dir is required"))
	}
	if c.UploadMaxFiles < 1 {
		errs = multierr.Append(errs, fmt.Errorf("uploads.max_files must be at least 1, got %d", c.UploadMaxFiles))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = multierr.Append(errs, fmt.Errorf("log.format must be json or console, got %q", c.LogFormat))
	}
	if len(c.CORSAllowedOrigins) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("cors.allowed_origins must list at least one origin"))
	}
	return errs
}

// splitOrigins accepts both list values and a comma separated env string.
func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, origin := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	return origins
}
