package app

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/caremap/internal/sources/objectstore"
)

// Config holds the application configuration loaded from config files,
// environment variables and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Pipeline
	Manifest    string
	DatabaseURL string
	ObjectStore objectstore.Config

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// envBindings maps config keys to the environment variables that set them.
var envBindings = map[string]string{
	"manifest":         "CAREMAP_MANIFEST",
	"database_url":     "DATABASE_URL",
	"minio.endpoint":   "MINIO_ENDPOINT",
	"minio.access_key": "MINIO_ACCESS_KEY",
	"minio.secret_key": "MINIO_SECRET_KEY",
	"minio.region":     "MINIO_REGION",
	"minio.use_ssl":    "MINIO_USE_SSL",
	"log.level":        "LOG_LEVEL",
	"log.format":       "LOG_FORMAT",
	"log.output":       "LOG_OUTPUT",
	"output":           "CAREMAP_OUTPUT",
	"verbose":          "CAREMAP_VERBOSE",
	"quiet":            "CAREMAP_QUIET",
	"no_color":         "NO_COLOR",
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables
//  3. .env files
//  4. Config file (~/.caremap.yaml or ./.caremap.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	v.SetDefault("log.format", "auto")
	v.SetDefault("log.output", "stderr")

	explicit := os.Getenv("CAREMAP_CONFIG")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".caremap")
	}

	// A missing config file is fine unless one was named.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color"),
		Format:  v.GetString("output"),

		ConfigFile: v.ConfigFileUsed(),

		Manifest:    v.GetString("manifest"),
		DatabaseURL: v.GetString("database_url"),
		ObjectStore: objectstore.Config{
			Endpoint:  v.GetString("minio.endpoint"),
			AccessKey: v.GetString("minio.access_key"),
			SecretKey: v.GetString("minio.secret_key"),
			Region:    v.GetString("minio.region"),
			UseSSL:    v.GetBool("minio.use_ssl"),
		},

		LogLevel:  v.GetString("log.level"),
		LogFormat: v.GetString("log.format"),
		LogOutput: v.GetString("log.output"),
	}, nil
}

// UpdateFromFlags updates config values from parsed command flags.
// It is called after cobra parses flags so flag values win over config
// files and the environment.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	switch {
	case logLevel != "":
		c.LogLevel = logLevel
	case verbose || quiet:
		// -v and -q outrank LOG_LEVEL
		c.LogLevel = ""
	}
}

// loadEnvFiles loads .env files; .env.local overrides .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
