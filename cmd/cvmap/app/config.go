package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/cvmap/internal/cmd/output"
	"github.com/agentstation/cvmap/pkg/archive"
	"github.com/agentstation/cvmap/pkg/builder"
	"github.com/agentstation/cvmap/pkg/constants"
	"github.com/agentstation/cvmap/pkg/errors"
	"github.com/agentstation/cvmap/pkg/save"
)

// envPrefix prefixes every configuration key read from the environment,
// e.g. CVMAP_ARCHIVE_DIR.
const envPrefix = "CVMAP"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Archive configuration
	ArchiveDir     string
	ArchiveBackend string
	ArchiveFormat  string

	// CreateDate pins the batch timestamp of every build.
	CreateDate string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
//  1. Command-line flags (handled by cobra)
//  2. Environment variables (CVMAP_*)
//  3. .env files
//  4. Config file (~/.cvmap.yaml or ./.cvmap.yaml)
//  5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration like LoadConfig but reads the given
// config file instead of searching the standard locations. The file must exist.
func LoadConfigFile(path string) (*Config, error) {
	// .env files are loaded before the environment is bound.
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("archive_dir", defaultArchiveDir())
	v.SetDefault("archive_backend", string(archive.BackendFiles))
	v.SetDefault("archive_format", save.FormatYAML.String())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".cvmap")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "invalid config file", err)
			}
		}
	}

	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no_color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		ArchiveDir:     expandHome(v.GetString("archive_dir")),
		ArchiveBackend: v.GetString("archive_backend"),
		ArchiveFormat:  v.GetString("archive_format"),
		CreateDate:     v.GetString("create_date"),

		// Logging configuration; an empty level defers to -v/-q.
		LogLevel:  os.Getenv("LOG_LEVEL"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// Validate checks the values that commands rely on.
func (c *Config) Validate() error {
	if _, err := archive.ParseBackend(c.ArchiveBackend); err != nil {
		return errors.WrapConfig("config", err)
	}
	if _, err := save.ParseFormat(c.ArchiveFormat); err != nil {
		return errors.WrapConfig("config", err)
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return errors.WrapConfig("config", err)
	}
	if c.CreateDate != "" {
		if _, err := builder.ParseCreateDate(c.CreateDate); err != nil {
			return errors.WrapConfig("config", err)
		}
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are not overridden.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// defaultArchiveDir returns ~/.cvmap/archive, or a relative .cvmap/archive
// when the home directory is unknown.
func defaultArchiveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.FromSlash(constants.DefaultArchiveDirName)
	}
	return filepath.Join(home, filepath.FromSlash(constants.DefaultArchiveDirName))
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
