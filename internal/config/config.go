// Package config loads pdf-bw settings from defaults, a .env file,
// PDFBW_* environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/spherical/pdf-bw/internal/domain"
	"github.com/spherical/pdf-bw/internal/observability"
)

// EnvPrefix is the prefix of every environment variable read by pdf-bw.
const EnvPrefix = "PDFBW"

// Keys shared between viper and the CLI flags.
const (
	KeyThreshold = "threshold"
	KeyOutput    = "output"
	KeyTempDir   = "temp-dir"
	KeyReport    = "report"
	KeyLogLevel  = "log-level"
	KeyLogFormat = "log-format"
	KeyVerbose   = "verbose"
	KeyNoColor   = "no-color"
)

// Config holds all configuration for one pdf-bw invocation.
type Config struct {
	Threshold int
	Output    string // destination of the archive
	TempDir   string // parent of the run workspace, empty for the OS default
	Report    string // optional YAML report path
	LogLevel  string
	LogFormat string // console or json
	Verbose   bool
	NoColor   bool
}

// New returns a viper instance with defaults set and environment lookup
// enabled.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyThreshold, domain.DefaultThreshold)
	v.SetDefault(KeyOutput, domain.ArchiveName)
	v.SetDefault(KeyTempDir, "")
	v.SetDefault(KeyReport, "")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyNoColor, false)
	return v
}

// LoadDotEnv loads .env files from the working directory and its parent,
// if present. Variables already set in the environment win.
func LoadDotEnv() {
	_ = godotenv.Load()
	_ = godotenv.Load("../.env")
}

// Load reads a Config out of v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Threshold: v.GetInt(KeyThreshold),
		Output:    v.GetString(KeyOutput),
		TempDir:   v.GetString(KeyTempDir),
		Report:    v.GetString(KeyReport),
		LogLevel:  strings.ToLower(v.GetString(KeyLogLevel)),
		LogFormat: strings.ToLower(v.GetString(KeyLogFormat)),
		Verbose:   v.GetBool(KeyVerbose),
		NoColor:   v.GetBool(KeyNoColor),
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Threshold < domain.MinThreshold || c.Threshold > domain.MaxThreshold {
		return domain.ConfigError(fmt.Sprintf("threshold must be between %d and %d, got %d",
			domain.MinThreshold, domain.MaxThreshold, c.Threshold), nil)
	}
	if strings.TrimSpace(c.Output) == "" {
		return domain.ConfigError("output path is required", nil)
	}
	if !observability.ValidLevel(c.LogLevel) {
		return domain.ConfigError(fmt.Sprintf("unknown log level %q", c.LogLevel), nil)
	}
	if c.LogFormat != "console" && c.LogFormat != "json" {
		return domain.ConfigError(fmt.Sprintf("log format must be console or json, got %q", c.LogFormat), nil)
	}
	return nil
}

// LogConfig returns the logger settings implied by c.
func (c *Config) LogConfig() observability.LogConfig {
	return observability.LogConfig{
		Level:       c.LogLevel,
		Format:      c.LogFormat,
		ServiceName: "pdf-bw",
	}
}
