package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/StinkyLord/sbomkit/internal/licenses"
)

// FileName is the config file looked up in the working directory and $HOME.
const FileName = ".sbomkit"

// EnvPrefix prefixes environment overrides, e.g. SBOMKIT_DIFF_WORKERS.
const EnvPrefix = "SBOMKIT"

// Config represents the complete sbomkit configuration
type Config struct {
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Convert  ConvertConfig  `yaml:"convert" mapstructure:"convert"`
	Diff     DiffConfig     `yaml:"diff" mapstructure:"diff"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Licenses LicensesConfig `yaml:"licenses" mapstructure:"licenses"`
}

// OutputConfig controls how reports are rendered
type OutputConfig struct {
	Report string `yaml:"report" mapstructure:"report"` // text, json or yaml
	Color  string `yaml:"color" mapstructure:"color"`   // auto, always or never
}

// ConvertConfig contains conversion defaults
type ConvertConfig struct {
	Format string `yaml:"format" mapstructure:"format"` // wire format used when --format is not given
}

// DiffConfig contains N-way diff settings
type DiffConfig struct {
	Workers        int  `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
	FailOnConflict bool `yaml:"failOnConflict" mapstructure:"failOnConflict"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// LicensesConfig points at an SPDX license-list JSON file replacing the
// built-in table.
type LicensesConfig struct {
	File string `yaml:"file" mapstructure:"file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Report: "text",
			Color:  "auto",
		},
		Convert: ConvertConfig{
			Format: "json",
		},
		Diff: DiffConfig{
			Workers:        0,
			FailOnConflict: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from path, or when path is empty from
// .sbomkit.yaml in the working directory or $HOME. A missing default file
// is not an error; environment variables apply either way.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("output.report", defaults.Output.Report)
	v.SetDefault("output.color", defaults.Output.Color)
	v.SetDefault("convert.format", defaults.Convert.Format)
	v.SetDefault("diff.workers", defaults.Diff.Workers)
	v.SetDefault("diff.failOnConflict", defaults.Diff.FailOnConflict)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("licenses.file", defaults.Licenses.File)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !oneOf(c.Output.Report, "text", "json", "yaml") {
		return &ConfigError{Field: "output.report", Message: fmt.Sprintf("unknown report format %q", c.Output.Report)}
	}
	if !oneOf(c.Output.Color, "auto", "always", "never") {
		return &ConfigError{Field: "output.color", Message: fmt.Sprintf("unknown color mode %q", c.Output.Color)}
	}
	if !oneOf(c.Convert.Format, "json", "xml", "tag-value") {
		return &ConfigError{Field: "convert.format", Message: fmt.Sprintf("unknown format %q", c.Convert.Format)}
	}
	if c.Diff.Workers < 0 {
		return &ConfigError{Field: "diff.workers", Message: "must not be negative"}
	}
	if _, err := zerolog.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: err.Error()}
	}
	return nil
}

// LicenseTable returns the configured license table: the file named by
// licenses.file, or the built-in table.
func (c *Config) LicenseTable() (*licenses.Table, error) {
	if c.Licenses.File == "" {
		return licenses.Default(), nil
	}
	f, err := os.Open(c.Licenses.File)
	if err != nil {
		return nil, &ConfigError{Field: "licenses.file", Message: err.Error()}
	}
	defer f.Close()
	table, err := licenses.Load(f)
	if err != nil {
		return nil, &ConfigError{Field: "licenses.file", Message: err.Error()}
	}
	return table, nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
