package logger

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

var (
	levels  = []string{"trace", "debug", "info", "warn", "error", "disabled"}
	formats = []string{"json", "console"}
)

// Config is the logging section of the SDK configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults fills empty fields: info level, JSON to stderr, timestamps on.
func (c *Config) ApplyDefaults() {
	c.Level = orDefault(c.Level, "info")
	c.Format = orDefault(c.Format, "json")
	c.Output = orDefault(c.Output, "stderr")
	c.Timestamp = true
}

// Validate rejects unknown levels and formats.
func (c *Config) Validate() error {
	if !slices.Contains(levels, c.Level) {
		return fmt.Errorf("logging.level must be one of %v (got: %s)", levels, c.Level)
	}
	if !slices.Contains(formats, c.Format) {
		return fmt.Errorf("logging.format must be one of %v (got: %s)", formats, c.Format)
	}
	return nil
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
