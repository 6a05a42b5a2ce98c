package logx

import (
	"io"
	"os"
	"strings"
	"time"
)

// Format represents the output format
type Format string

const (
	// FormatConsole outputs human readable, optionally colored lines
	FormatConsole Format = "console"
	// FormatJSON outputs one JSON object per line
	FormatJSON Format = "json"
)

// Config holds the logger configuration
type Config struct {
	Level        Level
	Format       Format
	EnableColors bool
	EnableCaller bool
	TimeFormat   string
	Output       io.Writer
	// Static is stamped on every line, e.g. service and deployment
	Static Fields
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Level:        LevelInfo,
		Format:       FormatConsole,
		EnableColors: true,
		TimeFormat:   time.RFC3339,
		Output:       os.Stdout,
	}
}

// LoadFromEnv loads configuration from LOG_LEVEL, LOG_FORMAT, LOG_COLOR,
// LOG_CALLER and the deployment name in PROJECT_ID
func LoadFromEnv() *Config {
	config := DefaultConfig()
	config.Static = Fields{"service": "portal"}
	if project := os.Getenv("PROJECT_ID"); project != "" {
		config.Static["project"] = project
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level)
	}
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		config.Format = FormatJSON
	}
	if color := os.Getenv("LOG_COLOR"); color != "" {
		config.EnableColors = isTrue(color)
	}
	if caller := os.Getenv("LOG_CALLER"); caller != "" {
		config.EnableCaller = isTrue(caller)
	}

	return config
}

func isTrue(v string) bool {
	return strings.EqualFold(v, "true") || v == "1"
}
