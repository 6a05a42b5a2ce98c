package logx

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Abraxas-365/portal/pkg/errx"
)

// Fields is a map of structured data
type Fields map[string]interface{}

// LogEntry represents a single log line
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Timestamp time.Time
	Caller    string
}

// Formatter turns an entry into bytes
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

const (
	colorReset   = "\033[0m"
	colorRed     = "\033[31m"
	colorGray    = "\033[90m"
	colorCyan    = "\033[36m"
	colorBoldRed = "\033[1;31m"
	colorYellow  = "\033[1;33m"
	colorGreen   = "\033[1;32m"
	colorBlue    = "\033[1;36m"
)

// ConsoleFormatter writes "time [LEVEL] message k=v" lines
type ConsoleFormatter struct {
	config *Config
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

func (f *ConsoleFormatter) paint(color, s string) string {
	if !f.config.EnableColors {
		return s
	}
	return color + s + colorReset
}

// Format formats a log entry for console output
func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	b.WriteString(f.paint(colorGray, entry.Timestamp.Format(f.config.TimeFormat)))
	b.WriteString(" ")
	b.WriteString(f.paint(levelColor(entry.Level), fmt.Sprintf("[%-5s]", entry.Level.String())))
	b.WriteString(" ")

	if entry.Caller != "" {
		b.WriteString(f.paint(colorGray, "["+entry.Caller+"]"))
		b.WriteString(" ")
	}

	b.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			if k == "error" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		if len(pairs) > 0 {
			b.WriteString(" ")
			b.WriteString(f.paint(colorCyan, strings.Join(pairs, " ")))
		}
	}

	if entry.Error != nil {
		b.WriteString("\n")
		b.WriteString(f.paint(colorRed, "  ╰─→ error: "+entry.Error.Error()))
		if code, typ, ok := errorCode(entry.Error); ok {
			b.WriteString(f.paint(colorGray, fmt.Sprintf(" (%s %s)", typ, code)))
		}
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

func levelColor(level Level) string {
	switch level {
	case LevelTrace:
		return colorGray
	case LevelDebug:
		return colorBlue
	case LevelInfo:
		return colorGreen
	case LevelWarn:
		return colorYellow
	default:
		return colorBoldRed
	}
}

// JSONFormatter writes one JSON object per entry
type JSONFormatter struct {
	config *Config
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	data := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		data[k] = v
	}

	data["level"] = entry.Level.String()
	data["message"] = entry.Message
	data["timestamp"] = entry.Timestamp.Format(time.RFC3339Nano)

	if entry.Caller != "" {
		data["caller"] = entry.Caller
	}
	if entry.Error != nil {
		data["error"] = entry.Error.Error()
		if code, typ, ok := errorCode(entry.Error); ok {
			data["error_code"] = code
			data["error_type"] = typ
		}
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// errorCode extracts the registry code and type of the outermost errx.Error
func errorCode(err error) (string, string, bool) {
	var e *errx.Error
	if !errors.As(err, &e) {
		return "", "", false
	}
	return e.Code, string(e.Type), true
}
