package logx

import (
	"context"
	"fmt"
)

var defaultLogger = NewLogger(LoadFromEnv())

// SetDefaultLogger replaces the package level logger
func SetDefaultLogger(logger *Logger) {
	defaultLogger = logger
}

func Debug(msg string) { defaultLogger.log(LevelDebug, msg, nil, nil) }
func Info(msg string)  { defaultLogger.log(LevelInfo, msg, nil, nil) }
func Warn(msg string)  { defaultLogger.log(LevelWarn, msg, nil, nil) }
func Error(msg string) { defaultLogger.log(LevelError, msg, nil, nil) }

func Debugf(format string, args ...interface{}) {
	defaultLogger.log(LevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

func Infof(format string, args ...interface{}) {
	defaultLogger.log(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

func Warnf(format string, args ...interface{}) {
	defaultLogger.log(LevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

func Errorf(format string, args ...interface{}) {
	defaultLogger.log(LevelError, fmt.Sprintf(format, args...), nil, nil)
}

// Fatalf logs a formatted fatal message and exits
func Fatalf(format string, args ...interface{}) {
	defaultLogger.log(LevelFatal, fmt.Sprintf(format, args...), nil, nil)
	defaultLogger.exitFunc(1)
}

// WithFields creates an entry on the default logger
func WithFields(fields Fields) *Entry {
	return defaultLogger.WithFields(fields)
}

// WithField creates an entry on the default logger
func WithField(key string, value interface{}) *Entry {
	return defaultLogger.WithField(key, value)
}

// WithError creates an entry on the default logger
func WithError(err error) *Entry {
	return defaultLogger.WithError(err)
}

// WithContext creates an entry carrying the fields stored in ctx
func WithContext(ctx context.Context) *Entry {
	return newEntry(defaultLogger).WithContext(ctx)
}
