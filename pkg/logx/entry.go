package logx

import (
	"context"
	"fmt"
)

type ctxFieldsKey struct{}

// ContextWithFields returns a context carrying fields that WithContext picks up
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	merged := Fields{}
	if existing, ok := ctx.Value(ctxFieldsKey{}).(Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, ctxFieldsKey{}, merged)
}

// Entry accumulates fields for a single log line. With* methods return a
// copy so a shared entry can be specialised safely.
type Entry struct {
	logger *Logger
	fields Fields
	err    error
}

func newEntry(logger *Logger) *Entry {
	return &Entry{logger: logger, fields: Fields{}}
}

func (e *Entry) clone() *Entry {
	fields := make(Fields, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	return &Entry{logger: e.logger, fields: fields, err: e.err}
}

// WithField adds a field to the entry
func (e *Entry) WithField(key string, value interface{}) *Entry {
	c := e.clone()
	c.fields[key] = value
	return c
}

// WithFields adds multiple fields to the entry
func (e *Entry) WithFields(fields Fields) *Entry {
	c := e.clone()
	for k, v := range fields {
		c.fields[k] = v
	}
	return c
}

// WithError attaches an error
func (e *Entry) WithError(err error) *Entry {
	c := e.clone()
	c.err = err
	return c
}

// WithContext copies fields stored by ContextWithFields
func (e *Entry) WithContext(ctx context.Context) *Entry {
	if ctx == nil {
		return e
	}
	fields, ok := ctx.Value(ctxFieldsKey{}).(Fields)
	if !ok {
		return e
	}
	return e.WithFields(fields)
}

func (e *Entry) Trace(msg string) { e.logger.log(LevelTrace, msg, e.fields, e.err) }
func (e *Entry) Debug(msg string) { e.logger.log(LevelDebug, msg, e.fields, e.err) }
func (e *Entry) Info(msg string)  { e.logger.log(LevelInfo, msg, e.fields, e.err) }
func (e *Entry) Warn(msg string)  { e.logger.log(LevelWarn, msg, e.fields, e.err) }
func (e *Entry) Error(msg string) { e.logger.log(LevelError, msg, e.fields, e.err) }

// Fatal logs at fatal level and exits
func (e *Entry) Fatal(msg string) {
	e.logger.log(LevelFatal, msg, e.fields, e.err)
	e.logger.exitFunc(1)
}

func (e *Entry) Debugf(format string, args ...interface{}) {
	e.Debug(fmt.Sprintf(format, args...))
}

func (e *Entry) Infof(format string, args ...interface{}) {
	e.Info(fmt.Sprintf(format, args...))
}

func (e *Entry) Warnf(format string, args ...interface{}) {
	e.Warn(fmt.Sprintf(format, args...))
}

func (e *Entry) Errorf(format string, args ...interface{}) {
	e.Error(fmt.Sprintf(format, args...))
}
