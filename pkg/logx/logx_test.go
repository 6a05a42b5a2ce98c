package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Abraxas-365/portal/pkg/errx"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(level Level) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Format = FormatJSON
	cfg.Output = &buf
	return NewLogger(cfg), &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" WARNING "))
	assert.Equal(t, LevelOff, ParseLevel("off"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLevelFiltering(t *testing.T) {
	logger, buf := newJSONLogger(LevelWarn)

	logger.WithField("email", "a@b.org").Info("profile read")
	logger.WithField("email", "a@b.org").Warn("identity delete failed")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "WARN", lines[0]["level"])
	assert.Equal(t, "a@b.org", lines[0]["email"])
}

func TestErrorCodesAreLogged(t *testing.T) {
	logger, buf := newJSONLogger(LevelInfo)
	reg := errx.NewRegistry("PROFILE")
	code := reg.Register("MALFORMED", errx.TypeMalformed, "Profile document is not properly formatted")

	logger.WithError(reg.New(code)).Error("rejecting identity")
	logger.WithError(errors.New("plain")).Error("plain failure")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "PROFILE_MALFORMED", lines[0]["error_code"])
	assert.Equal(t, "MALFORMED", lines[0]["error_type"])
	assert.NotContains(t, lines[1], "error_code")
}

func TestContextFieldsMerge(t *testing.T) {
	logger, buf := newJSONLogger(LevelInfo)

	ctx := ContextWithFields(context.Background(), Fields{"event_id": "ev-1", "key": "a@b.org"})
	ctx = ContextWithFields(ctx, Fields{"attempt": 2})

	newEntry(logger).WithContext(ctx).WithField("trigger", "identity.created").Info("handled")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "ev-1", lines[0]["event_id"])
	assert.Equal(t, "a@b.org", lines[0]["key"])
	assert.Equal(t, float64(2), lines[0]["attempt"])
	assert.Equal(t, "identity.created", lines[0]["trigger"])
}

func TestEntriesDoNotShareFields(t *testing.T) {
	logger, buf := newJSONLogger(LevelInfo)

	base := logger.WithField("trigger", "profile.updated")
	base.WithField("email", "one@b.org").Info("first")
	base.Info("second")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[1], "email")
}

func TestConsoleFormatterWithoutColors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableColors = false
	f := NewConsoleFormatter(cfg)

	out, err := f.Format(&LogEntry{
		Level:   LevelError,
		Message: "cascade delete",
		Fields:  Fields{"b": 2, "a": 1},
		Error:   errx.NotFound("gone"),
	})
	require.NoError(t, err)

	line := string(out)
	assert.Contains(t, line, "[ERROR] cascade delete a=1 b=2")
	assert.Contains(t, line, "error: [NOT_FOUND] gone")
	assert.Contains(t, line, "(NOT_FOUND NOT_FOUND)")
	assert.NotContains(t, line, "\033[")
}

func TestFiberRequestFields(t *testing.T) {
	logger, buf := newJSONLogger(LevelInfo)

	app := fiber.New()
	app.Use(FiberRequestFields())
	app.Get("/users", func(c *fiber.Ctx) error {
		newEntry(logger).WithContext(c.UserContext()).Info("handled")
		return c.SendStatus(fiber.StatusNoContent)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/users", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "req-42", lines[0]["request_id"])
	assert.Equal(t, "/users", lines[0]["path"])
}

func TestStaticFieldsStampEveryLine(t *testing.T) {
	t.Setenv("PROJECT_ID", "staging")
	t.Setenv("LOG_LEVEL", "info")
	var buf bytes.Buffer
	cfg := LoadFromEnv()
	cfg.Format = FormatJSON
	cfg.Output = &buf
	logger := NewLogger(cfg)

	logger.WithField("service", "override").Info("first")
	logger.WithField("email", "a@b.org").Info("second")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "override", lines[0]["service"])
	assert.Equal(t, "portal", lines[1]["service"])
	assert.Equal(t, "staging", lines[1]["project"])
}
