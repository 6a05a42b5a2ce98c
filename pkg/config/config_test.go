package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abraxas-365/portal/pkg/errx"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	t.Setenv("EVENTS_RETRY_DELAY", "")
	t.Setenv("EVENTS_RETENTION", "")
	t.Setenv("IDENTITY_CALL_TIMEOUT", "")
	t.Setenv("RECONCILE_ENABLED", "")
	t.Setenv("EVENTS_VISIBILITY_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Environment.ProjectID)
	assert.False(t, cfg.Environment.IsTest())
	assert.Equal(t, 30*time.Second, cfg.Events.RetryDelay)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address())
	assert.Equal(t, 24*time.Hour, cfg.Events.Retention)
	assert.Equal(t, 5*time.Second, cfg.Identity.CallTimeout)
	assert.True(t, cfg.Reconcile.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Events.VisibilityTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PROJECT_ID", "test")
	t.Setenv("VERIFICATION_TIMEOUT", "3s")
	t.Setenv("EVENTS_CONCURRENCY", "9")
	t.Setenv("RECONCILE_ENABLED", "false")
	t.Setenv("NOTIFX_SES_CONFIGURATION_SET", "portal-mail")

	cfg := Load()

	assert.True(t, cfg.Environment.IsTest())
	assert.Equal(t, 3*time.Second, cfg.Verification.Timeout)
	assert.Equal(t, 9, cfg.Events.Concurrency)
	assert.False(t, cfg.Reconcile.Enabled)
	assert.Equal(t, "portal-mail", cfg.Notifx.ConfigurationSet)
}

func TestValidate_ReportsMissingKeys(t *testing.T) {
	cfg := &Config{Notifx: NotifxConfig{Provider: "ses"}, Storage: StorageConfig{Mode: "s3"}}

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errx.IsType(err, errx.TypeInvalidArgument))

	var e *errx.Error
	require.True(t, errx.As(err, &e))
	keys := e.Details["keys"].(string)
	for _, k := range []string{"JWT_SECRET", "DATABASE_URL", "VERIFICATION_SERVER_URL", "VERIFICATION_SERVER_KEY", "NOTIFX_FROM_ADDRESS", "AWS_BUCKET"} {
		assert.Contains(t, keys, k)
	}
}
