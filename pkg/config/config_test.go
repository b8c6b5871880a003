package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REMINDER_PENDING_AFTER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, int64(2*1024*1024), cfg.Uploads.MaxImageBytes)
	assert.Equal(t, int64(100*1024*1024), cfg.Uploads.MaxVideoBytes)
	assert.Equal(t, "0 8 * * *", cfg.Reminders.Schedule)
	assert.Equal(t, 24*time.Hour, cfg.Reminders.PendingAfter)
	assert.Equal(t, "notifications", cfg.Notifications.SubjectPrefix)
}

func TestLoadReadsEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("UPLOADS_MAX_DOCUMENT_BYTES", "1024")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "nats://broker:4222", cfg.Notifications.NATSURL)
	assert.Equal(t, int64(1024), cfg.Uploads.MaxDocumentBytes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}
