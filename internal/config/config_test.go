package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("data", "usage_log.csv"), cfg.GetDataPath())
	assert.Equal(t, filepath.Join("data", "model.json"), cfg.GetModelPath())
	assert.Equal(t, "csv", cfg.GetStorageBackend())
	assert.Equal(t, "simulated", cfg.GetMeterSource())
	assert.Equal(t, "07:00", cfg.GetScheduleAt())
	assert.Equal(t, 2*time.Minute, cfg.GetScheduleTimeout())
	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.Equal(t, "info", cfg.GetLogLevel())
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data_path: /var/lib/powerpal/usage.csv
storage:
  backend: sqlite
meter:
  source: api
  api_url: https://disco.example.com
  meter_id: from-file
twilio:
  enabled: true
  to: "whatsapp:+2348000000000"
schedule:
  at: "06:30"
  timeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("METER_ID", "from-env")
	t.Setenv("TWILIO_SID", "AC123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/powerpal/usage.csv", cfg.GetDataPath())
	assert.Equal(t, "sqlite", cfg.GetStorageBackend())
	assert.Equal(t, "api", cfg.GetMeterSource())
	assert.Equal(t, "https://disco.example.com", cfg.Meter.APIURL)
	assert.Equal(t, "from-env", cfg.Meter.MeterID)
	assert.True(t, cfg.Twilio.Enabled)
	assert.Equal(t, "AC123", cfg.Twilio.AccountSID)
	assert.Equal(t, "whatsapp:+2348000000000", cfg.Twilio.To)
	assert.Equal(t, "06:30", cfg.GetScheduleAt())
	assert.Equal(t, 45*time.Second, cfg.GetScheduleTimeout())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meter: [unclosed"), 0600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config file")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Meter: MeterConfig{
			Source:    "portal",
			PortalURL: "https://vend.example.com/account",
			Cookies:   []Cookie{{Name: "session", Value: "abc", Domain: "vend.example.com", Path: "/"}},
		},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "portal", loaded.GetMeterSource())
	require.Len(t, loaded.Meter.Cookies, 1)
	assert.Equal(t, "abc", loaded.Meter.Cookies[0].Value)
}

func TestLoadEnvFiles(t *testing.T) {
	const key = "DISCO_API_TOKEN"
	if _, ok := os.LookupEnv(key); ok {
		t.Skipf("%s already set in environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(key+"=secret-token\n"), 0600))

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), envPath))

	cfg, err := Load(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Meter.APIToken)
}

func TestLoadFile_IgnoresEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("meter:\n  meter_id: from-file\n"), 0600))
	t.Setenv("METER_ID", "from-env")
	t.Setenv("TWILIO_TOKEN", "secret")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "from-file", cfg.Meter.MeterID)
	assert.Empty(t, cfg.Twilio.AuthToken)
}
