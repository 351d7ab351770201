package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Transfer.StallTimeout.Std())
	assert.Equal(t, 100*time.Millisecond, cfg.Transfer.PollInterval.Std())
	assert.True(t, cfg.Transfer.Checksum)
	assert.Equal(t, DefaultChannelLabel, cfg.WebRTC.ChannelLabel)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	homedir.DisableCache = true
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)

	want := Default()
	want.Storage.DownloadDir = filepath.Join(home, "Downloads", "peerdrop")
	assert.Equal(t, want, cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[Transfer]
  StallTimeout = "45s"
  BufferThreshold = 65536
  Checksum = false

[WebRTC]
  ICEServers = ["stun:stun.example.org:3478"]

[Storage]
  DownloadDir = "/srv/incoming"

[Log]
  Level = "debug"
  Format = "json"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Transfer.StallTimeout.Std())
	assert.Equal(t, uint64(65536), cfg.Transfer.BufferThreshold)
	assert.False(t, cfg.Transfer.Checksum)
	assert.Equal(t, []string{"stun:stun.example.org:3478"}, cfg.WebRTC.ICEServers)
	assert.Equal(t, "/srv/incoming", cfg.Storage.DownloadDir)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Session, cfg.Session)
}

func TestFromReaderRejectsUnknownKeys(t *testing.T) {
	_, err := FromReader(strings.NewReader("[Transfer]\nChunkSize = 1\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "ChunkSize")
}

func TestFromReaderRejectsBadDuration(t *testing.T) {
	_, err := FromReader(strings.NewReader("[Session]\nIdleTimeout = \"soon\"\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PEERDROP_TRANSFER_STALL_TIMEOUT", "2m")
	t.Setenv("PEERDROP_TRANSFER_MAX_FILE_SIZE", "1024")
	t.Setenv("PEERDROP_SESSION_IDLE_TIMEOUT", "90s")
	t.Setenv("PEERDROP_WEBRTC_ICE_SERVERS", "stun:a.example:3478,stun:b.example:3478")
	t.Setenv("PEERDROP_STORAGE_DOWNLOAD_DIR", "/tmp/drop")
	t.Setenv("PEERDROP_LOG_LEVEL", "warn")

	cfg, err := FromReader(strings.NewReader("[Transfer]\nStallTimeout = \"10s\"\n"))
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.Transfer.StallTimeout.Std(), "environment wins over the file")
	assert.Equal(t, int64(1024), cfg.Transfer.MaxFileSize)
	assert.Equal(t, 90*time.Second, cfg.Session.IdleTimeout.Std())
	assert.Equal(t, []string{"stun:a.example:3478", "stun:b.example:3478"}, cfg.WebRTC.ICEServers)
	assert.Equal(t, "/tmp/drop", cfg.Storage.DownloadDir)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero poll interval", func(c *Config) { c.Transfer.PollInterval = 0 }},
		{"negative stall timeout", func(c *Config) { c.Transfer.StallTimeout = Duration(-time.Second) }},
		{"negative max file size", func(c *Config) { c.Transfer.MaxFileSize = -1 }},
		{"zero idle timeout", func(c *Config) { c.Session.IdleTimeout = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"empty channel label", func(c *Config) { c.WebRTC.ChannelLabel = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	cfg := Default()
	cfg.Transfer.StallTimeout = 0
	assert.NoError(t, cfg.Validate(), "zero stall timeout disables stall detection")
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Transfer.StallTimeout = Duration(time.Minute)
	cfg.Storage.DownloadDir = "/srv/incoming"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cfg))
	assert.Contains(t, buf.String(), `StallTimeout = "1m0s"`)

	decoded, err := FromReader(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, decoded)
}

func TestSetupLogging(t *testing.T) {
	prevLevel, prevFormatter := logrus.GetLevel(), logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	require.NoError(t, SetupLogging(Log{Level: "debug", Format: "json"}))
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logrus.StandardLogger().Formatter)

	require.NoError(t, SetupLogging(Log{Level: "warn", Format: "text"}))
	assert.IsType(t, &logrus.TextFormatter{}, logrus.StandardLogger().Formatter)

	assert.ErrorIs(t, SetupLogging(Log{Level: "nope"}), ErrInvalidConfig)
	assert.ErrorIs(t, SetupLogging(Log{Level: "info", Format: "xml"}), ErrInvalidConfig)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Transfer.BufferThreshold = 4096
	cfg.Transfer.StallTimeout = Duration(time.Minute)
	cfg.Transfer.Checksum = false
	cfg.Session.IdleTimeout = Duration(time.Hour)
	cfg.Storage.DownloadDir = "/srv/incoming"

	o := cfg.Options()
	assert.Equal(t, uint64(4096), o.BufferThreshold)
	assert.Equal(t, time.Minute, o.StallTimeout)
	assert.False(t, o.Checksum)
	assert.Equal(t, time.Hour, o.IdleTimeout)
	assert.Equal(t, cfg.Session.SweepInterval.Std(), o.SweepInterval)
	assert.Equal(t, cfg.Transfer.PollInterval.Std(), o.PollInterval)
	assert.Equal(t, "/srv/incoming", o.DownloadDir)
	assert.Nil(t, o.Notifier)
}
