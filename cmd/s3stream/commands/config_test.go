package commands

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
)

func validSettings() Settings {
	return Settings{MaxRetries: 3, LogLevel: "info", LogFormat: "text"}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Settings)
		contains string
	}{
		{name: "defaults", mutate: func(*Settings) {}},
		{name: "endpoint", mutate: func(s *Settings) { s.Endpoint = "http://localhost:4566" }},
		{name: "metrics address", mutate: func(s *Settings) { s.MetricsAddr = "localhost:9090" }},
		{name: "bad endpoint", mutate: func(s *Settings) { s.Endpoint = "not a url" }, contains: "Endpoint"},
		{name: "negative retries", mutate: func(s *Settings) { s.MaxRetries = -1 }, contains: "MaxRetries"},
		{name: "negative timeout", mutate: func(s *Settings) { s.Timeout = -time.Second }, contains: "Timeout"},
		{name: "bad log format", mutate: func(s *Settings) { s.LogFormat = "xml" }, contains: "LogFormat"},
		{name: "bad metrics address", mutate: func(s *Settings) { s.MetricsAddr = "9090" }, contains: "MetricsAddr"},
		{name: "key without secret", mutate: func(s *Settings) { s.AccessKeyID = "AKIA" }, contains: "SecretAccessKey"},
		{name: "bad part size", mutate: func(s *Settings) { s.PartSize = "huge" }, contains: "PartSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSettings()
			tt.mutate(&s)

			err := s.Validate()
			if tt.contains == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSettings_ValidateReportsEveryProblem(t *testing.T) {
	s := Settings{MaxRetries: 99, LogLevel: "loud", LogFormat: "xml", PartSize: "?"}

	err := s.Validate()
	require.Error(t, err)
	for _, want := range []string{"MaxRetries", "LogLevel", "LogFormat", "PartSize"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSettings_PartSize(t *testing.T) {
	s := validSettings()
	size, err := s.partSize()
	require.NoError(t, err)
	assert.Zero(t, size)

	s.PartSize = "16MiB"
	size, err = s.partSize()
	require.NoError(t, err)
	assert.Equal(t, 16*bytesize.MiB, size)
}

func TestSettings_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range tests {
		s := Settings{LogLevel: in}
		assert.Equal(t, want, s.slogLevel(), in)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		s, err := loadSettings(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, 3, s.MaxRetries)
		assert.Equal(t, "info", s.LogLevel)
		assert.Equal(t, "text", s.LogFormat)
	})

	t.Run("default config location", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", home)
		dir, err := os.UserConfigDir()
		require.NoError(t, err)
		require.NoError(t, os.MkdirAll(filepath.Join(dir, "s3stream"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "s3stream", "config.yaml"),
			[]byte("region: eu-west-1\npart_size: 8MiB\n"), 0o600))

		s, err := loadSettings(viper.New(), "")
		require.NoError(t, err)
		assert.Equal(t, "eu-west-1", s.Region)
		assert.Equal(t, "8MiB", s.PartSize)
	})

	t.Run("environment beats file", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("S3STREAM_REGION", "ap-south-1")
		t.Setenv("S3STREAM_TIMEOUT", "30s")
		path := filepath.Join(t.TempDir(), "c.yaml")
		require.NoError(t, os.WriteFile(path, []byte("region: eu-west-1\n"), 0o600))

		s, err := loadSettings(viper.New(), path)
		require.NoError(t, err)
		assert.Equal(t, "ap-south-1", s.Region)
		assert.Equal(t, 30*time.Second, s.Timeout)
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "c.yaml")
		require.NoError(t, os.WriteFile(path, []byte("region: [unterminated\n"), 0o600))

		_, err := loadSettings(viper.New(), path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read config file")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("S3STREAM_LOG_FORMAT", "xml")

		_, err := loadSettings(viper.New(), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})
}

func TestBindFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("config", "", "")
	fs.String("log-level", "info", "")
	fs.Int("max-retries", 3, "")
	require.NoError(t, fs.Parse([]string{"--log-level", "warn", "--max-retries", "7", "--config", "x.yaml"}))

	v := viper.New()
	require.NoError(t, bindFlags(v, fs))
	assert.False(t, v.IsSet("config"))

	s, err := loadSettings(v, "")
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, 7, s.MaxRetries)
}
