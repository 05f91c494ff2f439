package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/config"
)

func TestConstants_Integrity(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"AppName", config.AppName},
		{"AppID", config.AppID},
		{"Version", config.Version},
		{"UserAgent", config.UserAgent},
		{"ICalVersion", config.ICalVersion},
		{"ICalProdid", config.ICalProdid},
		{"MsgLunarResolved", config.MsgLunarResolved},
		{"MsgTermResolved", config.MsgTermResolved},
		{"ErrCharterMissing", config.ErrCharterMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEmpty(t, tt.value, "constant %s is empty", tt.name)
		})
	}

	assert.True(t, strings.HasPrefix(config.UserAgent, "Go-BaZi/"))
	assert.Contains(t, config.StubVCalendar, config.ICalProdid)
	assert.NotEqual(t, config.ErrCalendarMissing, config.ErrCharterMissing)
}

func TestLimits(t *testing.T) {
	t.Parallel()

	assert.Greater(t, config.HTTPTimeout, time.Duration(0))
	assert.LessOrEqual(t, config.HTTPTimeout, 2*time.Minute)
	assert.Greater(t, config.ShutdownTimeout, time.Duration(0))

	assert.Less(t, int64(config.MaxHTTPResponseSize), int64(1<<30), "response cap must protect RAM")
	assert.Positive(t, config.BatchConcurrency)
	assert.LessOrEqual(t, config.DefaultLiuNianYears, config.MaxLiuNianYears)
}

func TestDefaultSettings_Valid(t *testing.T) {
	s := config.DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, config.DefaultPort, s.Port)
	assert.Equal(t, config.DefaultLanguage, s.Language)
	assert.Equal(t, config.DefaultLiuNianYears, s.LiuNianYears)
	assert.Empty(t, s.SourceMode)
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
		return p
	}

	t.Run("empty path", func(t *testing.T) {
		s, err := config.LoadSettings("")
		require.NoError(t, err)
		assert.Equal(t, config.DefaultSettings(), s)
	})

	t.Run("missing file", func(t *testing.T) {
		s, err := config.LoadSettings(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, config.DefaultSettings(), s)
	})

	t.Run("partial override", func(t *testing.T) {
		p := write("partial.yaml", "language: zh\nliu_nian_years: 20\nsource_mode: local\nlocal_path: /tmp/c.vcf\n")
		s, err := config.LoadSettings(p)
		require.NoError(t, err)
		assert.Equal(t, "zh", s.Language)
		assert.Equal(t, 20, s.LiuNianYears)
		assert.Equal(t, config.SourceModeLocal, s.SourceMode)
		assert.Equal(t, config.DefaultPort, s.Port, "unset keys keep defaults")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		p := write("bad.yaml", "language: [zh\n")
		_, err := config.LoadSettings(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrSettingsLoad)
	})

	t.Run("invalid value", func(t *testing.T) {
		p := write("invalid.yaml", "language: fr\n")
		_, err := config.LoadSettings(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.ErrSettingsInvalid)
	})
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Settings)
		wantErr bool
	}{
		{"defaults", func(*config.Settings) {}, false},
		{"web source", func(s *config.Settings) {
			s.SourceMode = config.SourceModeWeb
			s.WebURL = "https://dav.example.com/a.vcf"
		}, false},
		{"port zero", func(s *config.Settings) { s.Port = "0" }, true},
		{"port too high", func(s *config.Settings) { s.Port = "70000" }, true},
		{"port not numeric", func(s *config.Settings) { s.Port = "http" }, true},
		{"unknown language", func(s *config.Settings) { s.Language = "de" }, true},
		{"window empty", func(s *config.Settings) { s.LiuNianYears = 0 }, true},
		{"window too long", func(s *config.Settings) { s.LiuNianYears = 61 }, true},
		{"unknown source", func(s *config.Settings) { s.SourceMode = "ftp" }, true},
		{"bad url", func(s *config.Settings) { s.WebURL = "not a url" }, true},
		{"negative refresh", func(s *config.Settings) { s.RefreshMin = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := config.DefaultSettings()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
