package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tartampluch/go-bazi/internal/config"
	"github.com/tartampluch/go-bazi/internal/engine"
)

const sampleVCF = `BEGIN:VCARD
VERSION:4.0
FN:Jane Doe
BDAY:1990-01-15T12:00:00
GENDER:M
END:VCARD
`

// run executes the command tree in-process and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI(&out)
	c.setupLog = func(slog.Level) io.Closer { return nil }
	c.keyringGet = func(string, string) (string, error) { return "", errors.New("no keyring") }
	c.now = engine.FixedClock(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))

	root := c.root()
	root.SetArgs(append([]string{"--" + config.FlagConfig, filepath.Join(t.TempDir(), "none.yaml")}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, config.CmdVersion)
	require.NoError(t, err)
	assert.Contains(t, out, config.AppName)
	assert.Contains(t, out, config.Version)
}

func TestChart_Table(t *testing.T) {
	out, err := run(t, config.CmdChart, "--date", "1990-01-15", "--time", "12:00", "--gender", "male", "--from", "2024", "--years", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "庚辰")
	assert.Contains(t, out, "甲辰")
	assert.Contains(t, out, "乙巳")
}

func TestChart_JSONInChinese(t *testing.T) {
	out, err := run(t, "--lang", "zh", config.CmdChart, "--date", "1990-01-15", "--time", "12:00", "--gender", "male", "--json")
	require.NoError(t, err)

	var got struct {
		Pillars struct{ Day string } `json:"pillars"`
		LiuNian []json.RawMessage    `json:"liu_nian"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "庚辰", got.Pillars.Day)
	assert.Len(t, got.LiuNian, config.DefaultLiuNianYears)
}

func TestChart_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", []string{config.CmdChart, "--date", "1990-01-15"}},
		{"bad date", []string{config.CmdChart, "--date", "1990-13-01", "--time", "12:00", "--gender", "f"}},
		{"bad language", []string{"--lang", "fr", config.CmdChart, "--date", "1990-01-15", "--time", "12:00", "--gender", "f"}},
		{"missing rules file", []string{"--rules", "/nonexistent/rules.yaml", config.CmdChart, "--date", "1990-01-15", "--time", "12:00", "--gender", "f"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}

	_, err := run(t, config.CmdChart, "--date", "1990-01-15", "--time", "25:00", "--gender", "f")
	var inv *engine.InvalidInputError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, "hour", inv.Field)
}

func TestICS(t *testing.T) {
	out, err := run(t, config.CmdICS, "--date", "1990-01-15", "--time", "12:00", "--gender", "male", "--years", "1", "--name", "Jane")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Equal(t, 8+1, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Jane: Da Yun 1 丙子")
}

func TestBatch_Local(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.vcf")
	require.NoError(t, os.WriteFile(path, []byte(sampleVCF), 0o600))

	out, err := run(t, "--years", "1", config.CmdBatch, "--source", config.SourceModeLocal, "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "SUMMARY:Jane Doe: Da Yun 1 丙子")
}

func TestBatch_NoSource(t *testing.T) {
	_, err := run(t, config.CmdBatch)
	assert.Error(t, err)
}

func TestSettings_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("liu_nian_years: 3\n"), 0o600))

	count := func(args ...string) int {
		t.Helper()
		out, err := run(t, append([]string{"--" + config.FlagConfig, path}, args...)...)
		require.NoError(t, err)
		var got struct {
			LiuNian []json.RawMessage `json:"liu_nian"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		return len(got.LiuNian)
	}

	birth := []string{config.CmdChart, "--date", "1990-01-15", "--time", "12:00", "--gender", "f", "--json"}
	assert.Equal(t, 3, count(birth...), "file value applies")
	assert.Equal(t, 5, count(append([]string{"--years", "5"}, birth...)...), "flag wins over file")
}
