package settings

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finreport/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "user_settings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, `{"user_currencies": ["USD", "EUR"], "user_stocks": ["AAPL", "AMZN"], "extra": 1}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"USD", "EUR"}, s.Currencies)
	assert.Equal(t, []string{"AAPL", "AMZN"}, s.Stocks)
}

func TestLoad_PartialDocument(t *testing.T) {
	s, err := Load(writeFile(t, `{"user_stocks": ["TSLA"]}`))
	require.NoError(t, err)
	assert.Empty(t, s.Currencies)
	assert.Equal(t, []string{"TSLA"}, s.Stocks)
}

func TestRead(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf, slog.LevelInfo)

	s := Read(writeFile(t, `{"user_currencies": ["USD"]}`), logger)
	assert.Equal(t, []string{"USD"}, s.Currencies)
	assert.Empty(t, buf.String())

	s = Read(writeFile(t, `{"user_currencies": [], "other": true}`), logger)
	assert.True(t, s.IsEmpty())
	assert.Contains(t, buf.String(), "User settings list no currencies or stocks")
	assert.NotContains(t, buf.String(), "Failed to read user settings")
}

func TestRead_FailuresYieldEmptySettings(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{"malformed json", func(t *testing.T) string { return writeFile(t, `{"user_currencies": [`) }},
		{"array document", func(t *testing.T) string { return writeFile(t, `["USD"]`) }},
		{"null document", func(t *testing.T) string { return writeFile(t, `null`) }},
		{"wrong field type", func(t *testing.T) string { return writeFile(t, `{"user_currencies": "USD"}`) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := log.NewWriter(&buf, slog.LevelInfo)

			s := Read(tt.path(t), logger)
			assert.True(t, s.IsEmpty())
			assert.True(t, strings.Contains(buf.String(), "Failed to read user settings"), buf.String())
		})
	}
}
