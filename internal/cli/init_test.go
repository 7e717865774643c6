package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"finreport/internal/config"
)

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("FINREPORT_TEST_KEY=from-file\nFINREPORT_TEST_SET=from-file\n"), 0o644); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("FINREPORT_TEST_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("FINREPORT_TEST_KEY") })

	if err := LoadEnvFile(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if got := os.Getenv("FINREPORT_TEST_KEY"); got != "from-file" {
		t.Errorf("FINREPORT_TEST_KEY = %q, want from-file", got)
	}
	if got := os.Getenv("FINREPORT_TEST_SET"); got != "from-env" {
		t.Errorf("existing variables must win, got %q", got)
	}
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	_, err := LoadAndValidateConfig()
	if err == nil || !strings.Contains(err.Error(), "invalid port") {
		t.Fatalf("expected port validation error, got %v", err)
	}
}

func TestOpenQuoteStore(t *testing.T) {
	store, err := OpenQuoteStore(&config.Config{}, nil)
	if err != nil || store != nil {
		t.Fatalf("disabled store: got %v, %v", store, err)
	}

	path := filepath.Join(t.TempDir(), "quotes.db")
	store, err = OpenQuoteStore(&config.Config{SnapshotDBPath: path, BaseCurrency: "RUB"}, nil)
	if err != nil {
		t.Fatalf("OpenQuoteStore() error = %v", err)
	}
	defer store.Close()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestSetupLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	logger, closeFn, err := SetupLogger(&config.Config{LogFile: path, LogLevel: "debug"})
	if err != nil {
		t.Fatalf("SetupLogger() error = %v", err)
	}
	logger.Debug("hello")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), "msg=hello") {
		t.Errorf("log file = %q", data)
	}
}
