package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"callprep/internal/config"
	"callprep/internal/services"
)

func setCredentialEnv(t *testing.T) {
	t.Helper()
	t.Setenv("VAPI_API_KEY", "vapi-key")
	t.Setenv("ANTHROPIC_API_KEY", "anthropic-key")
	t.Setenv("VAPI_PHONE_NUMBER_ID", "")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("CALLPREP_REPORTS_DIR", "")
	t.Setenv("CALLPREP_API_TOKEN", "")
}

func TestLoadDefaultConfigUsesEnvKeysAndExpandsPaths(t *testing.T) {
	setCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "callprep")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.DatabasePath != filepath.Join(wantState, "meeting_prep.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if !filepath.IsAbs(cfg.Paths.ReportsDir) || filepath.Base(cfg.Paths.ReportsDir) != "meeting-notes" {
		t.Fatalf("unexpected reports dir: %q", cfg.Paths.ReportsDir)
	}
	if cfg.Vapi.APIKey != "vapi-key" {
		t.Fatalf("expected vapi key from env, got %q", cfg.Vapi.APIKey)
	}
	if cfg.Summarizer.APIKey != "anthropic-key" {
		t.Fatalf("expected anthropic key from env, got %q", cfg.Summarizer.APIKey)
	}
	if cfg.Summarizer.Provider != config.ProviderAnthropic {
		t.Fatalf("unexpected provider: %q", cfg.Summarizer.Provider)
	}
	if cfg.Vapi.BaseURL != "https://api.vapi.ai" {
		t.Fatalf("unexpected vapi base url: %q", cfg.Vapi.BaseURL)
	}
	if cfg.PollInterval() != 5*time.Second {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.PollTimeout() != 300*time.Second {
		t.Fatalf("unexpected poll timeout: %s", cfg.PollTimeout())
	}
	if cfg.API.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadMissingCallKeyIsConfigurationError(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv("VAPI_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	_, _, _, err := config.Load("")
	if err == nil {
		t.Fatal("expected error for missing vapi key")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "VAPI_API_KEY") {
		t.Fatalf("expected env var hint, got %q", err.Error())
	}
}

func TestLoadMissingSummarizerKeyNamesProviderEnv(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[summarizer]\nprovider = \"gemini\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY") {
		t.Fatalf("expected gemini env hint, got %q", err.Error())
	}
}

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "router-key")

	dir := t.TempDir()
	payload := map[string]any{
		"paths": map[string]any{
			"state_dir":   filepath.Join(dir, "state"),
			"reports_dir": "mem://localhost/notes",
		},
		"vapi": map[string]any{
			"phone_number_id": "line-7",
			"base_url":        "http://127.0.0.1:9999/",
		},
		"summarizer": map[string]any{
			"provider": "OpenRouter",
		},
		"lifecycle": map[string]any{
			"poll_interval_seconds": 2,
			"poll_timeout_seconds":  30,
		},
		"logging": map[string]any{
			"format": "JSON",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Paths.ReportsDir != "mem://localhost/notes" {
		t.Fatalf("expected url reports dir to be kept verbatim, got %q", cfg.Paths.ReportsDir)
	}
	if !cfg.ReportsDirIsURL() {
		t.Fatal("expected reports dir to be detected as url")
	}
	if cfg.Paths.DatabasePath != filepath.Join(dir, "state", "meeting_prep.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.DatabasePath)
	}
	if cfg.Vapi.PhoneNumberID != "line-7" {
		t.Fatalf("unexpected phone number id: %q", cfg.Vapi.PhoneNumberID)
	}
	if cfg.Vapi.BaseURL != "http://127.0.0.1:9999" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Vapi.BaseURL)
	}
	if cfg.Summarizer.Provider != config.ProviderOpenRouter || cfg.Summarizer.APIKey != "router-key" {
		t.Fatalf("unexpected summarizer: %+v", cfg.Summarizer)
	}
	if !strings.Contains(cfg.Summarizer.BaseURL, "openrouter.ai") {
		t.Fatalf("expected openrouter base url, got %q", cfg.Summarizer.BaseURL)
	}
	if cfg.PollInterval() != 2*time.Second || cfg.PollTimeout() != 30*time.Second {
		t.Fatalf("unexpected poll settings: %s %s", cfg.PollInterval(), cfg.PollTimeout())
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
}

func TestDatabasePathEnvOverride(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "custom.db")
	t.Setenv("DATABASE_PATH", dbPath)

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.DatabasePath != dbPath {
		t.Fatalf("expected DATABASE_PATH override, got %q", cfg.Paths.DatabasePath)
	}
}

func TestValidateRejectsTimeoutShorterThanInterval(t *testing.T) {
	cfg := config.Default()
	cfg.Vapi.APIKey = "k"
	cfg.Summarizer.APIKey = "k"
	cfg.Lifecycle.PollIntervalSeconds = 10
	cfg.Lifecycle.PollTimeoutSeconds = 5

	err := cfg.Validate()
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Vapi.APIKey = "k"
	cfg.Summarizer.APIKey = "k"
	cfg.Summarizer.Provider = "carrier-pigeon"

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "summarizer.provider") {
		t.Fatalf("expected provider validation error, got %v", err)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	setCredentialEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Lifecycle.PollTimeoutSeconds != 300 {
		t.Fatalf("unexpected sample poll timeout: %d", cfg.Lifecycle.PollTimeoutSeconds)
	}
}

func TestEnsureDirectoriesCreatesLocalDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.ReportsDir = filepath.Join(base, "notes")
	cfg.Paths.DatabasePath = filepath.Join(base, "db", "calls.db")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{"state", "logs", "notes", "db"} {
		if info, err := os.Stat(filepath.Join(base, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s to exist (err=%v)", dir, err)
		}
	}
}
