package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and storage location configuration.
type Paths struct {
	StateDir     string `toml:"state_dir"`
	LogDir       string `toml:"log_dir"`
	ReportsDir   string `toml:"reports_dir"`
	DatabasePath string `toml:"database_path"`
}

// Vapi contains configuration for the outbound call service.
type Vapi struct {
	APIKey             string `toml:"api_key"`
	BaseURL            string `toml:"base_url"`
	PhoneNumberID      string `toml:"phone_number_id"`
	OperatorName       string `toml:"operator_name"`
	AssistantName      string `toml:"assistant_name"`
	AssistantModel     string `toml:"assistant_model"`
	VoiceID            string `toml:"voice_id"`
	MaxDurationSeconds int    `toml:"max_duration_seconds"`
	RequestTimeout     int    `toml:"request_timeout"`
}

// Summarizer contains the language model settings used to summarize transcripts.
type Summarizer struct {
	Provider       string `toml:"provider"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	MaxTokens      int    `toml:"max_tokens"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	RetryAttempts  int    `toml:"retry_attempts"`
}

// Lifecycle contains call polling and worker settings.
type Lifecycle struct {
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	PollTimeoutSeconds  int `toml:"poll_timeout_seconds"`
	MaxConcurrent       int `toml:"max_concurrent"`
}

// Progress contains settings for the in-memory progress registry.
type Progress struct {
	Capacity int `toml:"capacity"`
}

// API contains the HTTP surface settings for the daemon.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	CallCompleted  bool   `toml:"call_completed"`
	CallFailed     bool   `toml:"call_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for callprep.
//
// Configuration sections by subsystem:
//   - Paths: state, log, report directories and the database location
//   - Vapi: outbound call service credentials and assistant settings
//   - Summarizer: transcript summarization provider
//   - Lifecycle: polling cadence, timeout, and detached worker count
//   - Progress: progress registry capacity
//   - API: daemon HTTP bind address and token
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Vapi          Vapi          `toml:"vapi"`
	Summarizer    Summarizer    `toml:"summarizer"`
	Lifecycle     Lifecycle     `toml:"lifecycle"`
	Progress      Progress      `toml:"progress"`
	API           API           `toml:"api"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/callprep/config.toml")
}

// Load resolves the config file, decodes it over the defaults, then
// normalizes and validates the result. It also returns the resolved path and
// whether that file existed; a missing file leaves defaults plus environment
// fallbacks in place.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config %s: %w", resolved, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath picks the explicit path when given. Otherwise it tries the
// user config file, then ./callprep.toml, and falls back to the user path.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, err := os.Stat(expanded); {
		case err == nil:
			return expanded, true, nil
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", err)
		}
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("callprep.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the local directories the daemon and CLI write to.
// Remote report destinations are left to the report writer.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.StateDir, c.Paths.LogDir}
	if dbDir := filepath.Dir(c.Paths.DatabasePath); dbDir != "" && dbDir != "." {
		dirs = append(dirs, dbDir)
	}
	if !c.ReportsDirIsURL() {
		dirs = append(dirs, c.Paths.ReportsDir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// ReportsDirIsURL reports whether reports are written to a storage URL rather
// than a local directory.
func (c *Config) ReportsDirIsURL() bool {
	return isURL(c.Paths.ReportsDir)
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "callprepd.lock")
}

// LogFilePath returns the log file written alongside console output.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.LogDir, "callprep.log")
}

// PollInterval returns the delay between call status polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Lifecycle.PollIntervalSeconds) * time.Second
}

// PollTimeout returns the maximum time spent waiting for a call to end.
func (c *Config) PollTimeout() time.Duration {
	return time.Duration(c.Lifecycle.PollTimeoutSeconds) * time.Second
}

func isURL(value string) bool {
	return strings.Contains(value, "://")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
