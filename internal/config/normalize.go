package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVapi()
	c.normalizeSummarizer()
	c.normalizeLifecycle()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.StateDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if value, ok := os.LookupEnv("CALLPREP_REPORTS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.ReportsDir = value
	}
	c.Paths.ReportsDir = strings.TrimSpace(c.Paths.ReportsDir)
	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = defaultReportsDir
	}
	if !isURL(c.Paths.ReportsDir) {
		if c.Paths.ReportsDir, err = expandPath(c.Paths.ReportsDir); err != nil {
			return fmt.Errorf("paths.reports_dir: %w", err)
		}
	}

	if value, ok := os.LookupEnv("DATABASE_PATH"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DatabasePath = value
	}
	if strings.TrimSpace(c.Paths.DatabasePath) == "" {
		c.Paths.DatabasePath = filepath.Join(c.Paths.StateDir, defaultDatabaseName)
	}
	if c.Paths.DatabasePath, err = expandPath(c.Paths.DatabasePath); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeVapi() {
	c.Vapi.APIKey = strings.TrimSpace(c.Vapi.APIKey)
	if c.Vapi.APIKey == "" {
		if value, ok := os.LookupEnv("VAPI_API_KEY"); ok {
			c.Vapi.APIKey = strings.TrimSpace(value)
		}
	}
	c.Vapi.PhoneNumberID = strings.TrimSpace(c.Vapi.PhoneNumberID)
	if c.Vapi.PhoneNumberID == "" {
		if value, ok := os.LookupEnv("VAPI_PHONE_NUMBER_ID"); ok {
			c.Vapi.PhoneNumberID = strings.TrimSpace(value)
		}
	}
	c.Vapi.BaseURL = strings.TrimRight(strings.TrimSpace(c.Vapi.BaseURL), "/")
	if c.Vapi.BaseURL == "" {
		c.Vapi.BaseURL = defaultVapiBaseURL
	}
	c.Vapi.OperatorName = strings.TrimSpace(c.Vapi.OperatorName)
	if c.Vapi.OperatorName == "" {
		c.Vapi.OperatorName = defaultOperatorName
	}
	c.Vapi.AssistantName = strings.TrimSpace(c.Vapi.AssistantName)
	if c.Vapi.AssistantName == "" {
		c.Vapi.AssistantName = defaultAssistantName
	}
	c.Vapi.AssistantModel = strings.TrimSpace(c.Vapi.AssistantModel)
	if c.Vapi.AssistantModel == "" {
		c.Vapi.AssistantModel = defaultAssistantModel
	}
	c.Vapi.VoiceID = strings.TrimSpace(c.Vapi.VoiceID)
	if c.Vapi.VoiceID == "" {
		c.Vapi.VoiceID = defaultVoiceID
	}
	if c.Vapi.MaxDurationSeconds <= 0 {
		c.Vapi.MaxDurationSeconds = defaultMaxDurationSeconds
	}
	if c.Vapi.RequestTimeout <= 0 {
		c.Vapi.RequestTimeout = defaultVapiRequestTimeout
	}
}

func (c *Config) normalizeSummarizer() {
	c.Summarizer.Provider = strings.ToLower(strings.TrimSpace(c.Summarizer.Provider))
	if c.Summarizer.Provider == "" {
		c.Summarizer.Provider = defaultSummarizerProvider
	}
	c.Summarizer.APIKey = strings.TrimSpace(c.Summarizer.APIKey)
	if c.Summarizer.APIKey == "" {
		c.Summarizer.APIKey = lookupFirstEnv(summarizerKeyEnv(c.Summarizer.Provider)...)
	}
	c.Summarizer.BaseURL = strings.TrimSpace(c.Summarizer.BaseURL)
	c.Summarizer.Model = strings.TrimSpace(c.Summarizer.Model)
	switch c.Summarizer.Provider {
	case ProviderAnthropic:
		if c.Summarizer.BaseURL == "" {
			c.Summarizer.BaseURL = defaultAnthropicBaseURL
		}
		if c.Summarizer.Model == "" {
			c.Summarizer.Model = defaultAnthropicModel
		}
	case ProviderOpenRouter:
		if c.Summarizer.BaseURL == "" {
			c.Summarizer.BaseURL = defaultOpenRouterBaseURL
		}
		if c.Summarizer.Model == "" {
			c.Summarizer.Model = defaultOpenRouterModel
		}
	case ProviderGemini:
		if c.Summarizer.Model == "" {
			c.Summarizer.Model = defaultGeminiModel
		}
	}
	if c.Summarizer.MaxTokens <= 0 {
		c.Summarizer.MaxTokens = defaultSummarizerMaxTokens
	}
	c.Summarizer.Referer = strings.TrimSpace(c.Summarizer.Referer)
	if c.Summarizer.Referer == "" {
		c.Summarizer.Referer = defaultSummarizerReferer
	}
	c.Summarizer.Title = strings.TrimSpace(c.Summarizer.Title)
	if c.Summarizer.Title == "" {
		c.Summarizer.Title = defaultSummarizerTitle
	}
	if c.Summarizer.TimeoutSeconds <= 0 {
		c.Summarizer.TimeoutSeconds = defaultSummarizerTimeout
	}
	if c.Summarizer.RetryAttempts <= 0 {
		c.Summarizer.RetryAttempts = 1
	}
}

func summarizerKeyEnv(provider string) []string {
	switch provider {
	case ProviderOpenRouter:
		return []string{"OPENROUTER_API_KEY"}
	case ProviderGemini:
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return []string{"ANTHROPIC_API_KEY"}
	}
}

func lookupFirstEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func (c *Config) normalizeLifecycle() {
	if c.Lifecycle.MaxConcurrent <= 0 {
		c.Lifecycle.MaxConcurrent = defaultMaxConcurrent
	}
	if c.Progress.Capacity <= 0 {
		c.Progress.Capacity = defaultProgressCapacity
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		if value, ok := os.LookupEnv("CALLPREP_API_TOKEN"); ok {
			c.API.Token = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
