package config

import (
	"fmt"

	"callprep/internal/services"
)

// Validate ensures the configuration is usable. Every failure wraps
// services.ErrConfiguration.
func (c *Config) Validate() error {
	if err := c.validateVapi(); err != nil {
		return err
	}
	if err := c.validateSummarizer(); err != nil {
		return err
	}
	if err := c.validateLifecycle(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVapi() error {
	if c.Vapi.APIKey == "" {
		return configErrorf("vapi.api_key is required. Set VAPI_API_KEY env var or edit %s (create with 'callprep config init')", defaultPathHint())
	}
	return nil
}

func (c *Config) validateSummarizer() error {
	switch c.Summarizer.Provider {
	case ProviderAnthropic, ProviderOpenRouter, ProviderGemini:
	default:
		return configErrorf("summarizer.provider must be one of %s, %s, %s (got %q)", ProviderAnthropic, ProviderOpenRouter, ProviderGemini, c.Summarizer.Provider)
	}
	if c.Summarizer.APIKey == "" {
		return configErrorf("summarizer.api_key is required for provider %s. Set %s env var or edit %s", c.Summarizer.Provider, summarizerKeyEnv(c.Summarizer.Provider)[0], defaultPathHint())
	}
	return nil
}

func (c *Config) validateLifecycle() error {
	if err := ensurePositiveMap(map[string]int{
		"lifecycle.poll_interval_seconds": c.Lifecycle.PollIntervalSeconds,
		"lifecycle.poll_timeout_seconds":  c.Lifecycle.PollTimeoutSeconds,
		"lifecycle.max_concurrent":        c.Lifecycle.MaxConcurrent,
		"progress.capacity":               c.Progress.Capacity,
		"notifications.request_timeout":   c.Notifications.RequestTimeout,
		"vapi.request_timeout":            c.Vapi.RequestTimeout,
		"summarizer.timeout_seconds":      c.Summarizer.TimeoutSeconds,
	}); err != nil {
		return err
	}
	if c.Lifecycle.PollTimeoutSeconds < c.Lifecycle.PollIntervalSeconds {
		return configErrorf("lifecycle.poll_timeout_seconds must be at least lifecycle.poll_interval_seconds")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return configErrorf("%s must be positive", key)
		}
	}
	return nil
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}

func defaultPathHint() string {
	path, err := DefaultConfigPath()
	if err != nil {
		return "~/.config/callprep/config.toml"
	}
	return path
}
