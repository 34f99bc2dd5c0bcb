package config

const (
	defaultStateDir             = "~/.local/share/callprep"
	defaultLogDir               = "~/.local/share/callprep/logs"
	defaultReportsDir           = "meeting-notes"
	defaultDatabaseName         = "meeting_prep.db"
	defaultVapiBaseURL          = "https://api.vapi.ai"
	defaultOperatorName         = "Marc"
	defaultAssistantName        = "Alex"
	defaultAssistantModel       = "gpt-4"
	defaultVoiceID              = "21m00Tcm4TlvDq8ikWAM"
	defaultMaxDurationSeconds   = 300
	defaultVapiRequestTimeout   = 30
	defaultSummarizerProvider   = ProviderAnthropic
	defaultAnthropicBaseURL     = "https://api.anthropic.com/v1/messages"
	defaultAnthropicModel       = "claude-haiku-4-5"
	defaultOpenRouterBaseURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultOpenRouterModel      = "anthropic/claude-haiku-4.5"
	defaultGeminiModel          = "gemini-2.5-flash"
	defaultSummarizerMaxTokens  = 4096
	defaultSummarizerReferer    = "https://github.com/callprep/callprep"
	defaultSummarizerTitle      = "callprep"
	defaultSummarizerTimeout    = 60
	defaultSummarizerRetries    = 1
	defaultPollIntervalSeconds  = 5
	defaultPollTimeoutSeconds   = 300
	defaultMaxConcurrent        = 4
	defaultProgressCapacity     = 512
	defaultAPIBind              = "127.0.0.1:7490"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Summarizer providers.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
			ReportsDir: defaultReportsDir,
		},
		Vapi: Vapi{
			BaseURL:            defaultVapiBaseURL,
			OperatorName:       defaultOperatorName,
			AssistantName:      defaultAssistantName,
			AssistantModel:     defaultAssistantModel,
			VoiceID:            defaultVoiceID,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			RequestTimeout:     defaultVapiRequestTimeout,
		},
		Summarizer: Summarizer{
			Provider:       defaultSummarizerProvider,
			MaxTokens:      defaultSummarizerMaxTokens,
			Referer:        defaultSummarizerReferer,
			Title:          defaultSummarizerTitle,
			TimeoutSeconds: defaultSummarizerTimeout,
			RetryAttempts:  defaultSummarizerRetries,
		},
		Lifecycle: Lifecycle{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			PollTimeoutSeconds:  defaultPollTimeoutSeconds,
			MaxConcurrent:       defaultMaxConcurrent,
		},
		Progress: Progress{
			Capacity: defaultProgressCapacity,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			CallCompleted:  true,
			CallFailed:     true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
