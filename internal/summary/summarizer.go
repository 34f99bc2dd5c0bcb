package summary

import (
	"context"
	"fmt"
	"strings"

	"callprep/internal/config"
	"callprep/internal/services"
	"callprep/internal/services/gemini"
	"callprep/internal/services/llm"
)

// Result holds the generated summary.
type Result struct {
	Summary string `json:"summary"`
}

// Summarizer produces a summary for a call transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript, attendeeName, meetingDescription string) (Result, error)
}

// Completer is a language model that answers a system/user prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

const systemPrompt = `You prepare meeting briefs from phone call transcripts.
The call was made on behalf of the meeting organizer to ask the attendee three things:
what they want to get out of the meeting, any topics or questions they want covered,
and anything the organizer should prepare or know beforehand.

Write a concise markdown summary with these sections:
- Goals: what the attendee wants from the meeting
- Topics: subjects or questions to cover
- Preparation: materials, context or actions needed before the meeting
- Notes: anything else relevant, including if the attendee declined or the call ended early

Only use information present in the transcript. If a section has nothing, write "None mentioned."`

// ModelSummarizer summarizes transcripts with a Completer.
type ModelSummarizer struct {
	model Completer
}

// New wraps a Completer as a Summarizer.
func New(model Completer) *ModelSummarizer {
	return &ModelSummarizer{model: model}
}

// Summarize asks the model for a summary of the transcript.
func (s *ModelSummarizer) Summarize(ctx context.Context, transcript, attendeeName, meetingDescription string) (Result, error) {
	if s == nil || s.model == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "summarizing", "summarize", "no model configured", nil)
	}
	if strings.TrimSpace(transcript) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "summarizing", "summarize", "transcript is empty", nil)
	}
	text, err := s.model.Complete(ctx, systemPrompt, buildUserPrompt(transcript, attendeeName, meetingDescription))
	if err != nil {
		return Result{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, services.Wrap(services.ErrProvider, "summarizing", "summarize", "model returned an empty summary", nil)
	}
	return Result{Summary: text}, nil
}

func buildUserPrompt(transcript, attendeeName, meetingDescription string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Attendee: %s\n", strings.TrimSpace(attendeeName))
	fmt.Fprintf(&b, "Meeting: %s\n\n", strings.TrimSpace(meetingDescription))
	b.WriteString("Transcript:\n")
	b.WriteString(strings.TrimSpace(transcript))
	return b.String()
}

// NewFromConfig builds the summarizer selected by summarizer.provider.
func NewFromConfig(cfg *config.Config, opts ...llm.Option) (Summarizer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", "configuration is required", nil)
	}
	sc := cfg.Summarizer
	if strings.TrimSpace(sc.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", fmt.Sprintf("%s api key is missing", sc.Provider), nil)
	}
	llmCfg := llm.Config{
		APIKey:         sc.APIKey,
		BaseURL:        sc.BaseURL,
		Model:          sc.Model,
		MaxTokens:      sc.MaxTokens,
		Referer:        sc.Referer,
		Title:          sc.Title,
		TimeoutSeconds: sc.TimeoutSeconds,
	}
	options := append([]llm.Option{llm.WithRetryMaxAttempts(sc.RetryAttempts)}, opts...)

	switch sc.Provider {
	case config.ProviderAnthropic, "":
		return New(llm.NewAnthropicClient(llmCfg, options...)), nil
	case config.ProviderOpenRouter:
		return New(llm.NewClient(llmCfg, options...)), nil
	case config.ProviderGemini:
		return New(gemini.NewClient(gemini.Config{APIKey: sc.APIKey, Model: sc.Model})), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "summarizing", "configure", fmt.Sprintf("unknown provider %q", sc.Provider), nil)
	}
}
