package vapi

import "callprep/internal/services"

var endCallPhrases = []string{"goodbye", "end call", "hang up", "not interested"}

const endCallMessage = "Thank you for your time. Goodbye!"

type callRequestPayload struct {
	PhoneNumberID string           `json:"phoneNumberId"`
	Assistant     assistantPayload `json:"assistant"`
	Customer      customerPayload  `json:"customer"`
}

type assistantPayload struct {
	Model              modelPayload `json:"model"`
	Voice              voicePayload `json:"voice"`
	FirstMessage       string       `json:"firstMessage"`
	RecordingEnabled   bool         `json:"recordingEnabled"`
	EndCallMessage     string       `json:"endCallMessage"`
	EndCallPhrases     []string     `json:"endCallPhrases"`
	MaxDurationSeconds int          `json:"maxDurationSeconds"`
}

type modelPayload struct {
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	Temperature float64          `json:"temperature"`
	Messages    []messagePayload `json:"messages"`
}

type messagePayload struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type voicePayload struct {
	Provider string `json:"provider"`
	VoiceID  string `json:"voiceId"`
}

type customerPayload struct {
	Number string `json:"number"`
	Name   string `json:"name"`
}

func (c *Client) callPayload(phoneNumberID string, req services.CallRequest) callRequestPayload {
	return callRequestPayload{
		PhoneNumberID: phoneNumberID,
		Assistant: assistantPayload{
			Model: modelPayload{
				Provider:    "openai",
				Model:       c.cfg.AssistantModel,
				Temperature: 0.7,
				Messages: []messagePayload{
					{Role: "system", Content: c.systemPrompt(req.AttendeeName, req.MeetingDescription)},
				},
			},
			Voice:              voicePayload{Provider: "11labs", VoiceID: c.cfg.VoiceID},
			FirstMessage:       "Hi, is this " + req.AttendeeName + "?",
			RecordingEnabled:   true,
			EndCallMessage:     endCallMessage,
			EndCallPhrases:     append([]string(nil), endCallPhrases...),
			MaxDurationSeconds: c.cfg.MaxDurationSeconds,
		},
		Customer: customerPayload{Number: req.PhoneNumber, Name: req.AttendeeName},
	}
}
