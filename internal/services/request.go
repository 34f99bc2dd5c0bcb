package services

import "strings"

// CallRequest describes one outbound call to a meeting attendee.
type CallRequest struct {
	AttendeeName       string `json:"name"`
	PhoneNumber        string `json:"phone"`
	MeetingDescription string `json:"meeting"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (r CallRequest) Normalized() CallRequest {
	return CallRequest{
		AttendeeName:       strings.TrimSpace(r.AttendeeName),
		PhoneNumber:        strings.TrimSpace(r.PhoneNumber),
		MeetingDescription: strings.TrimSpace(r.MeetingDescription),
	}
}

// Validate reports missing fields as an ErrValidation error. The phone number
// is only checked for presence.
func (r CallRequest) Validate() error {
	n := r.Normalized()
	var missing []string
	if n.AttendeeName == "" {
		missing = append(missing, "name")
	}
	if n.PhoneNumber == "" {
		missing = append(missing, "phone")
	}
	if n.MeetingDescription == "" {
		missing = append(missing, "meeting")
	}
	if len(missing) > 0 {
		return Wrap(ErrValidation, "", "call request", "missing "+strings.Join(missing, ", "), nil)
	}
	return nil
}
