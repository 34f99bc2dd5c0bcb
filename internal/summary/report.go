package summary

import (
	"strings"
	"time"
)

const (
	reportTitle       = "# Meeting Preparation Call Report"
	summaryHeading    = "## Summary"
	transcriptHeading = "## Transcript"
	reportTimeLayout  = "2006-01-02 15:04:05"
)

// ReportInput carries every field rendered into a report document.
type ReportInput struct {
	AttendeeName       string
	PhoneNumber        string
	MeetingDescription string
	Timestamp          time.Time
	Transcript         string
	Summary            string
}

// FormatReport renders the markdown report document. The summary is written
// verbatim; transcript lines are block-quoted so they can never be mistaken
// for a section heading.
func FormatReport(in ReportInput) string {
	var b strings.Builder
	b.WriteString(reportTitle)
	b.WriteString("\n\n")
	writeHeaderField(&b, "Attendee", in.AttendeeName)
	writeHeaderField(&b, "Phone", in.PhoneNumber)
	writeHeaderField(&b, "Meeting", in.MeetingDescription)
	writeHeaderField(&b, "Call Date", in.Timestamp.Format(reportTimeLayout))
	b.WriteString("\n---\n\n")

	b.WriteString(summaryHeading)
	b.WriteString("\n\n")
	b.WriteString(in.Summary)
	b.WriteString("\n\n")

	b.WriteString(transcriptHeading)
	b.WriteString("\n\n")
	transcript := strings.ReplaceAll(in.Transcript, "\r\n", "\n")
	for _, line := range strings.Split(transcript, "\n") {
		if line == "" {
			b.WriteString(">\n")
			continue
		}
		b.WriteString("> ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeHeaderField(b *strings.Builder, label, value string) {
	value = strings.Join(strings.Fields(value), " ")
	b.WriteString("**")
	b.WriteString(label)
	b.WriteString(":** ")
	b.WriteString(value)
	b.WriteString("  \n")
}

// ParseSummary extracts the summary section from a document produced by
// FormatReport. It reports false when the document has no summary section.
func ParseSummary(doc string) (string, bool) {
	startMarker := "\n" + summaryHeading + "\n\n"
	start := strings.Index(doc, startMarker)
	if start < 0 {
		return "", false
	}
	body := doc[start+len(startMarker):]

	endMarker := "\n\n" + transcriptHeading + "\n\n"
	end := strings.LastIndex(body, endMarker)
	if end < 0 {
		return "", false
	}
	return body[:end], true
}
