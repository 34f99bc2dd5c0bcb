package report

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// TimestampLayout prefixes every report file name.
	TimestampLayout = "20060102_150405"
	// Extension is the report document suffix.
	Extension    = ".md"
	fallbackSlug = "attendee"
)

var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", `\`, "_")

// Slug makes an attendee name safe for use in a file name. Spaces and path
// separators become underscores and control characters are dropped. Other
// runes are kept; the name is composed to NFC so "José" typed either way maps
// to the same file name.
func Slug(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, norm.NFC.String(strings.TrimSpace(name)))
	cleaned = slugReplacer.Replace(cleaned)
	if strings.Trim(cleaned, "_.") == "" {
		return fallbackSlug
	}
	return cleaned
}

// FileName builds "<YYYYMMDD_HHMMSS>_<slug>.md" for a report.
func FileName(ts time.Time, attendeeName string) string {
	return ts.Format(TimestampLayout) + "_" + Slug(attendeeName) + Extension
}
