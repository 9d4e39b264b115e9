package entity

import "strings"

type Severity string

const (
	SeverityStream  Severity = "stream"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// LogLine is one line of console output.
type LogLine struct {
	Index    int      `json:"index"`
	Text     string   `json:"text"`
	Severity Severity `json:"severity"`
}

// ClassifyLine guesses a severity tag for a line of job output.
func ClassifyLine(text string) Severity {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "fatal:"), strings.Contains(lower, "error:"),
		strings.Contains(lower, "traceback (most recent call last)"):
		return SeverityError
	case strings.Contains(lower, "warning:"), strings.Contains(lower, "[warning]"):
		return SeverityWarning
	}
	return SeverityInfo
}
