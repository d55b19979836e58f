package logging

import (
	"io"
	"regexp"
)

const redactedPlaceholder = "***REDACTED***"

// redactRule pairs a credential pattern with its replacement template.
type redactRule struct {
	pattern *regexp.Regexp
	replace []byte
}

// Patterns cover key=value and JSON-style assignments for common credential
// field names, plus bearer tokens and Authorization headers.
var redactRules = []redactRule{
	{regexp.MustCompile(`(?i)(client_id["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(client_secret["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(api_key["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(token["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(password["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(secret["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
	{regexp.MustCompile(`(?i)(Bearer\s+)([A-Za-z0-9\-._~+/]+=*)`), []byte("$1" + redactedPlaceholder)},
	{regexp.MustCompile(`(?i)(Authorization["']?\s*[:=]\s*["']?)([^"'}\s]+)(["']?)`), []byte("$1" + redactedPlaceholder + "$3")},
}

// SanitizingWriter masks credential material in everything written through
// it. It assumes whole log lines per Write call, which zerolog guarantees.
type SanitizingWriter struct {
	w io.Writer
}

// NewSanitizingWriter wraps w with credential redaction.
func NewSanitizingWriter(w io.Writer) *SanitizingWriter {
	return &SanitizingWriter{w: w}
}

// Write applies the redaction rules and forwards the result.
// The reported length refers to the original input so callers never
// observe a short write from redaction shrinking the payload.
func (s *SanitizingWriter) Write(p []byte) (int, error) {
	out := p
	for _, rule := range redactRules {
		out = rule.pattern.ReplaceAll(out, rule.replace)
	}
	if _, err := s.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Redact applies the redaction rules to a single string. Useful for
// sanitizing values before they are attached as log fields.
func Redact(s string) string {
	out := []byte(s)
	for _, rule := range redactRules {
		out = rule.pattern.ReplaceAll(out, rule.replace)
	}
	return string(out)
}
