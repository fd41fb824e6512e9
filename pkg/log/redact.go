package log

import (
	"log/slog"
	"regexp"
	"strings"
)

const redacted = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	// Anthropic
	regexp.MustCompile(`sk-ant-[a-zA-Z0-9_-]{20,}`),
	// Google AI
	regexp.MustCompile(`AIza[a-zA-Z0-9_-]{35}`),
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	regexp.MustCompile(`(?i)api[_-]?key["'\s:=]+[a-zA-Z0-9_-]{20,}`),
}

// Redact replaces API keys and bearer tokens in s.
func Redact(s string) string {
	for _, p := range secretPatterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if isSecretKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(Redact(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			a.Value = slog.StringValue(Redact(err.Error()))
		}
	}
	return a
}

func isSecretKey(key string) bool {
	k := strings.ToLower(key)
	return k == "api_key" || k == "apikey" || k == "x-api-key" || strings.HasSuffix(k, "_token")
}
