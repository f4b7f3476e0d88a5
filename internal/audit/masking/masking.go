package masking

import "strings"

const maskToken = "[REDACTED]"

var sensitiveFragments = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"authorization",
	"card_number",
	"cvv",
	"ssn",
}

// IsSensitiveKey reports whether a payload key matches the redaction heuristic.
func IsSensitiveKey(key string) bool {
	lowered := strings.ToLower(strings.TrimSpace(key))
	for _, fragment := range sensitiveFragments {
		if strings.Contains(lowered, fragment) {
			return true
		}
	}
	return false
}

// Redact returns a copy of the payload with values of sensitive keys replaced.
// Nested maps and slices are walked; non-sensitive values pass through as is.
func Redact(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	out := make(map[string]any, len(input))
	for key, value := range input {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			continue
		}
		if IsSensitiveKey(trimmed) {
			out[trimmed] = maskToken
			continue
		}
		out[trimmed] = redactValue(value)
	}
	return out
}

func redactValue(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return Redact(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, redactValue(item))
		}
		return out
	default:
		return value
	}
}
