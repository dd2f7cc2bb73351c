// Package masking keeps secret material out of persisted audit payloads.
package masking

import "strings"

const maskToken = "****"

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"password_hash": {},
	"new_password":  {},
	"old_password":  {},
	"secret":        {},
	"client_secret": {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"api_key":       {},
	"authorization": {},
	"credentials":   {},
}

// IsSensitiveKey reports whether a payload key is known to carry secrets.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// Sanitize returns a copy of the input with known-sensitive keys stripped
// at every nesting level. The input map is never mutated.
func Sanitize(input map[string]any) map[string]any {
	if len(input) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(input))
	for key, value := range input {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}
		if IsSensitiveKey(trimmedKey) {
			continue
		}
		sanitized[trimmedKey] = sanitizeValue(value)
	}

	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	if len(trimmed) <= 4 {
		return maskToken
	}
	return maskToken + trimmed[len(trimmed)-4:]
}

func sanitizeValue(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return Sanitize(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}
