package redact

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Marker replaces string values that carry bearer credentials.
const Marker = "[REDACTED]"

var exactSensitiveKeys = map[string]struct{}{
	"api_key":       {},
	"apikey":        {},
	"token":         {},
	"access_token":  {},
	"refresh_token": {},
	"secret":        {},
	"client_secret": {},
	"authorization": {},
	"bearer":        {},
	"password":      {},
	"private_key":   {},
}

var sensitiveKeySuffixes = []string{
	"_api_key",
	"_apikey",
	"_token",
	"_secret",
	"_password",
}

// A string value is treated as a credential when "bearer " is followed by a
// token containing a digit. Prose such as "bearer token" survives.
var bearerCredentialPattern = regexp.MustCompile(`(?i)\bbearer\s+\S*[0-9]\S*`)

// JSON decodes a JSON payload, strips credential-shaped data and re-encodes.
// Non-JSON payloads are returned unchanged.
func JSON(payload json.RawMessage) json.RawMessage {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return append(json.RawMessage(nil), payload...)
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return append(json.RawMessage(nil), payload...)
	}

	cleaned := Value(decoded)
	encoded, err := json.Marshal(cleaned)
	if err != nil {
		return append(json.RawMessage(nil), payload...)
	}
	return encoded
}

// Value recursively removes sensitive keys from mappings and masks
// credential-bearing strings. Sequences keep order and length; other
// scalars pass through unchanged. Input is assumed acyclic.
func Value(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		cleaned := make(map[string]any, len(typed))
		for key, child := range typed {
			if IsSensitiveKey(key) {
				continue
			}
			cleaned[key] = Value(child)
		}
		return cleaned
	case []any:
		cleaned := make([]any, 0, len(typed))
		for _, child := range typed {
			cleaned = append(cleaned, Value(child))
		}
		return cleaned
	case string:
		return redactString(typed)
	default:
		return value
	}
}

// IsSensitiveKey reports whether a mapping key must be dropped entirely.
func IsSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if _, exact := exactSensitiveKeys[normalized]; exact {
		return true
	}
	for _, suffix := range sensitiveKeySuffixes {
		if strings.HasSuffix(normalized, suffix) {
			return true
		}
	}
	return strings.Contains(normalized, "authorization") || strings.Contains(normalized, "bearer")
}

func redactString(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if strings.HasPrefix(normalized, "bearer ") {
		return Marker
	}
	if bearerCredentialPattern.MatchString(value) {
		return Marker
	}
	return value
}
