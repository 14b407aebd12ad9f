package redact

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestJSONDropsSensitiveKeysAtEveryDepth(t *testing.T) {
	payload := json.RawMessage(`{
		"api_key": "abc",
		"nested": {
			"tavily_api_key": "def",
			"Authorization": "Bearer abc123",
			"title": "keep me"
		},
		"items": [{"client_secret": "ghi", "url": "https://example.com"}]
	}`)

	cleaned := JSON(payload)

	var decoded map[string]any
	if err := json.Unmarshal(cleaned, &decoded); err != nil {
		t.Fatalf("unmarshal cleaned payload: %v", err)
	}

	raw := string(cleaned)
	for _, forbidden := range []string{"api_key", "Authorization", "client_secret", "abc123"} {
		if strings.Contains(raw, forbidden) {
			t.Fatalf("expected %q to be removed, got %s", forbidden, raw)
		}
	}

	nested, ok := decoded["nested"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested map to survive, got %v", decoded)
	}
	if nested["title"] != "keep me" {
		t.Fatalf("expected non-sensitive field to survive, got %v", nested)
	}
}

func TestValueMasksBearerHeaderButKeepsProse(t *testing.T) {
	input := map[string]any{
		"Authorization": "Bearer abc123",
		"title":         "hello bearer token world",
	}

	cleaned, ok := Value(input).(map[string]any)
	if !ok {
		t.Fatalf("expected map output")
	}
	if _, exists := cleaned["Authorization"]; exists {
		t.Fatalf("expected Authorization key to be dropped")
	}
	if cleaned["title"] != "hello bearer token world" {
		t.Fatalf("expected prose mentioning bearer to survive, got %v", cleaned["title"])
	}
}

func TestValueMasksEmbeddedBearerCredential(t *testing.T) {
	cleaned := Value("request failed with header Bearer tok3n-xyz included")
	if cleaned != Marker {
		t.Fatalf("expected embedded credential to be masked, got %v", cleaned)
	}
}

func TestValuePreservesSequenceOrderAndScalars(t *testing.T) {
	input := []any{"first", float64(2), true, nil, "Bearer xyz987"}
	cleaned, ok := Value(input).([]any)
	if !ok {
		t.Fatalf("expected slice output")
	}
	expected := []any{"first", float64(2), true, nil, Marker}
	if !reflect.DeepEqual(cleaned, expected) {
		t.Fatalf("expected %v, got %v", expected, cleaned)
	}
}

func TestValueIsIdempotent(t *testing.T) {
	input := map[string]any{
		"password": "hunter2",
		"header":   "Bearer 12345",
		"list":     []any{map[string]any{"session_token": "x"}, "plain"},
		"title":    "hello world",
	}

	once := Value(input)
	twice := Value(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected redaction to be idempotent: %v vs %v", once, twice)
	}
}

func TestIsSensitiveKeyMatchesSuffixesAndSubstrings(t *testing.T) {
	sensitive := []string{"api_key", "KIE_API_KEY", "twitter_bearer_token", "proxy-authorization", "refresh_token", "db_password"}
	for _, key := range sensitive {
		if !IsSensitiveKey(key) {
			t.Fatalf("expected %q to be sensitive", key)
		}
	}

	safe := []string{"title", "url", "tokenizer", "secretary_notes"}
	for _, key := range safe {
		if IsSensitiveKey(key) {
			t.Fatalf("expected %q to be safe", key)
		}
	}
}

func TestJSONReturnsNonJSONPayloadUnchanged(t *testing.T) {
	payload := json.RawMessage("not json at all")
	cleaned := JSON(payload)
	if string(cleaned) != string(payload) {
		t.Fatalf("expected non-JSON payload unchanged, got %s", cleaned)
	}
}
