package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

// ErrAnalysisUnavailable is returned when no media analysis credentials
// are configured.
var ErrAnalysisUnavailable = errors.New("media analysis is not configured")

// MediaAnalyzer inspects a video and produces a structured director brief.
type MediaAnalyzer interface {
	Available() bool
	AnalyzeVideo(ctx context.Context, mediaURL string) (domain.DirectorBrief, error)
}

type RekaClientConfig struct {
	APIKey         string
	FallbackAPIKey string
	BaseURL        string
	Model          string
	Timeout        time.Duration
}

type RekaClient struct {
	apiKey         string
	fallbackAPIKey string
	baseURL        string
	model          string
	httpClient     *http.Client
}

func NewRekaClient(config RekaClientConfig) *RekaClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.reka.ai/v1"
	}
	if config.Model == "" {
		config.Model = "reka-flash"
	}
	if config.Timeout <= 0 {
		config.Timeout = 90 * time.Second
	}
	return &RekaClient{
		apiKey:         config.APIKey,
		fallbackAPIKey: config.FallbackAPIKey,
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		model:          config.Model,
		httpClient:     &http.Client{Timeout: config.Timeout},
	}
}

func (c *RekaClient) Available() bool {
	return c.apiKey != "" || c.fallbackAPIKey != ""
}

func (c *RekaClient) Model() string {
	return c.model
}

const directorBriefInstruction = `Watch this video and produce a director brief as a single JSON object with exactly these keys: hook (the opening 3 seconds described in one sentence), vibe, energy, emotion, pacing, setting, key_moments (array of objects with time and description), brand_safety, hook_score (string, 1-10), variation_briefs (array of 3 short alternative treatments). Respond with JSON only, no commentary.`

// AnalyzeVideo sends the media URL for multimodal analysis and decodes the
// returned director brief. A configured fallback key is tried once when the
// primary key is rejected.
func (c *RekaClient) AnalyzeVideo(ctx context.Context, mediaURL string) (domain.DirectorBrief, error) {
	if !c.Available() {
		return domain.DirectorBrief{}, ErrAnalysisUnavailable
	}

	keys := make([]string, 0, 2)
	if c.apiKey != "" {
		keys = append(keys, c.apiKey)
	}
	if c.fallbackAPIKey != "" && c.fallbackAPIKey != c.apiKey {
		keys = append(keys, c.fallbackAPIKey)
	}

	var lastErr error
	for _, key := range keys {
		brief, err := c.callChatAPI(ctx, key, mediaURL)
		if err == nil {
			return brief, nil
		}
		lastErr = err

		var httpErr *providerHTTPError
		if errors.As(err, &httpErr) && (httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden) {
			continue
		}
		break
	}
	return domain.DirectorBrief{}, lastErr
}

type rekaChatRequest struct {
	Model    string            `json:"model"`
	Messages []rekaChatMessage `json:"messages"`
}

type rekaChatMessage struct {
	Role    string            `json:"role"`
	Content []rekaContentPart `json:"content"`
}

type rekaContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}

func (c *RekaClient) callChatAPI(ctx context.Context, apiKey, mediaURL string) (domain.DirectorBrief, error) {
	payload := rekaChatRequest{
		Model: c.model,
		Messages: []rekaChatMessage{{
			Role: "user",
			Content: []rekaContentPart{
				{Type: "text", Text: directorBriefInstruction},
				{Type: "video_url", VideoURL: mediaURL},
			},
		}},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return domain.DirectorBrief{}, fmt.Errorf("encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat", bytes.NewReader(encoded))
	if err != nil {
		return domain.DirectorBrief{}, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DirectorBrief{}, fmt.Errorf("call analysis api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.DirectorBrief{}, fmt.Errorf("read analysis response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.DirectorBrief{}, &providerHTTPError{
			Provider:   "reka",
			StatusCode: resp.StatusCode,
			Message:    boundedMessage(body, 300),
		}
	}

	text, err := extractChatText(body)
	if err != nil {
		return domain.DirectorBrief{}, err
	}

	var brief domain.DirectorBrief
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &brief); err != nil {
		return domain.DirectorBrief{}, fmt.Errorf("decode director brief: %w", err)
	}
	return brief, nil
}

// extractChatText tolerates both response envelopes the chat API has used:
// responses[0].message.content and choices[0].message.content, where content
// is either a plain string or a list of typed parts.
func extractChatText(body []byte) (string, error) {
	var envelope struct {
		Responses []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"responses"`
		Choices []struct {
			Message struct {
				Content json.RawMessage `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("decode analysis envelope: %w", err)
	}

	var content json.RawMessage
	switch {
	case len(envelope.Responses) > 0:
		content = envelope.Responses[0].Message.Content
	case len(envelope.Choices) > 0:
		content = envelope.Choices[0].Message.Content
	default:
		return "", errors.New("analysis response contained no messages")
	}

	var asString string
	if err := json.Unmarshal(content, &asString); err == nil {
		return asString, nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(content, &parts); err == nil {
		var builder strings.Builder
		for _, part := range parts {
			builder.WriteString(part.Text)
		}
		if builder.Len() > 0 {
			return builder.String(), nil
		}
	}
	return "", errors.New("analysis response content was empty")
}

func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
