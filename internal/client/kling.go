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
)

// ErrGenerationUnavailable is returned when no video generation credentials
// are configured.
var ErrGenerationUnavailable = errors.New("video generation is not configured")

// GenerationRequest describes a single text-to-video task.
type GenerationRequest struct {
	Prompt      string
	Duration    string
	Mode        string
	AspectRatio string
}

// Generation is the finished output of a video task.
type Generation struct {
	TaskID   string `json:"task_id"`
	VideoURL string `json:"video_url"`
}

// VideoGenerator turns a prompt into a rendered video.
type VideoGenerator interface {
	Available() bool
	Generate(ctx context.Context, request GenerationRequest) (Generation, error)
}

type KlingClientConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	PollInterval time.Duration
	MaxWait      time.Duration
	Timeout      time.Duration
}

type KlingClient struct {
	apiKey       string
	baseURL      string
	model        string
	pollInterval time.Duration
	maxWait      time.Duration
	httpClient   *http.Client
}

func NewKlingClient(config KlingClientConfig) *KlingClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.kie.ai/api/v1"
	}
	if config.Model == "" {
		config.Model = "kling-3.0/video"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 15 * time.Second
	}
	if config.MaxWait <= 0 {
		config.MaxWait = 10 * time.Minute
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &KlingClient{
		apiKey:       config.APIKey,
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		model:        config.Model,
		pollInterval: config.PollInterval,
		maxWait:      config.MaxWait,
		httpClient:   &http.Client{Timeout: config.Timeout},
	}
}

func (c *KlingClient) Available() bool {
	return c.apiKey != ""
}

func (c *KlingClient) Model() string {
	return c.model
}

func (c *KlingClient) Endpoint() string {
	return c.baseURL + "/jobs/createTask"
}

// Generate submits a task and polls its record until the provider reports
// success, failure, or the polling budget runs out.
func (c *KlingClient) Generate(ctx context.Context, request GenerationRequest) (Generation, error) {
	if !c.Available() {
		return Generation{}, ErrGenerationUnavailable
	}

	taskID, err := c.createTask(ctx, request)
	if err != nil {
		return Generation{}, err
	}

	videoURL, err := c.pollTask(ctx, taskID)
	if err != nil {
		return Generation{TaskID: taskID}, err
	}
	return Generation{TaskID: taskID, VideoURL: videoURL}, nil
}

type klingCreateRequest struct {
	Model string           `json:"model"`
	Input klingCreateInput `json:"input"`
}

type klingCreateInput struct {
	Prompt      string `json:"prompt"`
	Sound       bool   `json:"sound"`
	AspectRatio string `json:"aspect_ratio"`
	Duration    string `json:"duration"`
	Mode        string `json:"mode"`
}

type klingEnvelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func (c *KlingClient) createTask(ctx context.Context, request GenerationRequest) (string, error) {
	payload := klingCreateRequest{
		Model: c.model,
		Input: klingCreateInput{
			Prompt:      request.Prompt,
			Sound:       false,
			AspectRatio: request.AspectRatio,
			Duration:    request.Duration,
			Mode:        request.Mode,
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode generation request: %w", err)
	}

	data, err := c.callAPI(ctx, http.MethodPost, c.baseURL+"/jobs/createTask", encoded)
	if err != nil {
		return "", err
	}

	var created struct {
		TaskID string `json:"taskId"`
	}
	if err := json.Unmarshal(data, &created); err != nil {
		return "", fmt.Errorf("decode create task response: %w", err)
	}
	if created.TaskID == "" {
		return "", errors.New("generation provider returned no task id")
	}
	return created.TaskID, nil
}

func (c *KlingClient) pollTask(ctx context.Context, taskID string) (string, error) {
	deadline := time.Now().Add(c.maxWait)
	for {
		data, err := c.callAPI(ctx, http.MethodGet, c.baseURL+"/jobs/recordInfo?taskId="+taskID, nil)
		if err != nil {
			return "", err
		}

		var record struct {
			State      string `json:"state"`
			FailMsg    string `json:"failMsg"`
			ResultJSON string `json:"resultJson"`
		}
		if err := json.Unmarshal(data, &record); err != nil {
			return "", fmt.Errorf("decode task record: %w", err)
		}

		switch record.State {
		case "success":
			var result struct {
				ResultURLs []string `json:"resultUrls"`
			}
			if err := json.Unmarshal([]byte(record.ResultJSON), &result); err != nil {
				return "", fmt.Errorf("decode task result: %w", err)
			}
			if len(result.ResultURLs) == 0 {
				return "", errors.New("generation task finished with no result url")
			}
			return result.ResultURLs[0], nil
		case "fail":
			message := record.FailMsg
			if message == "" {
				message = "generation task failed"
			}
			return "", fmt.Errorf("generation task %s failed: %s", taskID, message)
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("generation task %s did not finish within %s", taskID, c.maxWait)
		}
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *KlingClient) callAPI(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generation api: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generation response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &providerHTTPError{
			Provider:   "kling",
			StatusCode: resp.StatusCode,
			Message:    boundedMessage(raw, 300),
		}
	}

	var envelope klingEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode generation envelope: %w", err)
	}
	if envelope.Code != 200 {
		return nil, &providerHTTPError{
			Provider:   "kling",
			StatusCode: envelope.Code,
			Message:    cleanString(envelope.Msg, 300),
		}
	}
	return envelope.Data, nil
}
