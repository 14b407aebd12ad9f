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

var ErrSearchUnavailable = errors.New("search provider is not configured")

// SearchRequest mirrors the Tavily search API surface the pipeline uses.
type SearchRequest struct {
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type SearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}

// Searcher is the web/social search collaborator contract.
type Searcher interface {
	Available() bool
	Search(ctx context.Context, request SearchRequest) (SearchResponse, error)
}

type TavilyClientConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	HTTPClient *http.Client
}

type TavilyClient struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

func NewTavilyClient(config TavilyClientConfig) *TavilyClient {
	if strings.TrimSpace(config.BaseURL) == "" {
		config.BaseURL = "https://api.tavily.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 2
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{}
	}

	return &TavilyClient{
		apiKey:     strings.TrimSpace(config.APIKey),
		baseURL:    strings.TrimSuffix(config.BaseURL, "/"),
		timeout:    config.Timeout,
		maxRetries: config.MaxRetries,
		httpClient: config.HTTPClient,
	}
}

func (c *TavilyClient) Available() bool {
	return c.apiKey != ""
}

func (c *TavilyClient) Search(ctx context.Context, request SearchRequest) (SearchResponse, error) {
	if !c.Available() {
		return SearchResponse{}, ErrSearchUnavailable
	}
	if strings.TrimSpace(request.Query) == "" {
		return SearchResponse{}, errors.New("query is required")
	}
	if request.SearchDepth == "" {
		request.SearchDepth = "advanced"
	}
	if request.MaxResults <= 0 {
		request.MaxResults = 5
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("marshal search payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		response, callErr := c.callSearchAPI(ctx, encoded)
		if callErr == nil {
			return response, nil
		}
		lastErr = callErr

		if !isRetryableProviderError(callErr) || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(350*(attempt+1)) * time.Millisecond
		select {
		case <-ctx.Done():
			return SearchResponse{}, ctx.Err()
		case <-time.After(backoff):
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown search error")
	}
	return SearchResponse{}, lastErr
}

func (c *TavilyClient) callSearchAPI(ctx context.Context, payload []byte) (SearchResponse, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpRequest, err := http.NewRequestWithContext(
		timeoutCtx,
		http.MethodPost,
		c.baseURL+"/search",
		bytes.NewReader(payload),
	)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("create search request: %w", err)
	}
	httpRequest.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpRequest.Header.Set("Content-Type", "application/json")
	httpRequest.Header.Set("Accept", "application/json")

	httpResponse, err := c.httpClient.Do(httpRequest)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return SearchResponse{}, fmt.Errorf("search timeout: %w", err)
		}
		return SearchResponse{}, fmt.Errorf("search transport error: %w", err)
	}
	defer httpResponse.Body.Close()

	body, err := io.ReadAll(httpResponse.Body)
	if err != nil {
		return SearchResponse{}, fmt.Errorf("read search body: %w", err)
	}

	if httpResponse.StatusCode < 200 || httpResponse.StatusCode > 299 {
		return SearchResponse{}, &providerHTTPError{
			Provider:   "tavily",
			StatusCode: httpResponse.StatusCode,
			Message:    boundedMessage(body, 700),
		}
	}

	var decoded SearchResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return SearchResponse{}, fmt.Errorf("decode search response: %w", err)
	}
	return decoded, nil
}
