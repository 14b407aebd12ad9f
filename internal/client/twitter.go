package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

// ErrMicroblogUnavailable is returned when the microblog scout has no
// credentials configured.
var ErrMicroblogUnavailable = errors.New("microblog search is not configured")

// Tweet is a single recent post returned by the microblog scout.
type Tweet struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	AuthorID   string `json:"author_id"`
	CreatedAt  string `json:"created_at"`
	Likes      int    `json:"likes"`
	Retweets   int    `json:"retweets"`
	Replies    int    `json:"replies"`
	Engagement int    `json:"engagement"`
	Topic      string `json:"topic"`
}

// ScoutResult aggregates the top posts found across every scouted topic.
type ScoutResult struct {
	TotalFound int     `json:"total_found"`
	Tweets     []Tweet `json:"tweets"`
	Summary    string  `json:"summary"`
}

// MicroblogSearcher scouts recent microblog posts for a set of topics.
type MicroblogSearcher interface {
	Available() bool
	Scout(ctx context.Context, topics []string, maxPerTopic int) (ScoutResult, error)
}

type TwitterClientConfig struct {
	BearerToken   string
	BaseURL       string
	Timeout       time.Duration
	RateLimitWait time.Duration
}

type TwitterClient struct {
	bearerToken   string
	baseURL       string
	rateLimitWait time.Duration
	httpClient    *http.Client
}

func NewTwitterClient(config TwitterClientConfig) *TwitterClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.twitter.com"
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}
	if config.RateLimitWait <= 0 {
		config.RateLimitWait = 15 * time.Second
	}
	return &TwitterClient{
		bearerToken:   config.BearerToken,
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		rateLimitWait: config.RateLimitWait,
		httpClient:    &http.Client{Timeout: config.Timeout},
	}
}

func (c *TwitterClient) Available() bool {
	return c.bearerToken != ""
}

// Scout runs three query angles per topic against the recent search
// endpoint and keeps the twenty posts with the highest engagement.
func (c *TwitterClient) Scout(ctx context.Context, topics []string, maxPerTopic int) (ScoutResult, error) {
	if !c.Available() {
		return ScoutResult{}, ErrMicroblogUnavailable
	}
	if maxPerTopic <= 0 {
		maxPerTopic = 10
	}

	var collected []Tweet
	totalFound := 0
	for _, topic := range topics {
		queries := []string{
			topic + " AI viral",
			topic + " CEO founder announcement",
			topic + " developer review reaction",
		}
		for _, query := range queries {
			tweets, err := c.searchRecent(ctx, query, maxPerTopic)
			if err != nil {
				var httpErr *providerHTTPError
				if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized {
					return ScoutResult{}, err
				}
				continue
			}
			totalFound += len(tweets)
			for i := range tweets {
				tweets[i].Topic = topic
			}
			collected = append(collected, tweets...)
		}
	}

	sort.SliceStable(collected, func(i, j int) bool {
		return collected[i].Engagement > collected[j].Engagement
	})
	if len(collected) > 20 {
		collected = collected[:20]
	}

	return ScoutResult{
		TotalFound: totalFound,
		Tweets:     collected,
		Summary:    fmt.Sprintf("Found %d recent posts across %d topics, kept top %d by engagement", totalFound, len(topics), len(collected)),
	}, nil
}

func (c *TwitterClient) searchRecent(ctx context.Context, query string, maxResults int) ([]Tweet, error) {
	tweets, err := c.callSearchAPI(ctx, query, maxResults)
	if err == nil {
		return tweets, nil
	}

	var httpErr *providerHTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusTooManyRequests {
		select {
		case <-time.After(c.rateLimitWait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return c.callSearchAPI(ctx, query, maxResults)
	}
	return nil, err
}

type twitterSearchResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount    int `json:"like_count"`
			RetweetCount int `json:"retweet_count"`
			ReplyCount   int `json:"reply_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

func (c *TwitterClient) callSearchAPI(ctx context.Context, query string, maxResults int) ([]Tweet, error) {
	if maxResults < 10 {
		maxResults = 10
	}
	if maxResults > 100 {
		maxResults = 100
	}

	params := url.Values{}
	params.Set("query", query+" -is:retweet lang:en")
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	params.Set("tweet.fields", "public_metrics,created_at,author_id")

	endpoint := c.baseURL + "/2/tweets/search/recent?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build twitter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call twitter api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read twitter response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &providerHTTPError{
			Provider:   "twitter",
			StatusCode: resp.StatusCode,
			Message:    boundedMessage(body, 300),
		}
	}

	var parsed twitterSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode twitter response: %w", err)
	}

	tweets := make([]Tweet, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		metrics := item.PublicMetrics
		tweets = append(tweets, Tweet{
			ID:         item.ID,
			Text:       item.Text,
			AuthorID:   item.AuthorID,
			CreatedAt:  item.CreatedAt,
			Likes:      metrics.LikeCount,
			Retweets:   metrics.RetweetCount,
			Replies:    metrics.ReplyCount,
			Engagement: metrics.LikeCount + 3*metrics.RetweetCount + 2*metrics.ReplyCount,
		})
	}
	return tweets, nil
}

// TweetsToCandidates converts scouted posts into the candidate shape used
// by the ranking stage.
func TweetsToCandidates(tweets []Tweet) []domain.CandidateItem {
	candidates := make([]domain.CandidateItem, 0, len(tweets))
	for _, tweet := range tweets {
		relevance := float64(tweet.Engagement) / 10000.0
		if relevance > 1.0 {
			relevance = 1.0
		}
		var signals []string
		if tweet.Engagement > 100 {
			signals = []string{"likes", "retweets"}
		}
		title := tweet.Text
		if len(title) > 80 {
			title = title[:80]
		}
		candidates = append(candidates, domain.CandidateItem{
			Platform:       "twitter",
			Title:          title,
			URL:            "https://x.com/i/web/status/" + tweet.ID,
			Snippet:        tweet.Text,
			RelevanceScore: relevance,
			ViralSignals:   signals,
			Topic:          tweet.Topic,
			PublishedDate:  tweet.CreatedAt,
		})
	}
	return candidates
}
