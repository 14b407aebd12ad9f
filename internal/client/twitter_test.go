package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const tweetPayload = `{
  "data": [
    {"id": "100", "text": "Acme just shipped something wild", "author_id": "u1", "created_at": "2025-08-20T10:00:00Z",
     "public_metrics": {"like_count": 500, "retweet_count": 100, "reply_count": 50}},
    {"id": "101", "text": "meh", "author_id": "u2", "created_at": "2025-08-21T10:00:00Z",
     "public_metrics": {"like_count": 3, "retweet_count": 0, "reply_count": 1}}
  ]
}`

func TestTwitterScoutRanksByEngagement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2/tweets/search/recent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer bt" {
			t.Errorf("unexpected auth header %q", got)
		}
		query := r.URL.Query().Get("query")
		if !strings.Contains(query, "-is:retweet") {
			t.Errorf("query missing retweet filter: %q", query)
		}
		w.Write([]byte(tweetPayload))
	}))
	defer server.Close()

	client := NewTwitterClient(TwitterClientConfig{BearerToken: "bt", BaseURL: server.URL})
	result, err := client.Scout(context.Background(), []string{"acme"}, 10)
	if err != nil {
		t.Fatalf("scout failed: %v", err)
	}

	// 3 query angles per topic, 2 tweets each.
	if result.TotalFound != 6 {
		t.Errorf("expected total_found 6, got %d", result.TotalFound)
	}
	if len(result.Tweets) != 6 {
		t.Fatalf("expected 6 kept tweets, got %d", len(result.Tweets))
	}
	top := result.Tweets[0]
	if top.ID != "100" {
		t.Errorf("expected highest engagement tweet first, got %+v", top)
	}
	// 500 likes + 3*100 retweets + 2*50 replies.
	if top.Engagement != 900 {
		t.Errorf("expected engagement 900, got %d", top.Engagement)
	}
	if top.Topic != "acme" {
		t.Errorf("expected topic tagged on tweet, got %q", top.Topic)
	}
}

func TestTwitterScoutRetriesOnceAfterRateLimit(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(tweetPayload))
	}))
	defer server.Close()

	client := NewTwitterClient(TwitterClientConfig{
		BearerToken:   "bt",
		BaseURL:       server.URL,
		RateLimitWait: 5 * time.Millisecond,
	})
	result, err := client.Scout(context.Background(), []string{"acme"}, 10)
	if err != nil {
		t.Fatalf("scout failed: %v", err)
	}
	if len(result.Tweets) == 0 {
		t.Fatal("expected tweets after rate limit retry")
	}
}

func TestTwitterScoutFailsHardOnUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewTwitterClient(TwitterClientConfig{BearerToken: "bad", BaseURL: server.URL})
	if _, err := client.Scout(context.Background(), []string{"acme"}, 10); err == nil {
		t.Fatal("expected error for unauthorized credentials")
	}
}

func TestTweetsToCandidates(t *testing.T) {
	long := strings.Repeat("x", 120)
	candidates := TweetsToCandidates([]Tweet{
		{ID: "1", Text: long, Engagement: 25000, Topic: "acme", CreatedAt: "2025-08-20T10:00:00Z"},
		{ID: "2", Text: "quiet post", Engagement: 40},
	})
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	hot := candidates[0]
	if hot.Platform != "twitter" {
		t.Errorf("unexpected platform %q", hot.Platform)
	}
	if hot.RelevanceScore != 1.0 {
		t.Errorf("expected relevance capped at 1.0, got %v", hot.RelevanceScore)
	}
	if len(hot.Title) != 80 {
		t.Errorf("expected title truncated to 80 chars, got %d", len(hot.Title))
	}
	if len(hot.ViralSignals) != 2 {
		t.Errorf("expected viral signals above threshold, got %v", hot.ViralSignals)
	}
	if hot.URL != "https://x.com/i/web/status/1" {
		t.Errorf("unexpected url %q", hot.URL)
	}

	quiet := candidates[1]
	if quiet.RelevanceScore != 0.004 {
		t.Errorf("expected relevance 0.004, got %v", quiet.RelevanceScore)
	}
	if quiet.ViralSignals != nil {
		t.Errorf("expected no signals for low engagement, got %v", quiet.ViralSignals)
	}
}
