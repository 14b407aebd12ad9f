package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/trendhijack/trendhijack-back/internal/client"
	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/ranking"
)

var searchPlatforms = []struct {
	name    string
	domains []string
	enabled bool
}{
	{"twitter", []string{"x.com", "twitter.com"}, true},
	{"reddit", []string{"reddit.com"}, true},
	{"youtube", []string{"youtube.com", "youtu.be"}, true},
	{"linkedin", []string{"linkedin.com"}, true},
	{"blogs", nil, true},
	{"instagram", []string{"instagram.com"}, false},
}

var rankingOptions = ranking.Options{
	TopN:           15,
	MinScore:       0.10,
	MaxPerPlatform: 5,
}

func discoveryTopics(input domain.JobInput) []string {
	return []string{
		input.Competitor,
		input.Competitor + " vs " + input.Brand,
		input.Brand + " alternative",
	}
}

func microblogTopics(input domain.JobInput) []string {
	return []string{
		input.Competitor,
		input.Brand,
		input.Competitor + " " + input.Location,
	}
}

type discoveryOutput struct {
	shortlist      []domain.CandidateItem
	stats          ranking.Stats
	searchFound    int
	microblogFound int
	trendSummary   string
	mediaURL       string
}

// runDiscovery queries the search collaborator across every enabled
// platform and topic, merges in microblog posts when that source is
// configured, ranks the combined list, and probes for one playable media
// URL for the analysis stage.
func (m *Machine) runDiscovery(ctx context.Context, input domain.JobInput, trace *Trace) (*discoveryOutput, error) {
	if m.search == nil || !m.search.Available() {
		return nil, client.ErrSearchUnavailable
	}

	candidates := m.collectSearchPosts(ctx, input, trace)
	trace.Discovery.Search.TotalFound = len(candidates)
	trace.Discovery.Search.Results = normalizePosts(candidates)
	trace.Discovery.Search.TopURLs = topURLs(candidates, 5)

	var microblogCandidates []domain.CandidateItem
	microblogSummary := ""
	if m.microblog != nil && m.microblog.Available() {
		scout, err := m.microblog.Scout(ctx, microblogTopics(input), 10)
		if err != nil {
			return nil, fmt.Errorf("microblog scout: %w", err)
		}
		microblogSummary = scout.Summary
		microblogCandidates = client.TweetsToCandidates(scout.Tweets)

		trace.Discovery.Microblog.TotalFound = scout.TotalFound
		trace.Discovery.Microblog.Summary = scout.Summary
		for _, tweet := range scout.Tweets {
			trace.Discovery.Microblog.Posts = append(trace.Discovery.Microblog.Posts, MicroblogPost{
				Text:      truncate(tweet.Text, 400),
				URL:       truncate("https://x.com/i/web/status/"+tweet.ID, 500),
				Author:    truncate(tweet.AuthorID, 120),
				CreatedAt: truncate(tweet.CreatedAt, 80),
			})
		}
		trace.Discovery.Microblog.TopURLs = topURLs(microblogCandidates, 5)
	}

	merged := append(append([]domain.CandidateItem{}, candidates...), microblogCandidates...)
	trace.Discovery.Merged.TotalPosts = len(merged)

	shortlist, stats := ranking.FilterAndRank(merged, rankingOptions)
	trace.Discovery.Merged.TopPostsAnalyzed = len(shortlist)
	trace.Discovery.Merged.FilterStats = stats
	trace.Discovery.Merged.Shortlist = normalizePosts(shortlist)

	mediaURL := m.findDirectMediaURL(ctx, input.Competitor)
	trace.Discovery.MediaURL = mediaURL

	summary := fmt.Sprintf("Search: %d posts across platforms.", len(candidates))
	if microblogSummary != "" {
		summary += " Microblog: " + microblogSummary
	}

	return &discoveryOutput{
		shortlist:      shortlist,
		stats:          stats,
		searchFound:    len(candidates),
		microblogFound: len(microblogCandidates),
		trendSummary:   summary,
		mediaURL:       mediaURL,
	}, nil
}

// collectSearchPosts runs one query per topic and enabled platform. A
// failed query is skipped so one flaky platform does not abort discovery.
func (m *Machine) collectSearchPosts(ctx context.Context, input domain.JobInput, trace *Trace) []domain.CandidateItem {
	var candidates []domain.CandidateItem
	seen := make(map[string]bool)

	for _, topic := range discoveryTopics(input) {
		for _, platform := range searchPlatforms {
			if !platform.enabled {
				continue
			}

			response, err := m.search.Search(ctx, client.SearchRequest{
				Query:          fmt.Sprintf("%s %s discussion last week", topic, platform.name),
				SearchDepth:    "advanced",
				MaxResults:     5,
				IncludeDomains: platform.domains,
			})
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return candidates
				}
				continue
			}

			for _, result := range response.Results {
				if result.URL == "" || seen[result.URL] {
					continue
				}
				seen[result.URL] = true

				candidates = append(candidates, domain.CandidateItem{
					Platform:       platform.name,
					Title:          result.Title,
					URL:            result.URL,
					Snippet:        truncate(result.Content, 400),
					RelevanceScore: result.Score,
					ViralSignals:   contentViralSignals(result.Content),
					Topic:          topic,
					PublishedDate:  result.PublishedDate,
				})
			}
		}
	}
	return candidates
}

func contentViralSignals(content string) []string {
	lowered := strings.ToLower(content)
	var signals []string
	if strings.Contains(lowered, "like") {
		signals = append(signals, "likes")
	}
	if strings.Contains(lowered, "retweet") || strings.Contains(lowered, "share") {
		signals = append(signals, "retweets")
	}
	return signals
}

// findDirectMediaURL probes stock-footage sites for a directly playable
// file; the analysis stage always has the fixed fallback to work with.
func (m *Machine) findDirectMediaURL(ctx context.Context, competitor string) string {
	response, err := m.search.Search(ctx, client.SearchRequest{
		Query:       fmt.Sprintf("%s tech demo site:pexels.com OR site:pixabay.com", competitor),
		SearchDepth: "basic",
		MaxResults:  5,
	})
	if err != nil {
		m.logger.Warn("direct media probe failed", slog.String("error", err.Error()))
		return fallbackMP4URL
	}
	for _, result := range response.Results {
		if strings.HasSuffix(result.URL, ".mp4") {
			return result.URL
		}
	}
	return fallbackMP4URL
}

func topURLs(items []domain.CandidateItem, limit int) []string {
	urls := make([]string, 0, limit)
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		urls = append(urls, item.URL)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}
