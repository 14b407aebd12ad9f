package pipeline

import (
	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/ranking"
)

// Trace is the per-run explain record. It accumulates during a run and is
// frozen into the stored result at completion.
type Trace struct {
	Discovery  DiscoveryTrace  `json:"discovery"`
	Analysis   AnalysisTrace   `json:"analysis"`
	Generation GenerationTrace `json:"generation"`
	Errors     []StageError    `json:"errors"`
}

type DiscoveryTrace struct {
	Search    SearchTrace    `json:"search"`
	Microblog MicroblogTrace `json:"microblog"`
	Merged    MergedTrace    `json:"merged"`
	MediaURL  string         `json:"media_url"`
}

type SearchTrace struct {
	Enabled     bool            `json:"enabled"`
	Recency     string          `json:"recency"`
	Platforms   map[string]bool `json:"platforms"`
	QueryTopics []string        `json:"query_topics"`
	TotalFound  int             `json:"total_found"`
	Results     []SourcePost    `json:"results"`
	TopURLs     []string        `json:"top_urls"`
}

type MicroblogTrace struct {
	Enabled    bool            `json:"enabled"`
	Topics     []string        `json:"topics"`
	TotalFound int             `json:"total_found"`
	Posts      []MicroblogPost `json:"posts"`
	TopURLs    []string        `json:"top_urls"`
	Summary    string          `json:"summary"`
}

type MicroblogPost struct {
	Text      string `json:"text"`
	URL       string `json:"url"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

type MergedTrace struct {
	TotalPosts       int           `json:"total_posts"`
	TopPostsAnalyzed int           `json:"top_posts_analyzed"`
	FilterStats      ranking.Stats `json:"filter_stats"`
	Shortlist        []SourcePost  `json:"shortlist"`
}

type AnalysisTrace struct {
	Provider      string               `json:"provider"`
	Model         string               `json:"model"`
	MediaURL      string               `json:"media_url"`
	DirectorBrief domain.DirectorBrief `json:"director_brief"`
	UsedFallback  bool                 `json:"used_fallback"`
}

type GenerationTrace struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	Endpoint    string `json:"endpoint"`
	Prompt      string `json:"prompt"`
	Duration    string `json:"duration"`
	Mode        string `json:"mode"`
	AspectRatio string `json:"aspect_ratio"`
	TaskID      string `json:"task_id,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
}

type StageError struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

func newTrace(input domain.JobInput, searchEnabled, microblogEnabled bool) *Trace {
	platforms := make(map[string]bool, len(searchPlatforms))
	for _, platform := range searchPlatforms {
		platforms[platform.name] = platform.enabled
	}
	return &Trace{
		Discovery: DiscoveryTrace{
			Search: SearchTrace{
				Enabled:     searchEnabled,
				Recency:     "week",
				Platforms:   platforms,
				QueryTopics: discoveryTopics(input),
				Results:     []SourcePost{},
				TopURLs:     []string{},
			},
			Microblog: MicroblogTrace{
				Enabled: microblogEnabled,
				Topics:  microblogTopics(input),
				Posts:   []MicroblogPost{},
				TopURLs: []string{},
			},
			Merged: MergedTrace{
				Shortlist: []SourcePost{},
			},
		},
		Analysis: AnalysisTrace{
			Provider: "reka",
		},
		Generation: GenerationTrace{
			Provider:    "kling",
			Duration:    generationDuration,
			AspectRatio: generationAspectRatio,
			Mode:        "std",
		},
		Errors: []StageError{},
	}
}
