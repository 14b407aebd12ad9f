package pipeline

import (
	"fmt"

	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/ranking"
)

// runSmoke returns a fixed, fully populated result without touching any
// external collaborator. Progress events mirror the live stage cadence so
// polling behavior can be exercised end to end.
func (m *Machine) runSmoke(input domain.JobInput, progress ProgressFunc) *Result {
	report(progress, StageDiscovery, 10, "Smoke discovery")
	report(progress, StageDiscovery, 30, "Smoke discovery complete")
	report(progress, StageAnalysis, 40, "Smoke analysis")
	report(progress, StageAnalysis, 60, "Smoke analysis complete")
	report(progress, StagePrompt, 70, "Smoke prompt build")
	report(progress, StagePrompt, 85, "Smoke prompt ready")
	report(progress, StageGeneration, 90, "Smoke generation")
	report(progress, StageGeneration, 98, "Smoke generation complete")

	sources := []SourcePost{
		{
			Title:    fmt.Sprintf("%s feature breakdown that went viral", input.Competitor),
			URL:      "https://www.youtube.com/watch?v=smoke0001",
			Snippet:  "Creator teardown showing why this demo format is getting high watch time.",
			Platform: "youtube",
			Score:    0.91,
		},
		{
			Title:    fmt.Sprintf("Thread: Why builders are switching from %s", input.Competitor),
			URL:      "https://x.com/example/status/1000000000000000001",
			Snippet:  "Founder thread with strong repost velocity and quote tweets.",
			Platform: "twitter",
			Score:    0.87,
		},
		{
			Title:    fmt.Sprintf("Real-world %s vs %s workflow review", input.Competitor, input.Brand),
			URL:      "https://www.reddit.com/r/Entrepreneur/comments/smoke02",
			Snippet:  "Practical benchmark and comments from operators.",
			Platform: "reddit",
			Score:    0.83,
		},
		{
			Title:    fmt.Sprintf("Founder post: 30-day growth playbook in %s", input.Location),
			URL:      "https://www.linkedin.com/posts/example-smoke-03",
			Snippet:  "B2B launch narrative with campaign checkpoints.",
			Platform: "linkedin",
			Score:    0.79,
		},
		{
			Title:    fmt.Sprintf("Case study: converting %s traffic into trials", input.Competitor),
			URL:      "https://example.com/case-study-smoke-04",
			Snippet:  "Landing-page and creative angle optimization case study.",
			Platform: "blogs",
			Score:    0.74,
		},
	}

	stats := ranking.Stats{
		InputCount:     18,
		ScoredCount:    18,
		AfterThreshold: 13,
		ReturnedCount:  10,
		PerPlatform: map[string]int{
			"youtube":  3,
			"twitter":  3,
			"reddit":   2,
			"linkedin": 1,
			"blogs":    1,
		},
	}

	brief := domain.DirectorBrief{
		Hook:    "A bold split-screen opens with an underdog brand overtaking the incumbent in 3 seconds.",
		Vibe:    "Clean Tech x Startup Documentary",
		Energy:  "high",
		Emotion: "confidence",
		Pacing:  "fast",
		Setting: fmt.Sprintf("modern downtown streets in %s", input.Location),
		KeyMoments: []domain.KeyMoment{
			{Time: "0:02", Description: "Fast logo reveal with kinetic camera push-in"},
			{Time: "0:05", Description: "User reaction montage with rapid text overlays"},
			{Time: "0:09", Description: "Billboard hero shot with product CTA"},
		},
		BrandSafety: "safe",
		HookScore:   "8",
		VariationBriefs: []string{
			"Street interview style opener",
			"Founder POV with direct challenge line",
			"Product cinematic with social proof overlays",
		},
	}

	prompt := fmt.Sprintf(
		"Vertical cinematic ad in %s: %s challenges %s with bold typography, "+
			"street-level realism, and high-energy transitions, ending on a hero billboard reveal. "+
			"hyper-realistic cinematic 4K vertical TikTok format",
		input.Location, input.Brand, input.Competitor,
	)

	trendSummary := fmt.Sprintf(
		"Trend monitoring shows sustained short-form momentum around %s. "+
			"Audience response is strongest when %s is positioned as a faster, clearer alternative. "+
			"The winning creative pattern combines blunt hooks, fast cuts, and social-proof framing.",
		input.Competitor, input.Brand,
	)

	trace := newTrace(input, true, true)
	trace.Discovery.Search.Enabled = true
	trace.Discovery.Search.TotalFound = 12
	trace.Discovery.Search.Results = sources
	trace.Discovery.Search.TopURLs = sourceURLs(sources, 5)
	trace.Discovery.Microblog.Enabled = true
	trace.Discovery.Microblog.TotalFound = 6
	trace.Discovery.Microblog.Posts = []MicroblogPost{
		{
			Text:      fmt.Sprintf("Hot take: %s just got leapfrogged for speed.", input.Competitor),
			URL:       "https://x.com/example/status/1000000000000000001",
			Author:    "Example Founder",
			CreatedAt: "2026-02-28T10:00:00Z",
		},
		{
			Text:      fmt.Sprintf("%s positioning is landing well with technical buyers.", input.Brand),
			URL:       "https://x.com/example/status/1000000000000000002",
			Author:    "Growth Operator",
			CreatedAt: "2026-02-28T10:20:00Z",
		},
	}
	trace.Discovery.Microblog.TopURLs = []string{
		"https://x.com/example/status/1000000000000000001",
		"https://x.com/example/status/1000000000000000002",
	}
	trace.Discovery.Microblog.Summary = fmt.Sprintf(
		"Found 6 posts about %s/%s; top posts focus on switching momentum.",
		input.Competitor, input.Brand,
	)
	trace.Discovery.Merged.TotalPosts = 18
	trace.Discovery.Merged.TopPostsAnalyzed = 10
	trace.Discovery.Merged.FilterStats = stats
	trace.Discovery.Merged.Shortlist = sources
	trace.Discovery.MediaURL = fallbackMP4URL
	trace.Analysis.MediaURL = fallbackMP4URL
	trace.Analysis.DirectorBrief = brief
	trace.Analysis.UsedFallback = true
	trace.Generation.Prompt = prompt
	trace.Generation.TaskID = "smoke-task-0001"
	trace.Generation.VideoURL = fallbackMP4URL

	return &Result{
		Status:              "success",
		Brand:               input.Brand,
		Competitor:          input.Competitor,
		Location:            input.Location,
		TrendSummary:        trendSummary,
		SearchPostsFound:    12,
		MicroblogPostsFound: 6,
		TopPostsAnalyzed:    10,
		FilterStats:         stats,
		DirectorBrief:       brief,
		VideoPrompt:         prompt,
		VideoURL:            fallbackMP4URL,
		TopContentSources:   sources,
		Explain:             trace,
	}
}

func sourceURLs(posts []SourcePost, limit int) []string {
	urls := make([]string, 0, limit)
	for _, post := range posts {
		if post.URL == "" {
			continue
		}
		urls = append(urls, post.URL)
		if len(urls) >= limit {
			break
		}
	}
	return urls
}
