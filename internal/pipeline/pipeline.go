package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trendhijack/trendhijack-back/internal/client"
	"github.com/trendhijack/trendhijack-back/internal/domain"
	"github.com/trendhijack/trendhijack-back/internal/quality"
	"github.com/trendhijack/trendhijack-back/internal/ranking"
)

// ExecutionMode selects between the real pipeline and the synthetic smoke
// run used for environment checks. It is fixed at construction, not read
// from process state mid-run.
type ExecutionMode int

const (
	ModeLive ExecutionMode = iota
	ModeSmoke
)

// Stage names used in progress events and trace error entries.
const (
	StageDiscovery  = "discovery"
	StageAnalysis   = "analysis"
	StagePrompt     = "prompt"
	StageGeneration = "generation"
)

const (
	fallbackMP4URL = "https://videos.pexels.com/video-files/3571264/3571264-hd_1920_1080_30fps.mp4"

	generationDuration    = "5"
	generationAspectRatio = "9:16"
)

// ProgressFunc receives stage progress as the run advances.
type ProgressFunc func(step string, percent int, message string)

// StageFailure is the error returned when a stage aborts the run. It carries
// the trace accumulated up to the failure so the caller can log it.
type StageFailure struct {
	Stage string
	Trace *Trace
	Err   error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageFailure) Unwrap() error {
	return e.Err
}

type Config struct {
	Mode      ExecutionMode
	Search    client.Searcher
	Microblog client.MicroblogSearcher
	Analyzer  client.MediaAnalyzer
	Generator client.VideoGenerator
	Validator *quality.BriefValidator
	Logger    *slog.Logger
}

// Machine runs the four content stages in order. It holds no per-run state,
// so one Machine serves any number of concurrent jobs.
type Machine struct {
	mode      ExecutionMode
	search    client.Searcher
	microblog client.MicroblogSearcher
	analyzer  client.MediaAnalyzer
	generator client.VideoGenerator
	validator *quality.BriefValidator
	logger    *slog.Logger
}

func New(config Config) *Machine {
	if config.Validator == nil {
		config.Validator = quality.NewBriefValidator()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Machine{
		mode:      config.Mode,
		search:    config.Search,
		microblog: config.Microblog,
		analyzer:  config.Analyzer,
		generator: config.Generator,
		validator: config.Validator,
		logger:    config.Logger,
	}
}

func (m *Machine) Run(ctx context.Context, input domain.JobInput) (*Result, error) {
	return m.RunWithProgress(ctx, input, nil)
}

// RunWithProgress executes the pipeline, reporting native stage progress
// through the callback when one is given.
func (m *Machine) RunWithProgress(ctx context.Context, input domain.JobInput, progress ProgressFunc) (*Result, error) {
	m.logger.Info("pipeline start",
		slog.String("brand", input.Brand),
		slog.String("competitor", input.Competitor),
		slog.String("location", input.Location),
	)

	if m.mode == ModeSmoke {
		return m.runSmoke(input, progress), nil
	}

	trace := newTrace(input, m.search != nil && m.search.Available(), m.microblog != nil && m.microblog.Available())

	report(progress, StageDiscovery, 10, "Discovering trends across platforms")
	discovery, err := m.runDiscovery(ctx, input, trace)
	if err != nil {
		return nil, m.failStage(trace, StageDiscovery, err)
	}
	report(progress, StageDiscovery, 30, "Discovery complete")

	report(progress, StageAnalysis, 40, "Analyzing source media")
	brief := m.runAnalysis(ctx, discovery.mediaURL, trace)
	report(progress, StageAnalysis, 60, "Analysis complete")

	report(progress, StagePrompt, 70, "Building generation prompt")
	prompt := buildVideoPrompt(brief, input.Brand, input.Location)
	if len(discovery.shortlist) > 0 && discovery.shortlist[0].Title != "" {
		prompt = fmt.Sprintf("%s. Context from top trend title: %s.", prompt, discovery.shortlist[0].Title)
	}
	trace.Generation.Prompt = prompt
	report(progress, StagePrompt, 85, "Prompt ready")

	report(progress, StageGeneration, 90, "Generating final video")
	generation, err := m.runGeneration(ctx, prompt, brief, trace)
	if err != nil {
		return nil, m.failStage(trace, StageGeneration, err)
	}
	report(progress, StageGeneration, 98, "Video generation complete")

	sources := normalizePosts(discovery.shortlist)
	if len(sources) > 5 {
		sources = sources[:5]
	}
	return &Result{
		Status:              "success",
		Brand:               input.Brand,
		Competitor:          input.Competitor,
		Location:            input.Location,
		TrendSummary:        discovery.trendSummary,
		SearchPostsFound:    discovery.searchFound,
		MicroblogPostsFound: discovery.microblogFound,
		TopPostsAnalyzed:    len(discovery.shortlist),
		FilterStats:         discovery.stats,
		DirectorBrief:       brief,
		VideoPrompt:         prompt,
		VideoURL:            generation.VideoURL,
		TopContentSources:   sources,
		Explain:             trace,
	}, nil
}

// runAnalysis is a soft-degrade stage: an unavailable, failing, or
// incomplete analyzer substitutes the fallback brief instead of aborting.
func (m *Machine) runAnalysis(ctx context.Context, mediaURL string, trace *Trace) domain.DirectorBrief {
	trace.Analysis.MediaURL = mediaURL

	brief := fallbackDirectorBrief()
	usedFallback := true
	if m.analyzer != nil && m.analyzer.Available() {
		analyzed, err := m.analyzer.AnalyzeVideo(ctx, mediaURL)
		if err != nil {
			m.logger.Warn("media analysis failed, using fallback brief", slog.String("error", err.Error()))
		} else if err := m.validator.Validate(analyzed); err != nil {
			m.logger.Warn("media analysis returned incomplete brief, using fallback", slog.String("error", err.Error()))
		} else {
			brief = analyzed
			usedFallback = false
		}
	}

	trace.Analysis.DirectorBrief = brief
	trace.Analysis.UsedFallback = usedFallback
	if m.analyzer != nil {
		if named, ok := m.analyzer.(interface{ Model() string }); ok {
			trace.Analysis.Model = named.Model()
		}
	}
	return brief
}

func (m *Machine) runGeneration(ctx context.Context, prompt string, brief domain.DirectorBrief, trace *Trace) (client.Generation, error) {
	mode := "std"
	if brief.Vibe == "std" || brief.Vibe == "pro" {
		mode = brief.Vibe
	}
	trace.Generation.Mode = mode

	if m.generator == nil || !m.generator.Available() {
		return client.Generation{}, client.ErrGenerationUnavailable
	}
	if named, ok := m.generator.(interface{ Model() string }); ok {
		trace.Generation.Model = named.Model()
	}
	if ep, ok := m.generator.(interface{ Endpoint() string }); ok {
		trace.Generation.Endpoint = ep.Endpoint()
	}

	generation, err := m.generator.Generate(ctx, client.GenerationRequest{
		Prompt:      prompt,
		Duration:    generationDuration,
		Mode:        mode,
		AspectRatio: generationAspectRatio,
	})
	trace.Generation.TaskID = generation.TaskID
	if err != nil {
		return client.Generation{}, err
	}
	trace.Generation.VideoURL = generation.VideoURL
	return generation, nil
}

func (m *Machine) failStage(trace *Trace, stage string, err error) error {
	trace.Errors = append(trace.Errors, StageError{Stage: stage, Error: err.Error()})
	m.logger.Error("pipeline stage failed",
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
	return &StageFailure{Stage: stage, Trace: trace, Err: err}
}

func report(progress ProgressFunc, step string, percent int, message string) {
	if progress == nil {
		return
	}
	progress(step, percent, message)
}

// fallbackDirectorBrief is the fixed brief used when media analysis cannot
// produce a usable one.
func fallbackDirectorBrief() domain.DirectorBrief {
	return domain.DirectorBrief{
		Hook:    "Fast opening with a bold claim and visual contrast.",
		Vibe:    "Clean Tech",
		Energy:  "high",
		Emotion: "curiosity",
		Pacing:  "fast",
		Setting: "modern urban workspace",
		KeyMoments: []domain.KeyMoment{
			{Time: "0:04", Description: "Feature reveal with reaction"},
		},
		BrandSafety: "safe",
		HookScore:   "7",
		VariationBriefs: []string{
			"Product POV with snappy captions",
			"Before/after transformation cut",
			"Founder-style honest reaction",
		},
	}
}

func buildVideoPrompt(brief domain.DirectorBrief, brand, location string) string {
	vibe := brief.Vibe
	if vibe == "" {
		vibe = "Clean Tech"
	}
	setting := brief.Setting
	if setting == "" {
		setting = "city street"
	}
	hook := brief.Hook
	if hook == "" {
		hook = "Immediate visual hook in first 3 seconds"
	}

	moments := ""
	for _, moment := range brief.KeyMoments {
		part := fmt.Sprintf("%s %s", moment.Time, moment.Description)
		if moments != "" {
			moments += "; "
		}
		moments += part
	}
	if moments == "" {
		moments = "fast montage and emotional reveal"
	}

	return fmt.Sprintf(
		"Create a vertical cinematic TikTok video for brand '%s'. "+
			"Vibe: %s. "+
			"Primary setting: %s. "+
			"Location context: %s. "+
			"Opening hook: %s. "+
			"Include dynamic key moments: %s. "+
			"Show a visible billboard with the brand name '%s' in-scene. "+
			"hyper-realistic cinematic 4K vertical TikTok format",
		brand, vibe, setting, location, hook, moments, brand,
	)
}

func truncate(value string, maxLen int) string {
	if len(value) > maxLen {
		return value[:maxLen]
	}
	return value
}

// SourcePost is the bounded, client-facing shape of a discovered item.
type SourcePost struct {
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Snippet  string  `json:"snippet"`
	Platform string  `json:"platform"`
	Score    float64 `json:"score"`
}

func normalizePost(item domain.CandidateItem) SourcePost {
	score := item.FinalScore
	if score == 0 {
		score = item.RelevanceScore
	}
	platform := item.Platform
	if platform == "" {
		platform = "unknown"
	}
	return SourcePost{
		Title:    truncate(item.Title, 240),
		URL:      truncate(item.URL, 500),
		Snippet:  truncate(item.Snippet, 500),
		Platform: truncate(platform, 80),
		Score:    score,
	}
}

func normalizePosts(items []domain.CandidateItem) []SourcePost {
	posts := make([]SourcePost, 0, len(items))
	for _, item := range items {
		posts = append(posts, normalizePost(item))
	}
	return posts
}

// Result is the full success payload of one pipeline run.
type Result struct {
	Status              string               `json:"status"`
	Brand               string               `json:"brand"`
	Competitor          string               `json:"competitor"`
	Location            string               `json:"location"`
	TrendSummary        string               `json:"trend_summary"`
	SearchPostsFound    int                  `json:"search_posts_found"`
	MicroblogPostsFound int                  `json:"microblog_posts_found"`
	TopPostsAnalyzed    int                  `json:"top_posts_analyzed"`
	FilterStats         ranking.Stats        `json:"filter_stats"`
	DirectorBrief       domain.DirectorBrief `json:"director_brief"`
	VideoPrompt         string               `json:"video_prompt"`
	VideoURL            string               `json:"video_url"`
	TopContentSources   []SourcePost         `json:"top_content_sources"`
	Explain             *Trace               `json:"explain"`
}
