package domain

// CandidateItem is a discovered content item in the single shape shared by
// every discovery source. Items are constructed once at each collaborator
// boundary; downstream code never re-interprets provider payloads.
type CandidateItem struct {
	Platform       string   `json:"platform"`
	Title          string   `json:"title"`
	URL            string   `json:"url"`
	Snippet        string   `json:"snippet"`
	RelevanceScore float64  `json:"relevance_score"`
	ViralSignals   []string `json:"viral_signals"`
	Topic          string   `json:"topic,omitempty"`
	PublishedDate  string   `json:"published_date,omitempty"`
	FinalScore     float64  `json:"final_score,omitempty"`
}

// KeyMoment is one timestamped beat inside a Director Brief.
type KeyMoment struct {
	Time        string `json:"time"`
	Description string `json:"description"`
}

// DirectorBrief is the structured creative spec produced by media analysis.
// The orchestration core only checks required-field presence and otherwise
// treats it as an opaque value.
type DirectorBrief struct {
	Hook            string      `json:"hook"`
	Vibe            string      `json:"vibe"`
	Energy          string      `json:"energy"`
	Emotion         string      `json:"emotion"`
	Pacing          string      `json:"pacing"`
	Setting         string      `json:"setting"`
	KeyMoments      []KeyMoment `json:"key_moments"`
	BrandSafety     string      `json:"brand_safety"`
	HookScore       string      `json:"hook_score"`
	VariationBriefs []string    `json:"variation_briefs"`
}
