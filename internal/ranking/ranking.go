package ranking

import (
	"math"
	"sort"

	"github.com/trendhijack/trendhijack-back/internal/domain"
)

const viralSignalWeight = 0.05

// Options bound the shortlist produced by FilterAndRank.
type Options struct {
	TopN           int
	MinScore       float64
	MaxPerPlatform int
}

// Stats describes what FilterAndRank did to its input.
type Stats struct {
	InputCount     int            `json:"input_count"`
	ScoredCount    int            `json:"scored_count"`
	AfterThreshold int            `json:"after_threshold"`
	ReturnedCount  int            `json:"returned_count"`
	PerPlatform    map[string]int `json:"per_platform"`
}

// FilterAndRank deduplicates, scores, filters and caps candidate items.
// Deduplication key is the URL; the first occurrence wins. Ties in
// final score keep the input order. The function is deterministic and
// side-effect-free: identical input always yields identical output.
func FilterAndRank(items []domain.CandidateItem, opts Options) ([]domain.CandidateItem, Stats) {
	stats := Stats{
		InputCount:  len(items),
		PerPlatform: make(map[string]int),
	}

	seen := make(map[string]struct{}, len(items))
	scored := make([]domain.CandidateItem, 0, len(items))
	for _, raw := range items {
		item := normalize(raw)
		if item.URL != "" {
			if _, duplicate := seen[item.URL]; duplicate {
				continue
			}
			seen[item.URL] = struct{}{}
		}

		item.FinalScore = finalScore(item)
		scored = append(scored, item)
	}
	stats.ScoredCount = len(scored)

	thresholded := scored[:0:0]
	for _, item := range scored {
		if item.FinalScore >= opts.MinScore {
			thresholded = append(thresholded, item)
		}
	}
	stats.AfterThreshold = len(thresholded)

	sort.SliceStable(thresholded, func(i, j int) bool {
		return thresholded[i].FinalScore > thresholded[j].FinalScore
	})

	limited := make([]domain.CandidateItem, 0, opts.TopN)
	for _, item := range thresholded {
		if len(limited) >= opts.TopN {
			break
		}
		if _, tracked := stats.PerPlatform[item.Platform]; !tracked {
			stats.PerPlatform[item.Platform] = 0
		}
		if stats.PerPlatform[item.Platform] >= opts.MaxPerPlatform {
			continue
		}
		stats.PerPlatform[item.Platform]++
		limited = append(limited, item)
	}
	stats.ReturnedCount = len(limited)

	return limited, stats
}

func normalize(item domain.CandidateItem) domain.CandidateItem {
	if item.Platform == "" {
		item.Platform = "unknown"
	}
	if item.ViralSignals == nil {
		item.ViralSignals = []string{}
	}
	if math.IsNaN(item.RelevanceScore) || math.IsInf(item.RelevanceScore, 0) {
		item.RelevanceScore = 0
	}
	return item
}

func finalScore(item domain.CandidateItem) float64 {
	score := math.Max(0, item.RelevanceScore) + float64(len(item.ViralSignals))*viralSignalWeight
	return math.Round(score*10000) / 10000
}
