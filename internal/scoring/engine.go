// Package scoring implements the heuristic paper scoring engine and ranker:
// textual relevance against the query, venue prestige against curated venue
// lists, a publication-age step function, and a weighted total used for
// stable descending ranking.
package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/scholarpipe/scholarpipe/internal/domain"
)

// Weights holds the relative importance of each component score in the
// total. Weights are not renormalized: when they do not sum to 1 the total
// score's ceiling is the weight sum.
type Weights struct {
	Relevance float64 `json:"relevance" mapstructure:"relevance"`
	Venue     float64 `json:"venue" mapstructure:"venue"`
	Recency   float64 `json:"recency" mapstructure:"recency"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Relevance: 0.4,
		Venue:     0.35,
		Recency:   0.25,
	}
}

// IsZero reports whether no weight is set.
func (w Weights) IsZero() bool {
	return w.Relevance == 0 && w.Venue == 0 && w.Recency == 0
}

// Engine computes per-paper scores. Scoring is pure: the same paper, query,
// and weights always yield the same scores, and only the paper's score
// fields are ever mutated.
type Engine struct {
	weights Weights

	// now supplies the current year for the recency buckets and is
	// injectable for deterministic tests.
	now func() time.Time
}

// NewEngine creates a scoring engine. Zero weights select DefaultWeights.
func NewEngine(weights Weights) *Engine {
	if weights.IsZero() {
		weights = DefaultWeights()
	}
	return &Engine{
		weights: weights,
		now:     time.Now,
	}
}

// Weights returns the engine's configured weights.
func (e *Engine) Weights() Weights {
	return e.weights
}

// RelevanceScore measures textual overlap between the query and the paper's
// title plus snippet, in [0,1]. Each whitespace-separated query term that
// appears (case-insensitive substring) contributes equally; an exact phrase
// match adds 0.2 and citations add up to 0.3 (citations/1000, capped). An
// empty query scores 0.
func (e *Engine) RelevanceScore(p *domain.Paper, query string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}

	text := strings.ToLower(p.Title + " " + p.Snippet)

	matches := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			matches++
		}
	}
	score := float64(matches) / float64(len(terms))

	if strings.Contains(text, strings.ToLower(query)) {
		score += 0.2
	}

	if p.Citations > 0 {
		score += math.Min(0.3, float64(p.Citations)/1000)
	}

	return math.Min(1.0, score)
}

// VenueScore measures venue prestige against the field's curated list, in
// [0,1]. A listed venue appearing verbatim (case-insensitive) in the
// paper's venue scores 1.0. Otherwise a single word (longer than 3
// characters) of a listed venue appearing in the paper's venue scores 0.7;
// the first qualifying venue in list order wins, without accumulation.
// Unmatched venues fall back to citation tiers: over 100 citations scores
// 0.5, over 50 scores 0.3, anything else 0.1.
func (e *Engine) VenueScore(p *domain.Paper, field string) float64 {
	venues := VenueList(field)
	venueLower := strings.ToLower(p.Venue)

	for _, venue := range venues {
		if strings.Contains(venueLower, strings.ToLower(venue)) {
			return 1.0
		}
	}

	for _, venue := range venues {
		for _, word := range strings.Fields(strings.ToLower(venue)) {
			if len(word) > 3 && strings.Contains(venueLower, word) {
				return 0.7
			}
		}
	}

	switch {
	case p.Citations > 100:
		return 0.5
	case p.Citations > 50:
		return 0.3
	default:
		return 0.1
	}
}

// RecencyScore maps publication age onto fixed buckets: at most one year old
// scores 1.0, three years 0.8, five years 0.6, ten years 0.4, anything
// older 0.2. A step function, not a continuous decay.
func (e *Engine) RecencyScore(p *domain.Paper) float64 {
	yearsDiff := e.now().Year() - p.Year

	switch {
	case yearsDiff <= 1:
		return 1.0
	case yearsDiff <= 3:
		return 0.8
	case yearsDiff <= 5:
		return 0.6
	case yearsDiff <= 10:
		return 0.4
	default:
		return 0.2
	}
}

// Score computes all component scores for the paper and stores them, along
// with the weighted total, on the paper itself.
func (e *Engine) Score(p *domain.Paper, query, field string) {
	p.RelevanceScore = e.RelevanceScore(p, query)
	p.VenueScore = e.VenueScore(p, field)
	p.RecencyScore = e.RecencyScore(p)

	p.TotalScore = p.RelevanceScore*e.weights.Relevance +
		p.VenueScore*e.weights.Venue +
		p.RecencyScore*e.weights.Recency
}

// Rank scores every paper in place and stable-sorts the slice by total
// score, descending. Papers with equal totals keep their original relative
// order. The slice is reordered in place and returned for convenience.
func (e *Engine) Rank(papers []*domain.Paper, query, field string) []*domain.Paper {
	for _, p := range papers {
		e.Score(p, query, field)
	}

	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].TotalScore > papers[j].TotalScore
	})

	return papers
}
