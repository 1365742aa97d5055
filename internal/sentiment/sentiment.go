// Package sentiment wraps the VADER lexicon-based analyzer behind a small
// interface so pipeline components can be tested with a fake scorer.
package sentiment

import "github.com/jonreiter/govader"

// Scorer scores the sentiment of a piece of text in [-1, 1].
type Scorer interface {
	Score(text string) float64
}

// VaderScorer scores text with the VADER compound polarity score.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer creates a scorer backed by the default VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity of text. Empty text scores 0.
func (s *VaderScorer) Score(text string) float64 {
	if text == "" {
		return 0
	}
	return s.analyzer.PolarityScores(text).Compound
}
