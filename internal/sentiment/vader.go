package sentiment

import (
	"strings"

	"github.com/jonreiter/govader"

	"github.com/pscheid92/textpulse/internal/domain"
)

// VaderScorer scores text with the VADER model. Polarity is the compound
// score; subjectivity is the share of text VADER did not rate as neutral.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ domain.Scorer = (*VaderScorer)(nil)

func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) Score(text string) (domain.ScoreResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ScoreResult{}, domain.ErrEmptyInput
	}

	scores := s.analyzer.PolarityScores(text)
	result := domain.ScoreResult{Tokens: Tokenize(text)}

	// no rated words at all
	if scores.Positive+scores.Negative+scores.Neutral == 0 {
		return result, nil
	}

	result.Polarity = domain.RoundScore(clamp(scores.Compound, -1, 1))
	result.Subjectivity = domain.RoundScore(clamp(1-scores.Neutral, 0, 1))
	return result, nil
}

// NewScorer returns the scorer registered under name ("lexicon" or "vader").
func NewScorer(name string) (domain.Scorer, bool) {
	switch name {
	case "", "lexicon":
		return NewLexiconScorer(), true
	case "vader":
		return NewVaderScorer(), true
	default:
		return nil, false
	}
}
