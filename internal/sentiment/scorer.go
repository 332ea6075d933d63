package sentiment

import (
	"strings"

	"github.com/pscheid92/textpulse/internal/domain"
)

const (
	// negationFactor flips and dampens the polarity of a negated word.
	negationFactor = -0.5
	// negationWindow is how many unscored tokens may separate a negation from
	// the word it applies to.
	negationWindow = 3
)

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {},
	"without": {}, "cannot": {}, "nothing": {}, "nobody": {}, "n't": {},
}

// LexiconScorer scores text against a word lexicon.
type LexiconScorer struct {
	lex lexicon
}

var _ domain.Scorer = (*LexiconScorer)(nil)

// NewLexiconScorer returns a scorer backed by the embedded lexicon.
func NewLexiconScorer() *LexiconScorer {
	return &LexiconScorer{lex: defaultLexicon}
}

// Score averages the polarity and subjectivity of every lexicon word in text.
// Text without lexicon words scores 0 on both axes.
func (s *LexiconScorer) Score(text string) (domain.ScoreResult, error) {
	if strings.TrimSpace(text) == "" {
		return domain.ScoreResult{}, domain.ErrEmptyInput
	}

	tokens := Tokenize(text)

	var (
		polaritySum     float64
		subjectivitySum float64
		scored          int
		modifier        = 1.0
		negated         bool
		sinceNegation   int
	)

	for _, tok := range tokens {
		if isNegation(tok) {
			negated = true
			sinceNegation = 0
			modifier = 1
			continue
		}

		e, ok := s.lex[tok]
		if !ok {
			modifier = 1
			if negated {
				sinceNegation++
				if sinceNegation > negationWindow {
					negated = false
				}
			}
			continue
		}

		if e.isModifier() {
			modifier *= e.intensity
			continue
		}

		polarity := e.polarity * modifier
		if negated {
			polarity *= negationFactor
		}

		polaritySum += clamp(polarity, -1, 1)
		subjectivitySum += clamp(e.subjectivity*modifier, 0, 1)
		scored++

		modifier = 1
		negated = false
	}

	result := domain.ScoreResult{Tokens: tokens}
	if scored == 0 {
		return result, nil
	}

	result.Polarity = domain.RoundScore(clamp(polaritySum/float64(scored), -1, 1))
	result.Subjectivity = domain.RoundScore(clamp(subjectivitySum/float64(scored), 0, 1))
	return result, nil
}

func isNegation(tok string) bool {
	_, ok := negations[tok]
	return ok
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
