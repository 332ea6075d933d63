package sentiment

import (
	"strings"
	"unicode/utf8"

	"github.com/pscheid92/textpulse/internal/aggregate"
	"github.com/pscheid92/textpulse/internal/domain"
)

// Classifier labels polarity scores and extracts keywords from tokens.
type Classifier struct {
	stopwords map[string]struct{}
}

// NewClassifier builds a classifier excluding the given stop words from
// keyword extraction. Stop words are matched case-insensitively.
func NewClassifier(stopwords []string) *Classifier {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return &Classifier{stopwords: set}
}

// Classify returns the label for polarity and up to five keywords from tokens.
// Subjectivity does not influence the result.
func (c *Classifier) Classify(polarity, _ float64, tokens []string) (domain.Sentiment, []string) {
	return domain.SentimentFromPolarity(polarity), c.Keywords(tokens)
}

// Keywords returns the most frequent qualifying tokens, ties broken by first
// occurrence. A token qualifies when it is longer than three characters and
// is not a stop word.
func (c *Classifier) Keywords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) < domain.MinKeywordLength {
			continue
		}
		if _, stop := c.stopwords[tok]; stop {
			continue
		}
		filtered = append(filtered, tok)
	}

	ranked := aggregate.Top(aggregate.Rank(filtered), domain.MaxKeywords)
	keywords := make([]string, len(ranked))
	for i, kc := range ranked {
		keywords[i] = kc.Word
	}
	return keywords
}
