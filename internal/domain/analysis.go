package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Sentiment is the discrete label derived from a polarity score.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Polarity thresholds separating the three labels.
const (
	PositiveThreshold = 0.1
	NegativeThreshold = -0.1
)

const (
	MaxKeywords      = 5
	MinKeywordLength = 4
)

// ParseSentiment returns the label for s, or false when s is not a known label.
func ParseSentiment(s string) (Sentiment, bool) {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s), true
	default:
		return "", false
	}
}

// SentimentFromPolarity maps a polarity score to its label.
func SentimentFromPolarity(polarity float64) Sentiment {
	switch {
	case polarity > PositiveThreshold:
		return SentimentPositive
	case polarity < NegativeThreshold:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// RoundScore rounds v to 3 decimal places. Stored and compared scores are
// always rounded this way.
func RoundScore(v float64) float64 {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		return 0
	}
	return r
}

// AnalysisRecord is one scored text owned by a user.
type AnalysisRecord struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Text         string    `json:"text"`
	Sentiment    Sentiment `json:"sentiment"`
	Polarity     float64   `json:"polarity"`
	Subjectivity float64   `json:"subjectivity"`
	Keywords     []string  `json:"keywords"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAnalysisRecord assembles a record and rejects any combination of fields
// that could not have been produced by scoring and classification.
func NewAnalysisRecord(id uuid.UUID, userID, text string, sentiment Sentiment, polarity, subjectivity float64, keywords []string, createdAt time.Time) (*AnalysisRecord, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidRecord)
	}
	// Stored text must not contain NUL.
	if strings.ContainsRune(text, 0) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNULInText)
	}
	if polarity < -1 || polarity > 1 {
		return nil, fmt.Errorf("%w: polarity %v out of range", ErrInvalidRecord, polarity)
	}
	if subjectivity < 0 || subjectivity > 1 {
		return nil, fmt.Errorf("%w: subjectivity %v out of range", ErrInvalidRecord, subjectivity)
	}
	if want := SentimentFromPolarity(polarity); sentiment != want {
		return nil, fmt.Errorf("%w: sentiment %q does not match polarity %v", ErrInvalidRecord, sentiment, polarity)
	}
	if len(keywords) > MaxKeywords {
		return nil, fmt.Errorf("%w: %d keywords", ErrInvalidRecord, len(keywords))
	}

	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		if utf8.RuneCountInString(kw) < MinKeywordLength {
			return nil, fmt.Errorf("%w: keyword %q too short", ErrInvalidRecord, kw)
		}
		if _, dup := seen[kw]; dup {
			return nil, fmt.Errorf("%w: duplicate keyword %q", ErrInvalidRecord, kw)
		}
		seen[kw] = struct{}{}
	}

	if keywords == nil {
		keywords = []string{}
	}

	return &AnalysisRecord{
		ID:           id,
		UserID:       userID,
		Text:         text,
		Sentiment:    sentiment,
		Polarity:     polarity,
		Subjectivity: subjectivity,
		Keywords:     keywords,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

// ScoreResult is the output of a Scorer.
type ScoreResult struct {
	Polarity     float64  `json:"polarity"`
	Subjectivity float64  `json:"subjectivity"`
	Tokens       []string `json:"tokens"`
}

// Scorer turns raw text into polarity, subjectivity and tokens.
// Implementations must be deterministic and safe for concurrent use.
type Scorer interface {
	Score(text string) (ScoreResult, error)
}

// BatchResult reports the outcome of a batch ingestion.
type BatchResult struct {
	Accepted int
	Skipped  int
	Records  []*AnalysisRecord
}
