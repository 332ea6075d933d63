// Package aggregate folds a user's analysis records into statistics, daily
// trend series and keyword rankings. Every function is pure.
package aggregate

import (
	"slices"
	"strings"
	"time"

	"github.com/pscheid92/textpulse/internal/domain"
)

const dateLayout = time.DateOnly

// Stats counts records per label and averages their polarity.
func Stats(records []*domain.AnalysisRecord) domain.StatsResult {
	var (
		result domain.StatsResult
		sum    float64
	)

	for _, r := range records {
		result.Total++
		sum += r.Polarity
		switch r.Sentiment {
		case domain.SentimentPositive:
			result.Positive++
		case domain.SentimentNegative:
			result.Negative++
		case domain.SentimentNeutral:
			result.Neutral++
		}
	}

	if result.Total > 0 {
		result.AvgPolarity = domain.RoundScore(sum / float64(result.Total))
	}
	return result
}

// Trends returns the label counts of the last days active dates, oldest first.
// Dates without records are not filled in.
func Trends(records []*domain.AnalysisRecord, days int) []domain.TrendPoint {
	return LastDays(series(records), days)
}

// LastDays returns the trailing days entries of an ascending series.
func LastDays(series []domain.TrendPoint, days int) []domain.TrendPoint {
	if days <= 0 {
		return []domain.TrendPoint{}
	}
	if len(series) > days {
		series = series[len(series)-days:]
	}
	return slices.Clone(series)
}

func series(records []*domain.AnalysisRecord) []domain.TrendPoint {
	byDate := make(map[string]*domain.TrendPoint)
	for _, r := range records {
		date := r.CreatedAt.UTC().Format(dateLayout)
		point, ok := byDate[date]
		if !ok {
			point = &domain.TrendPoint{Date: date}
			byDate[date] = point
		}

		switch r.Sentiment {
		case domain.SentimentPositive:
			point.Positive++
		case domain.SentimentNegative:
			point.Negative++
		case domain.SentimentNeutral:
			point.Neutral++
		}
	}

	points := make([]domain.TrendPoint, 0, len(byDate))
	for _, p := range byDate {
		points = append(points, *p)
	}
	slices.SortFunc(points, func(a, b domain.TrendPoint) int {
		return strings.Compare(a.Date, b.Date)
	})
	return points
}

// Keywords ranks the keywords of all records by how often they occur and
// returns the first limit entries.
func Keywords(records []*domain.AnalysisRecord, limit int) []domain.KeywordCount {
	return Top(Rank(allKeywords(records)), limit)
}

// Top returns the first limit entries of a ranking.
func Top(ranked []domain.KeywordCount, limit int) []domain.KeywordCount {
	if limit <= 0 {
		return []domain.KeywordCount{}
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return slices.Clone(ranked)
}

// Rank counts words and orders them by descending count. Words with equal
// counts keep the order in which they were first seen.
func Rank(words []string) []domain.KeywordCount {
	index := make(map[string]int, len(words))
	ranked := make([]domain.KeywordCount, 0, len(words))

	for _, w := range words {
		if i, ok := index[w]; ok {
			ranked[i].Count++
			continue
		}
		index[w] = len(ranked)
		ranked = append(ranked, domain.KeywordCount{Word: w, Count: 1})
	}

	slices.SortStableFunc(ranked, func(a, b domain.KeywordCount) int {
		return b.Count - a.Count
	})
	return ranked
}

func allKeywords(records []*domain.AnalysisRecord) []string {
	var words []string
	for _, r := range records {
		words = append(words, r.Keywords...)
	}
	return words
}

// Summarize computes the complete fold over records: stats, the full trend
// series and the full keyword ranking.
func Summarize(records []*domain.AnalysisRecord) *domain.Summary {
	return &domain.Summary{
		Stats:    Stats(records),
		Trends:   series(records),
		Keywords: Rank(allKeywords(records)),
	}
}
