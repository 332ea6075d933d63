package app

import (
	"context"
	"fmt"

	"github.com/pscheid92/textpulse/internal/aggregate"
	"github.com/pscheid92/textpulse/internal/domain"
)

func (s *Service) Stats(ctx context.Context, userID string) (domain.StatsResult, error) {
	summary, err := s.summary(ctx, userID)
	if err != nil {
		return domain.StatsResult{}, err
	}
	return summary.Stats, nil
}

// Trends returns per-date label counts for the last days active dates.
func (s *Service) Trends(ctx context.Context, userID string, days int) ([]domain.TrendPoint, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d", domain.ErrOutOfRange, MaxTrendDays)
	}

	summary, err := s.summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.LastDays(summary.Trends, days), nil
}

// Keywords returns the limit most frequent keywords across userID's records.
func (s *Service) Keywords(ctx context.Context, userID string, limit int) ([]domain.KeywordCount, error) {
	if limit < 1 || limit > MaxKeywordLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrOutOfRange, MaxKeywordLimit)
	}

	summary, err := s.summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	return aggregate.Top(summary.Keywords, limit), nil
}
