package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pscheid92/textpulse/internal/domain"
)

var exportHeader = []string{"text", "sentiment", "polarity", "subjectivity", "keywords", "created_at"}

// ExportCSV renders all of userID's records as CSV, most recent first.
// Records created at the same instant keep reverse insertion order.
func (s *Service) ExportCSV(ctx context.Context, userID string) ([]byte, error) {
	records, err := s.repo.ListAll(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load analyses: %w", err)
	}

	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b *domain.AnalysisRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Text,
			string(r.Sentiment),
			strconv.FormatFloat(r.Polarity, 'f', -1, 64),
			strconv.FormatFloat(r.Subjectivity, 'f', -1, 64),
			strings.Join(r.Keywords, ", "),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveExport uploads userID's CSV export and returns a download URL.
func (s *Service) ArchiveExport(ctx context.Context, userID string) (string, error) {
	if s.archiver == nil {
		return "", domain.ErrExportUnavailable
	}

	data, err := s.ExportCSV(ctx, userID)
	if err != nil {
		return "", err
	}

	link, err := s.archiver.Archive(ctx, s.exportKey(userID), data)
	if err != nil {
		return "", fmt.Errorf("failed to archive export: %w", err)
	}
	return link, nil
}

func (s *Service) exportKey(userID string) string {
	stamp := s.clock.Now().UTC().Format("20060102T150405Z")
	return fmt.Sprintf("exports/%s/%s-%s.csv", url.PathEscape(userID), stamp, uuid.NewString())
}
