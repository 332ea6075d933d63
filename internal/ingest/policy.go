package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/pscheid92/textpulse/internal/domain"
)

const (
	DefaultRowCap  = 1000
	DefaultWorkers = 8
)

// Classifier labels a score and extracts keywords from its tokens.
type Classifier interface {
	Classify(polarity, subjectivity float64, tokens []string) (domain.Sentiment, []string)
}

// Analysis is a scored and classified text that has not been stored.
type Analysis struct {
	Polarity     float64          `json:"polarity"`
	Subjectivity float64          `json:"subjectivity"`
	Sentiment    domain.Sentiment `json:"sentiment"`
	Keywords     []string         `json:"keywords"`
	Tokens       []string         `json:"tokens"`
}

// Options configure a Policy. Zero values select the defaults.
type Options struct {
	TextColumns []string
	RowCap      int
	Workers     int
}

// BatchOptions override the policy's column candidates and row cap for one batch.
type BatchOptions struct {
	TextColumns []string
	RowCap      int
}

type Policy struct {
	scorer      domain.Scorer
	classifier  Classifier
	clock       clockwork.Clock
	newID       func() uuid.UUID
	textColumns []string
	rowCap      int
	workers     int
}

func NewPolicy(scorer domain.Scorer, classifier Classifier, clock clockwork.Clock, opts Options) *Policy {
	p := &Policy{
		scorer:      scorer,
		classifier:  classifier,
		clock:       clock,
		newID:       uuid.New,
		textColumns: opts.TextColumns,
		rowCap:      opts.RowCap,
		workers:     opts.Workers,
	}
	if len(p.textColumns) == 0 {
		p.textColumns = DefaultTextColumns
	}
	if p.rowCap <= 0 {
		p.rowCap = DefaultRowCap
	}
	if p.workers <= 0 {
		p.workers = DefaultWorkers
	}
	return p
}

// RowCap returns the default maximum number of rows read from one batch.
func (p *Policy) RowCap() int {
	return p.rowCap
}

// Analyze scores and classifies text.
func (p *Policy) Analyze(text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return Analysis{}, domain.ErrEmptyInput
	}

	score, err := p.scorer.Score(text)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to score text: %w", err)
	}

	label, keywords := p.classifier.Classify(score.Polarity, score.Subjectivity, score.Tokens)
	return Analysis{
		Polarity:     score.Polarity,
		Subjectivity: score.Subjectivity,
		Sentiment:    label,
		Keywords:     keywords,
		Tokens:       score.Tokens,
	}, nil
}

// NewRecord analyzes text and assembles a record owned by userID. The text is
// stored as given.
func (p *Policy) NewRecord(userID, text string) (*domain.AnalysisRecord, error) {
	analysis, err := p.Analyze(text)
	if err != nil {
		return nil, err
	}
	return domain.NewAnalysisRecord(p.newID(), userID, text, analysis.Sentiment, analysis.Polarity, analysis.Subjectivity, analysis.Keywords, p.clock.Now())
}

// NewBatch turns the rows of table into records owned by userID.
//
// Only the first row-cap rows are read. Rows whose text is blank after
// trimming are skipped, as is any row that fails to produce a valid record;
// neither aborts the batch. The trimmed text is stored. Records are returned
// in row order.
func (p *Policy) NewBatch(ctx context.Context, userID string, table *Table, opts BatchOptions) (*domain.BatchResult, error) {
	candidates := opts.TextColumns
	if len(candidates) == 0 {
		candidates = p.textColumns
	}
	rowCap := opts.RowCap
	if rowCap <= 0 {
		rowCap = p.rowCap
	}

	column, err := DetectTextColumn(table.Fields, candidates)
	if err != nil {
		return nil, err
	}

	rows := table.Rows
	if len(rows) > rowCap {
		rows = rows[:rowCap]
	}

	records := make([]*domain.AnalysisRecord, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, row := range rows {
		text := strings.TrimSpace(row[column])
		if text == "" {
			continue
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			rec, err := p.NewRecord(userID, text)
			if err != nil {
				slog.WarnContext(gctx, "Skipping batch row", "row", i, "error", err)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	result := &domain.BatchResult{Records: make([]*domain.AnalysisRecord, 0, len(rows))}
	for _, rec := range records {
		if rec == nil {
			result.Skipped++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	result.Accepted = len(result.Records)

	return result, nil
}
