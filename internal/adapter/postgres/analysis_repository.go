package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pscheid92/textpulse/internal/domain"
)

// recordColumns must match the Scan order in scanRecord.
const recordColumns = `id, user_id, text, sentiment, polarity, subjectivity, keywords, created_at`

var copyColumns = []string{"id", "user_id", "text", "sentiment", "polarity", "subjectivity", "keywords", "created_at"}

type AnalysisRepo struct {
	pool *pgxpool.Pool
}

var _ domain.AnalysisRepository = (*AnalysisRepo)(nil)

func NewAnalysisRepo(pool *pgxpool.Pool) *AnalysisRepo {
	return &AnalysisRepo{pool: pool}
}

func (r *AnalysisRepo) Insert(ctx context.Context, rec *domain.AnalysisRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO analyses (`+recordColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recordValues(rec)...)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// InsertMany writes all records with a single COPY, preserving slice order.
// Either every record is stored or none is.
func (r *AnalysisRepo) InsertMany(ctx context.Context, records []*domain.AnalysisRecord) error {
	if len(records) == 0 {
		return nil
	}

	n, err := r.pool.CopyFrom(ctx, pgx.Identifier{"analyses"}, copyColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return recordValues(records[i]), nil
		}))
	if err != nil {
		return fmt.Errorf("failed to copy analyses: %w", err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("failed to copy analyses: wrote %d of %d rows", n, len(records))
	}
	return nil
}

// List returns one page of the user's records, newest first.
func (r *AnalysisRepo) List(ctx context.Context, userID string, q domain.ListQuery) ([]*domain.AnalysisRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM analyses
		 WHERE user_id = $1 AND ($2::text = '' OR sentiment = $2::text)
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $3 OFFSET $4`,
		userID, string(q.Sentiment), q.Limit, q.Skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan analyses: %w", err)
	}
	return records, nil
}

// ListAll returns every record of the user in insertion order.
func (r *AnalysisRepo) ListAll(ctx context.Context, userID string) ([]*domain.AnalysisRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM analyses WHERE user_id = $1 ORDER BY seq`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}

	records, err := pgx.CollectRows(rows, scanRecord)
	if err != nil {
		return nil, fmt.Errorf("failed to scan analyses: %w", err)
	}
	return records, nil
}

// Delete removes the record only when userID owns it. A missing record and a
// record owned by someone else both yield domain.ErrRecordNotFound.
func (r *AnalysisRepo) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM analyses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete analysis: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func recordValues(rec *domain.AnalysisRecord) []any {
	return []any{rec.ID, rec.UserID, rec.Text, string(rec.Sentiment), rec.Polarity, rec.Subjectivity, rec.Keywords, rec.CreatedAt}
}

// scanRecord rebuilds stored rows through domain.NewAnalysisRecord so that a
// row violating the record rules surfaces as an error.
func scanRecord(row pgx.CollectableRow) (*domain.AnalysisRecord, error) {
	var (
		id           uuid.UUID
		userID       string
		text         string
		sentiment    string
		polarity     float64
		subjectivity float64
		keywords     []string
		createdAt    time.Time
	)
	if err := row.Scan(&id, &userID, &text, &sentiment, &polarity, &subjectivity, &keywords, &createdAt); err != nil {
		return nil, err
	}
	return domain.NewAnalysisRecord(id, userID, text, domain.Sentiment(sentiment), polarity, subjectivity, keywords, createdAt)
}
