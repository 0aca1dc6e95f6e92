package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"quizrush/internal/domain"
)

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Round         int64     `bun:"round,notnull"`
	Name          string    `bun:"name,notnull"`
	Email         string    `bun:"email,notnull"`
	Score         int       `bun:"score,notnull"`
	TotalTimeMs   int64     `bun:"total_time_ms,notnull"`
	QuestionTimes []int64   `bun:"question_times,array"`
	CompletedAt   time.Time `bun:"completed_at,notnull"`
}

// ResultStore persists quiz results with bun.
type ResultStore struct {
	db *bun.DB
}

func NewResultStore(db *bun.DB) *ResultStore {
	return &ResultStore{db: db}
}

func (s *ResultStore) Insert(ctx context.Context, result domain.QuizResult) error {
	row := toRow(result)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// List returns results in completion order so equal-ranked results stay stable.
func (s *ResultStore) List(ctx context.Context) ([]domain.QuizResult, error) {
	var rows []resultRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("completed_at ASC, id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.QuizResult, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (s *ResultStore) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.NewDelete().Model((*resultRow)(nil)).Where("TRUE").Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete results: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func toRow(r domain.QuizResult) resultRow {
	return resultRow{
		ID:            r.ID,
		Round:         r.Round,
		Name:          r.Name,
		Email:         r.Email,
		Score:         r.Score,
		TotalTimeMs:   r.TotalTimeMs,
		QuestionTimes: r.QuestionTimes,
		CompletedAt:   r.CompletedAt,
	}
}

func (row resultRow) toDomain() domain.QuizResult {
	return domain.QuizResult{
		ID:            row.ID,
		Round:         row.Round,
		Name:          row.Name,
		Email:         row.Email,
		Score:         row.Score,
		TotalTimeMs:   row.TotalTimeMs,
		QuestionTimes: row.QuestionTimes,
		CompletedAt:   row.CompletedAt.UTC(),
	}
}
