package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrush/internal/domain"
)

// SettingsStore owns the quiz_settings singleton row.
type SettingsStore struct {
	pool *pgxpool.Pool
}

func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

func (s *SettingsStore) Get(ctx context.Context) (domain.QuizSettings, error) {
	var settings domain.QuizSettings
	err := s.pool.QueryRow(ctx,
		`SELECT is_active, round, updated_at FROM quiz_settings WHERE id = $1`, domain.SettingsID,
	).Scan(&settings.IsActive, &settings.Round, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// SetActive updates the switch atomically; activation bumps the round.
func (s *SettingsStore) SetActive(ctx context.Context, active bool) (domain.QuizSettings, error) {
	var settings domain.QuizSettings
	err := s.pool.QueryRow(ctx, `
		UPDATE quiz_settings
		SET is_active = $2,
		    round = round + CASE WHEN $2 THEN 1 ELSE 0 END,
		    updated_at = now()
		WHERE id = $1
		RETURNING is_active, round, updated_at`,
		domain.SettingsID, active,
	).Scan(&settings.IsActive, &settings.Round, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizSettings{}, domain.ErrSettingsNotFound
	}
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return settings, nil
}
