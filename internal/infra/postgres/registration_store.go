package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizrush/internal/domain"
)

// RegistrationStore reads registrants for participant verification.
type RegistrationStore struct {
	pool *pgxpool.Pool
}

func NewRegistrationStore(pool *pgxpool.Pool) *RegistrationStore {
	return &RegistrationStore{pool: pool}
}

func (s *RegistrationStore) FindByEmail(ctx context.Context, email string) (domain.Registration, error) {
	var reg domain.Registration
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM registrations WHERE email = $1 ORDER BY created_at LIMIT 1`,
		strings.TrimSpace(email),
	).Scan(&reg.ID, &reg.Email, &reg.Name, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Registration{}, domain.ErrRegistrationNotFound
	}
	if err != nil {
		return domain.Registration{}, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}
