package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizrush/internal/domain"
)

// RegistrationStore holds registrants in memory, seeded from config.
type RegistrationStore struct {
	mu      sync.RWMutex
	byEmail map[string]domain.Registration
}

func NewRegistrationStore(seed []domain.Registration) *RegistrationStore {
	s := &RegistrationStore{byEmail: make(map[string]domain.Registration)}
	for _, reg := range seed {
		s.Add(reg)
	}
	return s
}

// Add stores a registration, keeping the first one seen for an email.
func (s *RegistrationStore) Add(reg domain.Registration) {
	reg.Email = strings.TrimSpace(reg.Email)
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[reg.Email]; !ok {
		s.byEmail[reg.Email] = reg
	}
}

func (s *RegistrationStore) FindByEmail(_ context.Context, email string) (domain.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byEmail[strings.TrimSpace(email)]
	if !ok {
		return domain.Registration{}, domain.ErrRegistrationNotFound
	}
	return reg, nil
}
