package memory

import (
	"context"
	"sync"
	"time"

	"quizrush/internal/domain"
)

// SettingsStore keeps the quiz_settings singleton in memory.
type SettingsStore struct {
	mu       sync.Mutex
	now      func() time.Time
	settings domain.QuizSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{now: time.Now}
}

func (s *SettingsStore) Get(_ context.Context) (domain.QuizSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, nil
}

func (s *SettingsStore) SetActive(_ context.Context, active bool) (domain.QuizSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if active {
		s.settings.Round++
	}
	s.settings.IsActive = active
	s.settings.UpdatedAt = s.now().UTC()
	return s.settings, nil
}
