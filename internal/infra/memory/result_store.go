package memory

import (
	"context"
	"sync"

	"quizrush/internal/domain"
)

// ResultStore keeps quiz results in insertion order.
type ResultStore struct {
	mu      sync.RWMutex
	results []domain.QuizResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{}
}

func (s *ResultStore) Insert(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, cloneResult(result))
	return nil
}

func (s *ResultStore) List(_ context.Context) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizResult, len(s.results))
	for i, r := range s.results {
		out[i] = cloneResult(r)
	}
	return out, nil
}

func (s *ResultStore) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.results))
	s.results = nil
	return n, nil
}

func cloneResult(r domain.QuizResult) domain.QuizResult {
	times := make([]int64, len(r.QuestionTimes))
	copy(times, r.QuestionTimes)
	r.QuestionTimes = times
	return r
}
