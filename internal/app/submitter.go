package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// Submitter persists finished sessions. Each Submit performs a single
// best-effort insert on its own goroutine: at most once, no retry. A failed
// write is logged and never reaches the participant.
type Submitter struct {
	results ResultRepository
	control ControlChannel
	clock   clock.Clock
	log     *logger.Logger
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewSubmitter(results ResultRepository, control ControlChannel, clk clock.Clock, log *logger.Logger, timeout time.Duration) *Submitter {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Submitter{
		results: results,
		control: control,
		clock:   clk,
		log:     log.With("component", "submitter"),
		timeout: timeout,
	}
}

// Submit builds the result record and hands it to a background insert.
func (s *Submitter) Submit(tally Tally) {
	result := s.buildResult(tally)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.log.Warn("dropping result after shutdown", "email", result.Email, "round", result.Round, "score", result.Score)
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.persist(result)
	}()
}

// Wait blocks until every in-flight insert has finished.
func (s *Submitter) Wait() {
	s.wg.Wait()
}

// Close stops accepting tallies and waits for in-flight inserts.
func (s *Submitter) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Submitter) buildResult(tally Tally) domain.QuizResult {
	times := make([]int64, len(tally.QuestionTimes))
	copy(times, tally.QuestionTimes)
	return domain.QuizResult{
		ID:            uuid.New(),
		Round:         tally.Round,
		Name:          tally.Participant.Name,
		Email:         tally.Participant.Email,
		Score:         tally.Score,
		TotalTimeMs:   tally.TotalTimeMs,
		QuestionTimes: times,
		CompletedAt:   s.clock.Now().UTC(),
	}
}

func (s *Submitter) persist(result domain.QuizResult) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.results.Insert(ctx, result); err != nil {
		s.log.Error("saving quiz result failed", "result_id", result.ID, "email", result.Email, "error", err)
		return
	}
	s.log.Info("quiz result saved", "result_id", result.ID, "email", result.Email, "score", result.Score, "total_time_ms", result.TotalTimeMs)

	if s.control == nil {
		return
	}
	if err := s.control.Publish(ctx, domain.ResultEvent(result, s.clock.Now().UTC())); err != nil {
		s.log.Warn("publishing result event failed", "result_id", result.ID, "error", err)
	}
}
