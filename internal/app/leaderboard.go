package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// Rank orders results by score descending, then total time ascending. Equal
// keys keep their input order and share a rank: a result's rank is one plus
// the number of results strictly ahead of it.
func Rank(results []domain.QuizResult, at time.Time) domain.Leaderboard {
	ordered := make([]domain.QuizResult, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rankedBefore(ordered[i], ordered[j])
	})

	entries := make([]domain.LeaderboardEntry, len(ordered))
	for i, result := range ordered {
		rank := i + 1
		if i > 0 && !rankedBefore(ordered[i-1], result) {
			rank = entries[i-1].Rank
		}
		entries[i] = domain.LeaderboardEntry{Rank: rank, Result: result}
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: at}
}

func rankedBefore(a, b domain.QuizResult) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.TotalTimeMs < b.TotalTimeMs
}

// LeaderboardService keeps the ranked board current. It recomputes the whole
// order from the result store whenever results are inserted or cleared. With
// a settings source only results of the current round are ranked.
type LeaderboardService struct {
	results  ResultRepository
	settings SettingsRepository
	control  ControlChannel
	clock   clock.Clock
	log     *logger.Logger
	sf      singleflight.Group

	mu          sync.RWMutex
	seq         uint64
	appliedSeq  uint64
	current     domain.Leaderboard
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewLeaderboardService(results ResultRepository, settings SettingsRepository, control ControlChannel, clk clock.Clock, log *logger.Logger) *LeaderboardService {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &LeaderboardService{
		results:     results,
		settings:    settings,
		control:     control,
		clock:       clk,
		log:         log.With("component", "leaderboard"),
		current:     domain.Leaderboard{Entries: []domain.LeaderboardEntry{}},
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Refresh recomputes the board. Concurrent callers share one store read.
func (s *LeaderboardService) Refresh(ctx context.Context) (domain.Leaderboard, error) {
	v, err, _ := s.sf.Do("leaderboard", func() (interface{}, error) {
		return s.recompute(ctx)
	})
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return v.(domain.Leaderboard), nil
}

// Current returns the last computed board without touching the store.
func (s *LeaderboardService) Current() domain.Leaderboard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel of boards, primed with the current one.
func (s *LeaderboardService) Subscribe() (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 4)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.current
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// Run follows the control channel until ctx is done, recomputing on every
// result change. It computes once up front so a restart catches up.
func (s *LeaderboardService) Run(ctx context.Context) error {
	events, cancel, err := s.control.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if _, err := s.recompute(ctx); err != nil {
		s.log.Warn("initial leaderboard load failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			switch event.Kind {
			case domain.EventResultInserted, domain.EventResultsCleared:
			case domain.EventSettingsChanged:
				if event.Settings == nil || !event.Settings.IsActive {
					continue
				}
			default:
				continue
			}
			if _, err := s.recompute(ctx); err != nil {
				s.log.Warn("leaderboard recompute failed", "kind", event.Kind, "error", err)
			}
		}
	}
}

// recompute reads and ranks the full result set. A slower, older computation
// never overwrites a newer one.
func (s *LeaderboardService) recompute(ctx context.Context) (domain.Leaderboard, error) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	results, err := s.results.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err != nil {
			return domain.Leaderboard{}, err
		}
		results = inRound(results, settings.Round)
	}
	board := Rank(results, s.clock.Now().UTC())

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq > s.appliedSeq {
		s.appliedSeq = seq
		s.current = board
		s.broadcastLocked(board)
	}
	return board, nil
}

// inRound drops results finished for an earlier round that landed after the
// new round cleared the store.
func inRound(results []domain.QuizResult, round int64) []domain.QuizResult {
	out := make([]domain.QuizResult, 0, len(results))
	for _, r := range results {
		if r.Round == round {
			out = append(out, r)
		}
	}
	return out
}

func (s *LeaderboardService) broadcastLocked(board domain.Leaderboard) {
	for ch := range s.subscribers {
		select {
		case ch <- board:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- board
		}
	}
}
