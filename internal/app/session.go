package app

import (
	"sync"
	"time"

	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// Tally is the final outcome of a finished session, handed to a ResultSink.
type Tally struct {
	Participant   domain.Participant
	Round         int64
	Score         int
	TotalTimeMs   int64
	QuestionTimes []int64
}

// ResultSink receives exactly one Tally per finished session. Submit must not block.
type ResultSink interface {
	Submit(tally Tally)
}

// SessionConfig carries the collaborators shared by every session.
type SessionConfig struct {
	Bank   domain.QuestionBank
	Clock  clock.Clock
	Tick   time.Duration
	Sink   ResultSink
	Logger *logger.Logger
}

// Session drives one participant through the question bank. All transitions
// run under mu; timer callbacks carry the epoch they were armed in and are
// dropped if the session has moved on since.
type Session struct {
	id          string
	participant domain.Participant
	bank        domain.QuestionBank
	countdown   *Countdown
	sink        ResultSink
	log         *logger.Logger

	mu            sync.Mutex
	status        domain.SessionStatus
	round         int64
	version       int64
	epoch         uint64
	index         int
	score         int
	questionTimes []int64
	totalTimeMs   int64
	lastOutcome   *domain.Outcome
	closed        bool
	detach        func()
	subscribers   map[chan domain.SessionSnapshot]struct{}
}

// NewSession creates a Waiting session. It starts only when it observes an
// active QuizSettings via ApplySettings.
func NewSession(id string, participant domain.Participant, cfg SessionConfig) *Session {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		id:          id,
		participant: participant,
		bank:        cfg.Bank,
		countdown:   NewCountdown(clk, domain.QuestionBudget, cfg.Tick),
		sink:        cfg.Sink,
		log:         log.With("session_id", id, "email", participant.Email),
		status:      domain.StatusWaiting,
		version:     -1,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Participant() domain.Participant { return s.participant }

// ApplySettings feeds a quiz_settings state into the state machine. States
// older than or equal to the last one applied are stale and ignored; the
// return value reports whether the state was applied.
func (s *Session) ApplySettings(settings domain.QuizSettings) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if settings.Version() <= s.version {
		s.log.Debug("ignoring stale settings", "round", settings.Round, "active", settings.IsActive)
		return false
	}
	s.version = settings.Version()
	s.round = settings.Round

	if settings.IsActive {
		s.resetLocked()
		s.status = domain.StatusActive
		s.armLocked()
		s.log.Info("round started", "round", settings.Round)
	} else if s.status == domain.StatusActive {
		// Closing mid-round drops the attempt without a result.
		s.countdown.Stop()
		s.epoch++
		s.resetLocked()
		s.status = domain.StatusWaiting
		s.log.Info("round closed mid-session", "round", settings.Round)
	}
	s.publishLocked()
	return true
}

// Select answers the current question with the given option index.
func (s *Session) Select(option int) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.status != domain.StatusActive {
		return domain.Outcome{}, domain.ErrSessionNotActive
	}
	q := s.bank.QuestionAt(s.index)
	if option < 0 || option >= len(q.Options) {
		return domain.Outcome{}, domain.ErrInvalidOption
	}

	remaining, running := s.countdown.Stop()
	if !running || remaining <= 0 {
		// The budget ran out before the selection was processed.
		return s.resolveLocked(-1, s.budgetMs(), true), nil
	}
	elapsed := (s.countdown.Budget() - remaining).Milliseconds()
	return s.resolveLocked(option, clampElapsed(elapsed, s.budgetMs()), false), nil
}

// Snapshot returns a copy of the session's observable state.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots, primed with the current state.
// Slow readers only ever miss intermediate snapshots, never the latest one.
func (s *Session) Subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
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

// Close stops the countdown, detaches the session from the control channel
// and closes all subscriptions. A closed session ignores every later event.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.countdown.Stop()
	s.epoch++
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	detach := s.detach
	s.detach = nil
	s.mu.Unlock()

	if detach != nil {
		detach()
	}
}

func (s *Session) setDetach(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	s.detach = fn
	s.mu.Unlock()
}

func (s *Session) expire(epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.epoch != epoch || s.status != domain.StatusActive {
		return
	}
	s.resolveLocked(-1, s.budgetMs(), true)
}

// resolveLocked closes out the current question, then either arms the next
// one or finishes and submits. The submitted tally includes this question.
func (s *Session) resolveLocked(selected int, elapsedMs int64, timedOut bool) domain.Outcome {
	q := s.bank.QuestionAt(s.index)
	correct := !timedOut && q.IsCorrect(selected)

	s.questionTimes = append(s.questionTimes, elapsedMs)
	s.totalTimeMs += elapsedMs
	if correct {
		s.score++
	}
	outcome := domain.Outcome{
		QuestionIndex: s.index,
		Selected:      selected,
		Correct:       correct,
		ElapsedMs:     elapsedMs,
		TimedOut:      timedOut,
	}
	s.lastOutcome = &outcome
	s.epoch++
	s.index++

	if s.index >= s.bank.Len() {
		s.status = domain.StatusFinished
		s.countdown.Stop()
		times := make([]int64, len(s.questionTimes))
		copy(times, s.questionTimes)
		s.log.Info("session finished", "round", s.round, "score", s.score, "total_time_ms", s.totalTimeMs)
		if s.sink != nil {
			s.sink.Submit(Tally{
				Participant:   s.participant,
				Round:         s.round,
				Score:         s.score,
				TotalTimeMs:   s.totalTimeMs,
				QuestionTimes: times,
			})
		}
	} else {
		s.armLocked()
	}
	s.publishLocked()
	return outcome
}

func (s *Session) armLocked() {
	s.epoch++
	epoch := s.epoch
	s.countdown.Start(func() { s.expire(epoch) })
}

func (s *Session) resetLocked() {
	s.countdown.Stop()
	s.epoch++
	s.index = 0
	s.score = 0
	s.questionTimes = nil
	s.totalTimeMs = 0
	s.lastOutcome = nil
}

func (s *Session) budgetMs() int64 {
	return s.countdown.Budget().Milliseconds()
}

func (s *Session) publishLocked() {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	times := make([]int64, len(s.questionTimes))
	copy(times, s.questionTimes)
	snapshot := domain.SessionSnapshot{
		SessionID:     s.id,
		Participant:   s.participant,
		Status:        s.status,
		Round:         s.round,
		QuestionIndex: s.index,
		QuestionCount: s.bank.Len(),
		Score:         s.score,
		TotalTimeMs:   s.totalTimeMs,
		QuestionTimes: times,
	}
	if s.lastOutcome != nil {
		outcome := *s.lastOutcome
		snapshot.LastOutcome = &outcome
	}
	if s.status == domain.StatusActive {
		view := s.bank.QuestionAt(s.index).View()
		snapshot.Question = &view
		snapshot.RemainingMs = s.countdown.Remaining().Milliseconds()
	}
	return snapshot
}

func clampElapsed(elapsed, budget int64) int64 {
	if elapsed < 0 {
		return 0
	}
	if elapsed > budget {
		return budget
	}
	return elapsed
}
