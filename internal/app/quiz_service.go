package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// QuizDeps wires a QuizService.
type QuizDeps struct {
	Registrations RegistrationRepository
	Settings      SettingsRepository
	Control       ControlChannel
	Sessions      SessionRepository
	Sink          ResultSink
	Bank          domain.QuestionBank
	Clock         clock.Clock
	Tick          time.Duration
	Logger        *logger.Logger
}

// QuizService contains the participant-facing quiz use cases.
type QuizService struct {
	registrations RegistrationRepository
	settings      SettingsRepository
	control       ControlChannel
	sessions      SessionRepository
	sessionConfig SessionConfig
	log           *logger.Logger
}

func NewQuizService(deps QuizDeps) *QuizService {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	bank := deps.Bank
	if bank.Len() == 0 {
		bank = domain.DefaultBank
	}
	return &QuizService{
		registrations: deps.Registrations,
		settings:      deps.Settings,
		control:       deps.Control,
		sessions:      deps.Sessions,
		sessionConfig: SessionConfig{
			Bank:   bank,
			Clock:  deps.Clock,
			Tick:   deps.Tick,
			Sink:   deps.Sink,
			Logger: log,
		},
		log: log.With("component", "quiz"),
	}
}

// Verify checks that email belongs to a registrant. A miss is reported as
// domain.ErrVerificationFailed and may simply be retried by the user.
func (s *QuizService) Verify(ctx context.Context, email string) (domain.Participant, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.Participant{}, domain.ErrVerificationFailed
	}
	reg, err := s.registrations.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrRegistrationNotFound) {
			s.log.Info("verification failed", "email", email)
			return domain.Participant{}, domain.ErrVerificationFailed
		}
		return domain.Participant{}, fmt.Errorf("verify participant: %w", err)
	}
	name := reg.Name
	if name == "" {
		name = "Participant"
	}
	return domain.Participant{Email: reg.Email, Name: name}, nil
}

// Join creates a session for a verified participant. The session follows the
// control channel until it is closed via Leave or ctx ends. Settings are read
// once after subscribing so a round already in progress is picked up.
func (s *QuizService) Join(ctx context.Context, participant domain.Participant) (*Session, error) {
	session := NewSession(uuid.NewString(), participant, s.sessionConfig)

	events, cancel, err := s.control.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("subscribe control channel: %w", err)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("load quiz settings: %w", err)
	}
	session.ApplySettings(settings)
	session.setDetach(cancel)
	s.sessions.Add(session)

	go s.follow(session, events)

	s.log.Info("participant joined", "session_id", session.ID(), "email", participant.Email, "round", settings.Round, "active", settings.IsActive)
	return session, nil
}

// Answer submits an option for the session's current question.
func (s *QuizService) Answer(_ context.Context, sessionID string, option int) (domain.Outcome, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Outcome{}, domain.ErrSessionNotFound
	}
	return session.Select(option)
}

// Leave closes the session and forgets it.
func (s *QuizService) Leave(_ context.Context, sessionID string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	session.Close()
	s.sessions.Remove(sessionID)
	s.log.Debug("participant left", "session_id", sessionID)
}

// CloseAll stops every session hosted here. Once it returns no session can
// finish, so no further tally reaches the sink.
func (s *QuizService) CloseAll() {
	n := s.sessions.CloseAll()
	s.log.Info("closed all sessions", "count", n)
}

func (s *QuizService) follow(session *Session, events <-chan domain.ControlEvent) {
	for event := range events {
		if event.Kind != domain.EventSettingsChanged || event.Settings == nil {
			continue
		}
		session.ApplySettings(*event.Settings)
	}
}
