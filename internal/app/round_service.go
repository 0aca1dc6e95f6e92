package app

import (
	"context"
	"fmt"

	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
)

// RoundStatus is the admin view of the quiz switch.
type RoundStatus struct {
	Settings     domain.QuizSettings `json:"settings"`
	Connected    int                 `json:"connected"`
	ResultsCount int                 `json:"resultsCount"`
}

// RoundService implements the admin start/close controls.
type RoundService struct {
	settings SettingsRepository
	results  ResultRepository
	control  ControlChannel
	sessions SessionRepository
	clock    clock.Clock
	log      *logger.Logger
}

func NewRoundService(settings SettingsRepository, results ResultRepository, control ControlChannel, sessions SessionRepository, clk clock.Clock, log *logger.Logger) *RoundService {
	if clk == nil {
		clk = clock.Real()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RoundService{
		settings: settings,
		results:  results,
		control:  control,
		sessions: sessions,
		clock:    clk,
		log:      log.With("component", "rounds"),
	}
}

// StartRound clears previous results and opens a new round. Every connected
// session restarts from the first question when the event reaches it.
func (s *RoundService) StartRound(ctx context.Context) (domain.QuizSettings, error) {
	deleted, err := s.results.DeleteAll(ctx)
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("clear results: %w", err)
	}
	s.publish(ctx, domain.ControlEvent{Kind: domain.EventResultsCleared, At: s.clock.Now().UTC()})

	settings, err := s.settings.SetActive(ctx, true)
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("activate quiz: %w", err)
	}
	s.publish(ctx, domain.SettingsEvent(settings, s.clock.Now().UTC()))
	s.log.Info("round started", "round", settings.Round, "results_cleared", deleted)
	return settings, nil
}

// CloseRound deactivates the quiz. Sessions still mid-question drop their attempt.
func (s *RoundService) CloseRound(ctx context.Context) (domain.QuizSettings, error) {
	settings, err := s.settings.SetActive(ctx, false)
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("deactivate quiz: %w", err)
	}
	s.publish(ctx, domain.SettingsEvent(settings, s.clock.Now().UTC()))
	s.log.Info("round closed", "round", settings.Round)
	return settings, nil
}

// Settings returns the current quiz switch.
func (s *RoundService) Settings(ctx context.Context) (domain.QuizSettings, error) {
	return s.settings.Get(ctx)
}

// Status reports the switch, connected sessions and stored results.
func (s *RoundService) Status(ctx context.Context) (RoundStatus, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return RoundStatus{}, err
	}
	connected, err := s.sessions.Count(ctx)
	if err != nil {
		return RoundStatus{}, fmt.Errorf("count sessions: %w", err)
	}
	results, err := s.results.List(ctx)
	if err != nil {
		return RoundStatus{}, fmt.Errorf("list results: %w", err)
	}
	return RoundStatus{Settings: settings, Connected: connected, ResultsCount: len(results)}, nil
}

// publish is best effort: the store already holds the new state and
// subscribers re-read it when they reconnect.
func (s *RoundService) publish(ctx context.Context, event domain.ControlEvent) {
	if err := s.control.Publish(ctx, event); err != nil {
		s.log.Warn("publishing control event failed", "kind", event.Kind, "error", err)
	}
}
