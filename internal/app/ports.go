package app

import (
	"context"

	"quizrush/internal/domain"
)

// RegistrationRepository looks up registrants for participant verification.
type RegistrationRepository interface {
	FindByEmail(ctx context.Context, email string) (domain.Registration, error)
}

// SettingsRepository owns the quiz_settings singleton.
// SetActive(true) opens a new round and bumps the round counter.
type SettingsRepository interface {
	Get(ctx context.Context) (domain.QuizSettings, error)
	SetActive(ctx context.Context, active bool) (domain.QuizSettings, error)
}

// ResultRepository persists quiz results. List returns results in insertion order.
type ResultRepository interface {
	Insert(ctx context.Context, result domain.QuizResult) error
	List(ctx context.Context) ([]domain.QuizResult, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// ControlChannel is the live publish/subscribe feed for settings and result changes.
// Subscriptions end when ctx is done or the returned cancel func is called.
type ControlChannel interface {
	Publish(ctx context.Context, event domain.ControlEvent) error
	Subscribe(ctx context.Context) (<-chan domain.ControlEvent, func(), error)
}

// SessionRepository tracks the participant sessions hosted by this process.
type SessionRepository interface {
	Add(session *Session)
	Get(sessionID string) (*Session, bool)
	Remove(sessionID string)
	Count(ctx context.Context) (int, error)
	// CloseAll closes and forgets every local session, returning how many.
	CloseAll() int
}
