package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quizrush/internal/app"
	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/infra/memory"
)

type testEnv struct {
	clock     *clock.Fake
	settings  *memory.SettingsStore
	results   *memory.ResultStore
	control   *memory.ControlBroker
	sessions  *memory.SessionStore
	submitter *app.Submitter
	quiz      *app.QuizService
	rounds    *app.RoundService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		clock:    clock.NewFake(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)),
		settings: memory.NewSettingsStore(),
		results:  memory.NewResultStore(),
		control:  memory.NewControlBroker(),
		sessions: memory.NewSessionStore(),
	}
	env.submitter = app.NewSubmitter(env.results, env.control, env.clock, nil, time.Second)
	env.quiz = app.NewQuizService(app.QuizDeps{
		Registrations: memory.NewRegistrationStore([]domain.Registration{
			{Email: "alice@example.com", Name: "Alice"},
			{Email: "bob@example.com", Name: "Bob"},
		}),
		Settings: env.settings,
		Control:  env.control,
		Sessions: env.sessions,
		Sink:     env.submitter,
		Bank:     domain.DefaultBank,
		Clock:    env.clock,
		Tick:     10 * time.Millisecond,
	})
	env.rounds = app.NewRoundService(env.settings, env.results, env.control, env.sessions, env.clock, nil)
	return env
}

func (e *testEnv) join(t *testing.T, ctx context.Context, email string) *app.Session {
	t.Helper()
	participant, err := e.quiz.Verify(ctx, email)
	if err != nil {
		t.Fatalf("verify %s: %v", email, err)
	}
	session, err := e.quiz.Join(ctx, participant)
	if err != nil {
		t.Fatalf("join %s: %v", email, err)
	}
	t.Cleanup(func() { e.quiz.Leave(context.Background(), session.ID()) })
	return session
}

func waitForStatus(t *testing.T, session *app.Session, status domain.SessionStatus, round int64) domain.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		snap := session.Snapshot()
		if snap.Status == status && snap.Round == round {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s in round %d, last %+v", status, round, snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	p, err := env.quiz.Verify(ctx, "  alice@example.com ")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if p.Name != "Alice" || p.Email != "alice@example.com" {
		t.Fatalf("unexpected participant %+v", p)
	}
	for _, email := range []string{"", "mallory@example.com"} {
		if _, err := env.quiz.Verify(ctx, email); !errors.Is(err, domain.ErrVerificationFailed) {
			t.Fatalf("%q: expected verification failure, got %v", email, err)
		}
	}
}

func TestJoinPicksUpRunningRound(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if _, err := env.rounds.StartRound(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}

	session := env.join(t, ctx, "alice@example.com")
	snap := session.Snapshot()
	if snap.Status != domain.StatusActive || snap.Round != 1 || snap.QuestionIndex != 0 {
		t.Fatalf("expected active at question 1, got %+v", snap)
	}
}

func TestRoundLifecycleAcrossSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	alice := env.join(t, ctx, "alice@example.com")
	bob := env.join(t, ctx, "bob@example.com")
	waitForSubscriberCount(t, env.control, 2)

	if _, err := env.rounds.StartRound(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitForStatus(t, alice, domain.StatusActive, 1)
	waitForStatus(t, bob, domain.StatusActive, 1)

	// Alice answers everything correctly; Bob answers three and stalls.
	for i := 0; i < domain.DefaultBank.Len(); i++ {
		env.clock.Advance(300 * time.Millisecond)
		if _, err := env.quiz.Answer(ctx, alice.ID(), domain.DefaultBank.QuestionAt(i).CorrectIndex); err != nil {
			t.Fatalf("alice answer %d: %v", i, err)
		}
		if i < 3 {
			if _, err := env.quiz.Answer(ctx, bob.ID(), domain.DefaultBank.QuestionAt(i).CorrectIndex); err != nil {
				t.Fatalf("bob answer %d: %v", i, err)
			}
		}
	}
	env.submitter.Wait()

	stored, _ := env.results.List(ctx)
	if len(stored) != 1 || stored[0].Email != "alice@example.com" || stored[0].Score != 20 || stored[0].TotalTimeMs != 6000 {
		t.Fatalf("unexpected stored results %+v", stored)
	}

	if _, err := env.rounds.CloseRound(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	bobSnap := waitForStatus(t, bob, domain.StatusWaiting, 1)
	if len(bobSnap.QuestionTimes) != 0 {
		t.Fatalf("bob's partial attempt should be discarded, got %+v", bobSnap)
	}
	if snap := alice.Snapshot(); snap.Status != domain.StatusFinished {
		t.Fatalf("alice should stay finished, got %s", snap.Status)
	}
	env.submitter.Wait()
	if stored, _ := env.results.List(ctx); len(stored) != 1 {
		t.Fatalf("closing must not store partial results, got %d", len(stored))
	}

	status, err := env.rounds.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Settings.IsActive || status.Connected != 2 || status.ResultsCount != 1 {
		t.Fatalf("unexpected status %+v", status)
	}

	// A new round clears results and restarts everyone.
	if _, err := env.rounds.StartRound(ctx); err != nil {
		t.Fatalf("restart: %v", err)
	}
	waitForStatus(t, alice, domain.StatusActive, 2)
	waitForStatus(t, bob, domain.StatusActive, 2)
	if stored, _ := env.results.List(ctx); len(stored) != 0 {
		t.Fatalf("expected results cleared, got %d", len(stored))
	}
}

func TestAnswerUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.quiz.Answer(context.Background(), "nope", 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestLeaveDetachesSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	session := env.join(t, ctx, "alice@example.com")
	waitForSubscriberCount(t, env.control, 1)

	env.quiz.Leave(ctx, session.ID())
	waitForSubscriberCount(t, env.control, 0)
	if _, ok := env.sessions.Get(session.ID()); ok {
		t.Fatalf("session still registered after leave")
	}
	if _, err := env.quiz.Answer(ctx, session.ID(), 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found after leave, got %v", err)
	}
}

func newRoundServiceWithControl(env *testEnv, control app.ControlChannel) *app.RoundService {
	return app.NewRoundService(env.settings, env.results, control, env.sessions, env.clock, nil)
}

func waitForSubscriberCount(t *testing.T, broker *memory.ControlBroker, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for broker.Subscribers() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d subscribers, have %d", n, broker.Subscribers())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCloseAllStopsSessionsBeforeTheyFinish(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	if _, err := env.rounds.StartRound(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	alice := env.join(t, ctx, "alice@example.com")
	bob := env.join(t, ctx, "bob@example.com")
	waitForStatus(t, alice, domain.StatusActive, 1)
	waitForStatus(t, bob, domain.StatusActive, 1)

	env.quiz.CloseAll()
	waitForSubscriberCount(t, env.control, 0)
	if n, _ := env.sessions.Count(ctx); n != 0 {
		t.Fatalf("expected no registered sessions, got %d", n)
	}
	if _, err := env.quiz.Answer(ctx, alice.ID(), 0); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected not found after close, got %v", err)
	}
	if _, err := alice.Select(0); !errors.Is(err, domain.ErrSessionNotActive) {
		t.Fatalf("closed session accepted an answer: %v", err)
	}

	// Every countdown would have expired by now if it were still armed.
	for i := 0; i < domain.DefaultBank.Len(); i++ {
		env.clock.Advance(domain.QuestionBudget)
	}
	env.submitter.Close()
	if stored, _ := env.results.List(ctx); len(stored) != 0 {
		t.Fatalf("closed sessions must not submit, got %d results", len(stored))
	}
}
