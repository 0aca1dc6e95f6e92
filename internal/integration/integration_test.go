package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"

	"quizrush/internal/app"
	"quizrush/internal/clock"
	"quizrush/internal/domain"
	"quizrush/internal/infra/postgres"
	pgmigrations "quizrush/internal/infra/postgres/migrations"
	infraredis "quizrush/internal/infra/redis"
)

func TestRoundEndToEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateAll(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, `INSERT INTO registrations (email, name) VALUES ($1, $2)`, "ada@example.com", "Ada"); err != nil {
		t.Fatalf("seed registration: %v", err)
	}
	db := postgres.OpenBun(pgURL)
	defer db.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	clk := clock.NewFake(time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC))
	settings := postgres.NewSettingsStore(pool)
	results := postgres.NewResultStore(db)
	control := infraredis.NewControlChannel(redisClient, "quiz:control:test", nil)
	sessions := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	submitter := app.NewSubmitter(results, control, clk, nil, 5*time.Second)
	quiz := app.NewQuizService(app.QuizDeps{
		Registrations: postgres.NewRegistrationStore(pool),
		Settings:      settings,
		Control:       control,
		Sessions:      sessions,
		Sink:          submitter,
		Bank:          domain.DefaultBank,
		Clock:         clk,
		Tick:          10 * time.Millisecond,
	})
	rounds := app.NewRoundService(settings, results, control, sessions, clk, nil)
	board := app.NewLeaderboardService(results, settings, control, clk, nil)
	go func() { _ = board.Run(ctx) }()

	opened, err := rounds.StartRound(ctx)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if !opened.IsActive || opened.Round != 1 {
		t.Fatalf("unexpected settings after start: %+v", opened)
	}

	participant, err := quiz.Verify(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := quiz.Verify(ctx, "eve@example.com"); !errors.Is(err, domain.ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	session, err := quiz.Join(ctx, participant)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	defer quiz.Leave(ctx, session.ID())

	bank := domain.DefaultBank
	for i := 0; i < bank.Len(); i++ {
		clk.Advance(time.Second)
		if _, err := session.Select(bank.QuestionAt(i).CorrectIndex); err != nil {
			t.Fatalf("answer %d: %v", i, err)
		}
	}
	if snap := session.Snapshot(); snap.Status != domain.StatusFinished {
		t.Fatalf("expected finished session, got %s", snap.Status)
	}
	submitter.Wait()

	stored, err := results.List(ctx)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one result, got %d", len(stored))
	}
	got := stored[0]
	if got.Score != 20 || got.TotalTimeMs != 20000 || len(got.QuestionTimes) != 20 || got.Round != 1 {
		t.Fatalf("unexpected stored result %+v", got)
	}
	for i, ms := range got.QuestionTimes {
		if ms != 1000 {
			t.Fatalf("question %d: expected 1000ms, got %d", i, ms)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for len(board.Current().Entries) != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("leaderboard never picked up the result")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if board.Current().RankOf(got.ID) != 1 {
		t.Fatalf("expected rank 1, got %+v", board.Current().Entries)
	}

	if _, err := rounds.CloseRound(ctx); err != nil {
		t.Fatalf("close round: %v", err)
	}
	reopened, err := rounds.StartRound(ctx)
	if err != nil {
		t.Fatalf("restart round: %v", err)
	}
	if reopened.Round != 2 {
		t.Fatalf("expected round 2, got %d", reopened.Round)
	}
	left, err := results.List(ctx)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected results cleared, got %d", len(left))
	}
}

func migrateAll(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	db := postgres.OpenBun(dsn)
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(context.Background())
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(context.Background())
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
