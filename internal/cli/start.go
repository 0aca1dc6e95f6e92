package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"quizrush/internal/app"
	"quizrush/internal/config"
	"quizrush/internal/domain"
	"quizrush/internal/logger"
	transport "quizrush/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	submitter := app.NewSubmitter(b.results, b.control, nil, log, config.Duration(cfg.Quiz.SubmitTimeout, 5*time.Second))
	quiz := app.NewQuizService(app.QuizDeps{
		Registrations: b.registrations,
		Settings:      b.settings,
		Control:       b.control,
		Sessions:      b.sessions,
		Sink:          submitter,
		Bank:          domain.DefaultBank,
		Tick:          config.Duration(cfg.Quiz.Tick, app.DefaultTick),
		Logger:        log,
	})
	rounds := app.NewRoundService(b.settings, b.results, b.control, b.sessions, nil, log)
	board := app.NewLeaderboardService(b.results, b.settings, b.control, nil, log)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		if err := board.Run(runCtx); err != nil {
			log.Error("leaderboard stopped", "error", err)
		}
	}()
	if b.presence != nil {
		go keepPresence(runCtx, b, config.Duration(cfg.Redis.TTL, 10*time.Minute), log)
	}

	if cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := transport.NewHandler(quiz, rounds, board, b.control, log)

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler.Router(),
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quiz service", "port", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	// Shutdown leaves hijacked sockets running; stop their sessions so no
	// tally is submitted while the submitter drains.
	quiz.CloseAll()
	cancelRun()
	submitter.Close()
	return err
}

const minPresenceInterval = time.Second

// presenceInterval is a third of the TTL, never below minPresenceInterval.
func presenceInterval(ttl time.Duration) time.Duration {
	if interval := ttl / 3; interval > minPresenceInterval {
		return interval
	}
	return minPresenceInterval
}

// keepPresence refreshes session presence keys before they expire.
func keepPresence(ctx context.Context, b *backend, ttl time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(presenceInterval(ttl))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.presence.Touch(ctx); err != nil {
				log.Warn("refreshing session presence failed", "error", err)
			}
		}
	}
}
