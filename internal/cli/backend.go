package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quizrush/internal/app"
	"quizrush/internal/config"
	"quizrush/internal/domain"
	"quizrush/internal/infra/memory"
	"quizrush/internal/infra/postgres"
	infraredis "quizrush/internal/infra/redis"
	"quizrush/internal/logger"
)

// backend bundles the repositories selected by config. Postgres, when set,
// owns registrations, settings and results; Redis, when set, carries the
// control channel and session presence. Anything unset falls back to memory.
type backend struct {
	registrations app.RegistrationRepository
	settings      app.SettingsRepository
	results       app.ResultRepository
	control       app.ControlChannel
	sessions      app.SessionRepository
	presence      *infraredis.SessionStore
	// broadcast is set when control events reach other processes.
	broadcast bool
	// shared is set when the stores are visible to other processes.
	shared bool

	closers []func()
}

func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger) (*backend, error) {
	b := &backend{}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		b.closers = append(b.closers, func() { _ = redisClient.Close() })
	}

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		db := postgres.OpenBun(cfg.Postgres.URL)
		b.closers = append(b.closers, pool.Close, func() { _ = db.Close() })

		b.registrations = postgres.NewRegistrationStore(pool)
		b.settings = postgres.NewSettingsStore(pool)
		b.results = postgres.NewResultStore(db)
		b.shared = true
	} else {
		b.registrations = memory.NewRegistrationStore(seedRegistrations(cfg))
		b.results = memory.NewResultStore()
		if redisClient != nil {
			b.settings = infraredis.NewSettingsStore(redisClient)
		} else {
			b.settings = memory.NewSettingsStore()
		}
	}

	if redisClient != nil {
		b.control = infraredis.NewControlChannel(redisClient, cfg.ControlChannel(), log)
		b.broadcast = true
		b.presence = infraredis.NewSessionStore(redisClient, config.Duration(cfg.Redis.TTL, 10*time.Minute))
		b.sessions = b.presence
	} else {
		b.control = memory.NewControlBroker()
		b.sessions = memory.NewSessionStore()
	}

	log.Info("backend ready",
		"postgres", cfg.Postgres.URL != "",
		"redis", redisClient != nil,
		"control_channel", cfg.ControlChannel(),
	)
	return b, nil
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
	b.closers = nil
}

func seedRegistrations(cfg config.Config) []domain.Registration {
	seed := make([]domain.Registration, 0, len(cfg.Registrations))
	for _, reg := range cfg.Registrations {
		seed = append(seed, domain.Registration{Email: reg.Email, Name: reg.Name})
	}
	return seed
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return log, nil
}
