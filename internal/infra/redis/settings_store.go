package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"quizrush/internal/domain"
)

// SettingsStore keeps the quiz_settings singleton in a Redis hash so several
// service instances share one switch without Postgres.
// Layout: HSET quiz:settings is_active {0|1} round {n} updated_at {unix nanos}
type SettingsStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

func NewSettingsStore(client *redis.Client) *SettingsStore {
	return &SettingsStore{client: client, key: "quiz:settings", now: time.Now}
}

func (s *SettingsStore) Get(ctx context.Context) (domain.QuizSettings, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("read settings: %w", err)
	}
	return parseSettings(fields), nil
}

// SetActive flips the switch in one MULTI; activation increments the round.
func (s *SettingsStore) SetActive(ctx context.Context, active bool) (domain.QuizSettings, error) {
	var incr int64
	flag := "0"
	if active {
		incr = 1
		flag = "1"
	}
	now := s.now().UTC()

	var roundCmd *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		roundCmd = pipe.HIncrBy(ctx, s.key, "round", incr)
		pipe.HSet(ctx, s.key, "is_active", flag, "updated_at", strconv.FormatInt(now.UnixNano(), 10))
		return nil
	})
	if err != nil {
		return domain.QuizSettings{}, fmt.Errorf("update settings: %w", err)
	}
	return domain.QuizSettings{IsActive: active, Round: roundCmd.Val(), UpdatedAt: now}, nil
}

func parseSettings(fields map[string]string) domain.QuizSettings {
	var settings domain.QuizSettings
	settings.IsActive = fields["is_active"] == "1"
	if round, err := strconv.ParseInt(fields["round"], 10, 64); err == nil {
		settings.Round = round
	}
	if nanos, err := strconv.ParseInt(fields["updated_at"], 10, 64); err == nil {
		settings.UpdatedAt = time.Unix(0, nanos).UTC()
	}
	return settings
}
