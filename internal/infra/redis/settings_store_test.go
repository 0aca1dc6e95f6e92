package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

func TestSettingsStoreRounds(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()
	store := NewSettingsStore(newClient(mr))

	initial, err := store.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if initial.IsActive || initial.Round != 0 {
		t.Fatalf("expected zero settings, got %+v", initial)
	}

	started, err := store.SetActive(ctx, true)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	if !started.IsActive || started.Round != 1 {
		t.Fatalf("unexpected activation %+v", started)
	}
	closed, _ := store.SetActive(ctx, false)
	if closed.IsActive || closed.Round != 1 {
		t.Fatalf("unexpected close %+v", closed)
	}
	again, _ := store.SetActive(ctx, true)
	if again.Round != 2 {
		t.Fatalf("expected round 2, got %+v", again)
	}

	got, _ := store.Get(ctx)
	if !got.IsActive || got.Round != 2 || got.UpdatedAt.IsZero() {
		t.Fatalf("unexpected stored settings %+v", got)
	}
	if mr.HGet("quiz:settings", "is_active") != "1" {
		t.Fatalf("expected hash field set")
	}
}
