package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizrush/internal/app"
	"quizrush/internal/domain"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("s-1", domain.Participant{Email: "alice@example.com"}, app.SessionConfig{Bank: domain.DefaultBank})
	store.Add(session)
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be set")
	}
	if v, _ := mr.Get("quiz:session:s-1"); v != "1" {
		t.Fatalf("presence key must not carry participant data, got %q", v)
	}
	if got, _ := store.Get("s-1"); got != session {
		t.Fatalf("expected local session")
	}

	// another instance's session is visible through Count
	mr.Set("quiz:session:remote", "bob@example.com")
	if n, err := store.Count(context.Background()); err != nil || n != 2 {
		t.Fatalf("expected 2 sessions, got %d (%v)", n, err)
	}

	mr.FastForward(50 * time.Second)
	if err := store.Touch(context.Background()); err != nil {
		t.Fatalf("touch: %v", err)
	}
	mr.FastForward(50 * time.Second)
	if !mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected touched key to survive")
	}

	store.Remove("s-1")
	if mr.Exists("quiz:session:s-1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreCloseAllDropsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)
	cfg := app.SessionConfig{Bank: domain.DefaultBank}
	store.Add(app.NewSession("s-1", domain.Participant{Email: "a@example.com"}, cfg))
	store.Add(app.NewSession("s-2", domain.Participant{Email: "b@example.com"}, cfg))
	mr.Set("quiz:session:remote", "1")

	if n := store.CloseAll(); n != 2 {
		t.Fatalf("expected 2 closed sessions, got %d", n)
	}
	if mr.Exists("quiz:session:s-1") || mr.Exists("quiz:session:s-2") {
		t.Fatalf("expected local presence keys removed")
	}
	if !mr.Exists("quiz:session:remote") {
		t.Fatalf("another instance's key must survive")
	}
	if _, ok := store.Get("s-1"); ok {
		t.Fatalf("expected local session forgotten")
	}
}
