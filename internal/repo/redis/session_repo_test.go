package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/domain/model"
)

func TestSessionRepoRoundTripAndExpiry(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewSessionRepo(client, time.Hour)
	ctx := context.Background()

	empty, err := repo.Load(ctx, 42)
	if err != nil {
		t.Fatalf("load missing session: %v", err)
	}
	if !empty.IsIdle() || empty.UserID != 42 {
		t.Fatalf("unexpected missing session: %+v", empty)
	}

	session := model.NewSession(42)
	session.Step = enums.FlowStepWaitingPhoto
	session.Draft.Nickname = "Nova"
	session.Queue = model.CandidateQueue{Mode: enums.MatchModeLikers, IDs: []int64{7, 8}}
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}

	loaded, err := repo.Load(ctx, 42)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if loaded.Step != enums.FlowStepWaitingPhoto || loaded.Draft.Nickname != "Nova" {
		t.Fatalf("unexpected loaded session: %+v", loaded)
	}
	if head, ok := loaded.Queue.Head(); !ok || head != 7 {
		t.Fatalf("unexpected queue head: got %d ok=%v", head, ok)
	}

	mr.FastForward(2 * time.Hour)

	expired, err := repo.Load(ctx, 42)
	if err != nil {
		t.Fatalf("load expired session: %v", err)
	}
	if !expired.IsIdle() {
		t.Fatalf("expected idle session after ttl, got %+v", expired)
	}
}

func TestSessionRepoClear(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewSessionRepo(client, 0)
	ctx := context.Background()

	session := model.NewSession(5)
	session.ReplyTo = 9
	if err := repo.Save(ctx, session); err != nil {
		t.Fatalf("save session: %v", err)
	}
	if err := repo.Clear(ctx, 5); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if mr.Exists(sessionKey(5)) {
		t.Fatalf("session key should be deleted")
	}
}

func TestThrottleRepoWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	repo := NewThrottleRepo(client)
	ctx := context.Background()

	for i := int64(1); i <= 3; i++ {
		hits, resetIn, err := repo.Hit(ctx, "like", "10s", 7, 10*time.Second)
		if err != nil {
			t.Fatalf("hit #%d: %v", i, err)
		}
		if hits != i || resetIn <= 0 || resetIn > 10*time.Second {
			t.Fatalf("unexpected window state #%d: hits=%d reset_in=%s", i, hits, resetIn)
		}
	}
	if ttl := mr.TTL("bot_throttle:like:10s:7"); ttl != 10*time.Second {
		t.Fatalf("unexpected counter ttl: %s", ttl)
	}

	hits, _, err := repo.Peek(ctx, "like", "10s", 7)
	if err != nil || hits != 3 {
		t.Fatalf("unexpected peek: hits=%d err=%v", hits, err)
	}
	if hits, _, err := repo.Peek(ctx, "support", "10s", 7); err != nil || hits != 0 {
		t.Fatalf("other action must have its own counter: hits=%d err=%v", hits, err)
	}

	mr.FastForward(11 * time.Second)

	hits, resetIn, err := repo.Peek(ctx, "like", "10s", 7)
	if err != nil {
		t.Fatalf("peek after window: %v", err)
	}
	if hits != 0 || resetIn != 0 {
		t.Fatalf("unexpected state after window: hits=%d reset_in=%s", hits, resetIn)
	}
}

func TestThrottleRepoRejectsEmptyWindow(t *testing.T) {
	mr, client := newMiniRedisClient(t)
	defer mr.Close()
	defer func() { _ = client.Close() }()

	if _, _, err := NewThrottleRepo(client).Hit(context.Background(), "like", "", 7, time.Second); err == nil {
		t.Fatalf("expected error for unnamed window")
	}
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr: mr.Addr(),
	})

	return mr, client
}
