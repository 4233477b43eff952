package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"talent-match/internal/config"
)

func TestRedis_DisabledBypassesCache(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: false}, nil)
	if r.Available() {
		t.Fatalf("expected disabled cache to be unavailable")
	}
	ctx := context.Background()

	var out map[string]string
	hit, err := r.GetJSON(ctx, "k", &out)
	if hit || err != nil {
		t.Fatalf("expected silent miss, got hit=%v err=%v", hit, err)
	}
	if err := r.SetJSON(ctx, "k", map[string]string{"a": "b"}, time.Second); err != nil {
		t.Fatalf("expected dropped write, got %v", err)
	}
	if err := r.Delete(ctx, "k"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n, err := r.DeleteByPattern(ctx, "match:*"); n != 0 || err != nil {
		t.Fatalf("unexpected pattern delete result: %d %v", n, err)
	}
	if ok, err := r.SetIfNotExists(ctx, "lock", "1", 0); ok || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected lock to be refused with ErrUnavailable, got %v %v", ok, err)
	}
	if err := r.Ping(ctx); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("unexpected close err: %v", err)
	}
}

func TestRedis_UnreachableServerBypassesCache(t *testing.T) {
	r := NewRedis(context.Background(), config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"}, nil)
	if r.Available() {
		t.Fatalf("expected unreachable redis to be bypassed")
	}
}

func TestRedis_NilReceiver(t *testing.T) {
	var r *Redis
	if hit, err := r.GetJSON(context.Background(), "k", nil); hit || err != nil {
		t.Fatalf("expected nil cache to miss silently")
	}
}
