package postgres

import (
	"testing"

	"talent-match/internal/config"
)

func TestDSN(t *testing.T) {
	got := DSN(config.DatabaseConfig{DBHost: " db ", DBUser: "app", DBPassword: "secret", DBName: "match"})
	want := "host=db port=5432 user=app password=secret dbname=match sslmode=disable"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	got = DSN(config.DatabaseConfig{DBHost: "db", DBPort: "6432", DBUser: "app", DBPassword: "it's a pass", DBName: "match", DBSSLMode: "require"})
	want = `host=db port=6432 user=app password='it\'s a pass' dbname=match sslmode=require`
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPool_NilSafe(t *testing.T) {
	var p *Pool
	if err := p.Ping(t.Context()); err == nil {
		t.Fatalf("expected error from nil pool")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("unexpected close err: %v", err)
	}
	if err := p.QueryRow(t.Context(), "SELECT 1").Scan(); err == nil {
		t.Fatalf("expected error from nil row")
	}
}
