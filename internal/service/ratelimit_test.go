package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arturoeanton/gitgrade-analyzer/internal/adapter/store"
	"github.com/arturoeanton/gitgrade-analyzer/internal/domain"
	"github.com/arturoeanton/gitgrade-analyzer/internal/port"
)

func TestRateLimiterExhaustsAndResets(t *testing.T) {
	ctx := context.Background()
	lim := NewRateLimiter(store.NewMemoryStore(), 3, time.Hour)
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := lim.Allow(ctx, "alice", t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("request %d rejected: %v", i+1, err)
		}
	}
	if err := lim.Allow(ctx, "alice", t0.Add(10*time.Minute)); !errors.Is(err, port.ErrRateLimited) {
		t.Fatalf("4th request: got %v, want ErrRateLimited", err)
	}

	// Other identities have their own quota.
	if err := lim.Allow(ctx, "bob", t0.Add(10*time.Minute)); err != nil {
		t.Errorf("bob rejected: %v", err)
	}

	// A request after the window elapses starts a new window.
	if err := lim.Allow(ctx, "alice", t0.Add(time.Hour)); err != nil {
		t.Errorf("request after window rejected: %v", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	lim := NewRateLimiter(store.NewMemoryStore(), 0, time.Hour)
	for i := 0; i < 50; i++ {
		if err := lim.Allow(context.Background(), "alice", time.Now()); err != nil {
			t.Fatal(err)
		}
	}
}

type failingStore struct{ puts int }

func (f *failingStore) GetRateLimit(context.Context, string) (*domain.RateLimitRecord, error) {
	return nil, errors.New("connection refused")
}

func (f *failingStore) PutRateLimit(context.Context, domain.RateLimitRecord) error {
	f.puts++
	return nil
}

func TestRateLimiterFailsOpen(t *testing.T) {
	fs := &failingStore{}
	lim := NewRateLimiter(fs, 1, time.Hour)
	for i := 0; i < 3; i++ {
		if err := lim.Allow(context.Background(), "alice", time.Now()); err != nil {
			t.Fatalf("store failure should allow the request, got %v", err)
		}
	}
	if fs.puts != 0 {
		t.Errorf("no write expected after a failed read, got %d", fs.puts)
	}
}
