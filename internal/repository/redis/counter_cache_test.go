package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/repository"
)

func TestCounterCacheRepository_IncrementSeedsMissingEntry(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewCounterCacheRepository(client, "counter")

	ctx := context.Background()
	ttl := time.Hour

	value, err := repo.IncrementBy(ctx, "user-1", "water", 1, 5, ttl)
	if err != nil {
		t.Fatalf("IncrementBy returned error: %v", err)
	}
	if value != 6 {
		t.Fatalf("expected seeded value 6, got %d", value)
	}

	value, err = repo.IncrementBy(ctx, "user-1", "water", -2, 100, ttl)
	if err != nil {
		t.Fatalf("IncrementBy returned error: %v", err)
	}
	if value != 4 {
		t.Fatalf("expected seed to be ignored for existing entry, got %d", value)
	}

	if remaining := server.TTL("counter:user-1:water"); remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestCounterCacheRepository_ConcurrentIncrements(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewCounterCacheRepository(client, "counter")

	ctx := context.Background()
	const workers = 10

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make(map[int64]struct{})
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := repo.IncrementBy(ctx, "user-1", "clicks", 1, 0, time.Hour)
			if err != nil {
				t.Errorf("IncrementBy returned error: %v", err)
				return
			}
			mu.Lock()
			results[value] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(results) != workers {
		t.Fatalf("expected %d distinct results, got %d", workers, len(results))
	}

	value, err := repo.Get(ctx, "user-1", "clicks")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if value != workers {
		t.Fatalf("expected cached value %d, got %d", workers, value)
	}
}

func TestCounterCacheRepository_SetGetDelete(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewCounterCacheRepository(client, "")

	ctx := context.Background()
	if _, err := repo.Get(ctx, "user-1", "water"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on miss, got %v", err)
	}

	if err := repo.Set(ctx, "user-1", "water", 42, time.Hour); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	value, err := repo.Get(ctx, "user-1", "water")
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %d (err %v)", value, err)
	}

	if err := repo.Delete(ctx, "user-1", "water"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "water"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCounterCacheRepository_KeysAreScopedByOwner(t *testing.T) {
	client, server := newTestRedis(t)
	repo := NewCounterCacheRepository(client, "counter")

	ctx := context.Background()
	if _, err := repo.IncrementBy(ctx, "user-1", "water", 1, 0, time.Hour); err != nil {
		t.Fatalf("IncrementBy returned error: %v", err)
	}
	if _, err := repo.IncrementBy(ctx, "user-2", "water", 3, 0, time.Hour); err != nil {
		t.Fatalf("IncrementBy returned error: %v", err)
	}

	if got, _ := server.Get("counter:user-1:water"); got != "1" {
		t.Fatalf("expected user-1 value 1, got %q", got)
	}
	if got, _ := server.Get("counter:user-2:water"); got != "3" {
		t.Fatalf("expected user-2 value 3, got %q", got)
	}
}
