package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(1, 3, time.Hour)
	for i := 0; i < 3; i++ {
		if !l.Allow("alice") {
			t.Fatalf("request %d within burst should pass", i)
		}
	}
	if l.Allow("alice") {
		t.Error("request past burst should be limited")
	}
}

func TestKeysIsolated(t *testing.T) {
	l := New(1, 1, time.Hour)
	if !l.Allow("alice") {
		t.Fatal("alice's first request should pass")
	}
	if l.Allow("alice") {
		t.Error("alice's second request should be limited")
	}
	if !l.Allow("bob") {
		t.Error("bob must not be affected by alice's bucket")
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := New(1000, 1000, time.Hour)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := []string{"a", "b", "c"}[i%3]
			for j := 0; j < 100; j++ {
				l.Allow(key)
			}
		}(i)
	}
	wg.Wait()
	if l.Len() != 3 {
		t.Errorf("tracked keys = %d, want 3", l.Len())
	}
}

func TestPruneDropsIdleKeys(t *testing.T) {
	l := New(1, 1, 10*time.Minute)
	base := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return base }

	l.Allow("stale")

	l.now = func() time.Time { return base.Add(20 * time.Minute) }
	l.Allow("fresh")

	if removed := l.Prune(); removed != 1 {
		t.Errorf("pruned %d keys, want 1", removed)
	}
	if l.Len() != 1 {
		t.Errorf("tracked keys = %d, want 1", l.Len())
	}
}

func TestWaitReturnsOnCancel(t *testing.T) {
	l := New(0.001, 1, time.Minute)
	if !l.Allow("key") {
		t.Fatal("first request should pass")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx, "key"); err == nil {
		t.Error("Wait on drained bucket with cancelled context should fail")
	}
}

func TestWaitPassesWithinBurst(t *testing.T) {
	l := New(1, 2, time.Minute)
	if err := l.Wait(context.Background(), "key"); err != nil {
		t.Fatalf("Wait within burst failed: %v", err)
	}
	if l.Len() != 1 {
		t.Errorf("tracked keys = %d, want 1", l.Len())
	}
}
