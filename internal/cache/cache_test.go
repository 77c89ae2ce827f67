package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New(50*time.Millisecond, time.Hour)
	defer c.Close()

	if _, ok := c.Get("missing"); ok {
		t.Fatalf("expected miss on empty cache")
	}

	c.Set("k", 42)
	v, ok := c.Get("k")
	if !ok || v.(int) != 42 {
		t.Fatalf("got %v,%v want 42,true", v, ok)
	}

	stats := c.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestExpiry(t *testing.T) {
	c := New(10*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("k", "v")
	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.GetStats().Evictions == 0 {
		t.Fatalf("expected an eviction to be recorded")
	}
}

func TestGetOrSetOnlyLoadsOnMiss(t *testing.T) {
	c := New(time.Hour, time.Hour)
	defer c.Close()

	calls := 0
	load := func() (interface{}, error) {
		calls++
		return "computed", nil
	}

	v, err := c.GetOrSet("k", time.Minute, load)
	if err != nil || v.(string) != "computed" {
		t.Fatalf("got %v,%v", v, err)
	}

	v2, err := c.GetOrSet("k", time.Minute, load)
	if err != nil || v2.(string) != "computed" || calls != 1 {
		t.Fatalf("expected load to run once, ran %d times", calls)
	}
}

func TestGetOrSetPropagatesLoadError(t *testing.T) {
	c := New(time.Hour, time.Hour)
	defer c.Close()

	wantErr := errors.New("backend unavailable")
	_, err := c.GetOrSet("k", time.Minute, func() (interface{}, error) {
		return nil, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v want %v", err, wantErr)
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("failed load must not populate the cache")
	}
}

func TestClearResetsSize(t *testing.T) {
	c := New(time.Hour, time.Hour)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
	c.Clear()
	if c.Size() != 0 {
		t.Fatalf("expected size 0 after Clear, got %d", c.Size())
	}
}

func TestDeleteReportsWhetherKeyExisted(t *testing.T) {
	c := New(time.Hour, time.Hour)
	defer c.Close()

	if c.Delete("missing") {
		t.Fatalf("expected Delete to report false for an absent key")
	}

	c.Set("k", 1)
	if !c.Delete("k") {
		t.Fatalf("expected Delete to report true for a present key")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected key to be gone after Delete")
	}
}

func TestCleanupExpiredReturnsCount(t *testing.T) {
	c := New(10*time.Millisecond, time.Hour)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)
	time.Sleep(25 * time.Millisecond)

	if n := c.CleanupExpired(); n != 2 {
		t.Fatalf("expected 2 expired entries swept, got %d", n)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 entry remaining, got %d", c.Size())
	}
	if n := c.CleanupExpired(); n != 0 {
		t.Fatalf("expected a second sweep to find nothing, got %d", n)
	}
}

func TestHitRate(t *testing.T) {
	c := New(time.Hour, time.Hour)
	defer c.Close()

	if c.HitRate() != 0 {
		t.Fatalf("expected 0 hit rate with no lookups")
	}

	c.Set("k", 1)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	if got := c.HitRate(); got < 0.65 || got > 0.67 {
		t.Fatalf("expected hit rate ~0.667, got %f", got)
	}
}
