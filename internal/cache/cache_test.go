package cache

import (
	"regexp"
	"testing"
	"time"
)

func TestHashInputStableAndWellFormed(t *testing.T) {
	h1 := HashInput("hello world")
	h2 := HashInput("hello world")
	if h1 != h2 {
		t.Fatalf("HashInput not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("HashInput length = %d, want 64", len(h1))
	}
	for _, r := range h1 {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			t.Fatalf("HashInput contains non-lowercase-hex rune %q", r)
		}
	}
	if HashInput("hello world!") == h1 {
		t.Fatal("different inputs hashed to the same digest")
	}
}

func TestPutResultSyncTTLZeroIsImmediatelyExpired(t *testing.T) {
	c := New(WithCleanupInterval(time.Hour))
	defer c.Close()

	c.PutResultSync("h", "detector", "value", 0)
	if _, ok := c.GetResult("h", "detector"); ok {
		t.Error("ttl=0 entry should be immediately expired")
	}
}

func TestPutResultSyncPositiveTTLIsRetrievable(t *testing.T) {
	c := New(WithCleanupInterval(time.Hour))
	defer c.Close()

	c.PutResultSync("h", "detector", "value", time.Minute)
	v, ok := c.GetResult("h", "detector")
	if !ok {
		t.Fatal("expected hit for positive-ttl entry")
	}
	if v.(string) != "value" {
		t.Errorf("GetResult = %v, want %q", v, "value")
	}
}

func TestGetResultNotFound(t *testing.T) {
	c := New()
	defer c.Close()

	if _, ok := c.GetResult("missing", "detector"); ok {
		t.Error("expected miss for never-inserted key")
	}
}

func TestTriggerCleanupRemovesExpired(t *testing.T) {
	c := New(WithCleanupInterval(time.Hour))
	defer c.Close()

	c.PutResult("h1", "d", "v1", time.Nanosecond)
	c.PutResult("h2", "d", "v2", time.Hour)
	time.Sleep(2 * time.Millisecond)

	c.TriggerCleanup()

	stats := c.Stats()
	if stats.ResultCount != 1 {
		t.Errorf("ResultCount after cleanup = %d, want 1", stats.ResultCount)
	}
}

func TestEvictionAtCapacity(t *testing.T) {
	c := New(WithMaxEntries(2), WithCleanupInterval(time.Hour))
	defer c.Close()

	c.PutResult("h1", "d", "v1", time.Minute)
	c.PutResult("h2", "d", "v2", time.Hour)
	c.PutResult("h3", "d", "v3", 2*time.Hour)

	if got := c.Stats().ResultCount; got > 2 {
		t.Errorf("ResultCount = %d, want <= 2 after eviction", got)
	}
	// h1 has the smallest expires_at among the three and should be the
	// one evicted, per spec.md §4.8's permitted "drop smallest expires_at"
	// policy.
	if _, ok := c.GetResult("h1", "d"); ok {
		t.Error("expected h1 (smallest expires_at) to have been evicted")
	}
}

func TestPatternCacheNeverExpires(t *testing.T) {
	c := New()
	defer c.Close()

	re := regexp.MustCompile("abc")
	c.PutPattern("p1", re)

	got, ok := c.GetPattern("p1")
	if !ok || got != re {
		t.Fatal("expected pattern cache hit with the stored regex")
	}
}

func TestClearResultsLeavesPatterns(t *testing.T) {
	c := New()
	defer c.Close()

	c.PutPattern("p1", regexp.MustCompile("abc"))
	c.PutResultSync("h", "d", "v", time.Minute)

	c.ClearResults()

	if _, ok := c.GetResult("h", "d"); ok {
		t.Error("result entry should be gone after ClearResults")
	}
	if _, ok := c.GetPattern("p1"); !ok {
		t.Error("pattern entry should survive ClearResults")
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New()
	defer c.Close()

	c.PutResultSync("h", "d", "v", time.Minute)
	c.GetResult("h", "d")    // hit
	c.GetResult("h2", "d")   // miss

	stats := c.Stats()
	if stats.ResultHits != 1 || stats.ResultMisses != 1 {
		t.Fatalf("hits/misses = %d/%d, want 1/1", stats.ResultHits, stats.ResultMisses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestStatsHitRateZeroWhenNoRequests(t *testing.T) {
	c := New()
	defer c.Close()

	if got := c.Stats().HitRate; got != 0.0 {
		t.Errorf("HitRate with no requests = %v, want 0.0", got)
	}
}
