package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestCache(t *testing.T) *AnswerCache {
	t.Helper()
	store, err := NewStore(StoreTypeMemory)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewAnswerCache(store)
}

func TestCacheAside(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, ok, _ := c.Lookup(ctx, "What is ETL?"); ok {
		t.Fatal("lookup on empty cache should miss")
	}

	if err := c.Store(ctx, "What is ETL?", "ETL moves data."); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entry, ok, err := c.Lookup(ctx, "what is etl")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !ok {
		t.Fatal("normalized variant should hit")
	}
	if entry.Answer != "ETL moves data." {
		t.Errorf("answer = %q, want %q", entry.Answer, "ETL moves data.")
	}
	if entry.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", entry.HitCount)
	}
}

func TestLookupHitCount(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "q", "a")
	for i := 1; i <= 5; i++ {
		entry, ok, _ := c.Lookup(ctx, "q")
		if !ok {
			t.Fatalf("lookup %d missed", i)
		}
		if entry.HitCount != i {
			t.Errorf("hit count after %d lookups = %d, want %d", i, entry.HitCount, i)
		}
	}
}

func TestStoreIsUpsert(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "q", "first")
	if err := c.Store(ctx, "q", "second"); err != nil {
		t.Fatalf("overwrite should not error, got %v", err)
	}

	entry, _, _ := c.Lookup(ctx, "q")
	if entry.Answer != "second" {
		t.Errorf("answer = %q, want %q", entry.Answer, "second")
	}
}

func TestBulkLoadSkipsIncomplete(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	n, err := c.BulkLoad(ctx, []SeedEntry{
		{Question: "q1", Answer: "a1"},
		{Question: "", Answer: "a2"},
		{Question: "q3", Answer: ""},
		{Question: "q4", Answer: "a4"},
	})
	if err != nil {
		t.Fatalf("BulkLoad() error = %v", err)
	}
	if n != 2 {
		t.Errorf("loaded = %d, want 2", n)
	}
}

func TestLoadSeedFileLatch(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "faq.json")
	seed := `{"faqs":[{"question":"What is ETL?","answer":"ETL moves data."}]}`
	if err := os.WriteFile(path, []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := c.LoadSeedFile(ctx, path)
	if err != nil {
		t.Fatalf("LoadSeedFile() error = %v", err)
	}
	if n != 1 {
		t.Errorf("first load = %d, want 1", n)
	}

	// Latched: a second call is a no-op.
	n, _ = c.LoadSeedFile(ctx, path)
	if n != 0 {
		t.Errorf("latched load = %d, want 0", n)
	}

	c.ResetLatch()
	n, _ = c.LoadSeedFile(ctx, path)
	if n != 1 {
		t.Errorf("load after reset = %d, want 1", n)
	}
}

func TestLoadSeedFileMissingNotFatal(t *testing.T) {
	c := newTestCache(t)

	n, err := c.LoadSeedFile(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing seed file should not be fatal, got %v", err)
	}
	if n != 0 {
		t.Errorf("loaded = %d, want 0", n)
	}
}

func TestParseSeedMalformed(t *testing.T) {
	if _, err := ParseSeed([]byte("not json")); err == nil {
		t.Error("malformed JSON should error")
	}
	if _, err := ParseSeed([]byte(`{"other":[]}`)); err == nil {
		t.Error("missing faqs field should error")
	}
}

func TestClearReturnsPriorSize(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "q1", "a1")
	c.Store(ctx, "q2", "a2")

	if n, _ := c.Len(ctx); n != 2 {
		t.Errorf("len before clear = %d, want 2", n)
	}

	n, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 2 {
		t.Errorf("cleared = %d, want 2", n)
	}
	if _, ok, _ := c.Lookup(ctx, "q1"); ok {
		t.Error("cache should be empty after clear")
	}
	if n, _ := c.Len(ctx); n != 0 {
		t.Errorf("len after clear = %d, want 0", n)
	}
}

func TestReloadReturnsCounts(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	c.Store(ctx, "old", "answer")
	old, loaded, err := c.Reload(ctx, []SeedEntry{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	})
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if old != 1 || loaded != 2 {
		t.Errorf("Reload() = (%d, %d), want (1, 2)", old, loaded)
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, ok, _ := c.Stats(ctx); ok {
		t.Error("empty cache should report no stats")
	}

	c.Store(ctx, "rare question", "a")
	c.Store(ctx, "popular question", "b")
	c.Lookup(ctx, "popular question")
	c.Lookup(ctx, "popular question")
	c.Lookup(ctx, "rare question")

	stats, ok, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if !ok {
		t.Fatal("stats should be available")
	}
	if stats.TotalEntries != 2 {
		t.Errorf("total entries = %d, want 2", stats.TotalEntries)
	}
	if stats.TotalHits != 3 {
		t.Errorf("total hits = %d, want 3", stats.TotalHits)
	}
	if stats.MostAskedQuestion != "popular question" {
		t.Errorf("most asked = %q, want %q", stats.MostAskedQuestion, "popular question")
	}
	if stats.MostAskedHits != 2 {
		t.Errorf("most asked hits = %d, want 2", stats.MostAskedHits)
	}
}

func TestConcurrentLookups(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	c.Store(ctx, "q", "a")

	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				c.Lookup(ctx, "q")
			}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	entry, _, _ := c.Lookup(ctx, "q")
	if entry.HitCount != 1001 {
		t.Errorf("hit count = %d, want 1001", entry.HitCount)
	}
}
