package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"interview-copilot/internal/logging"
)

// SeedEntry is one question/answer pair in the FAQ seed file.
type SeedEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// SeedFile is the on-disk FAQ seed format.
type SeedFile struct {
	FAQs []SeedEntry `json:"faqs"`
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalEntries      int    `json:"total_entries"`
	TotalHits         int    `json:"total_hits"`
	MostAskedQuestion string `json:"most_asked_question,omitempty"`
	MostAskedHits     int    `json:"most_asked_hits,omitempty"`
}

// AnswerCache is the process-wide question/answer cache shared by every
// room. Questions are normalized to keys before any store access, so
// paraphrased-but-identical transcriptions hit the same entry.
type AnswerCache struct {
	store Store

	mu     sync.Mutex
	loaded bool
}

// NewAnswerCache creates an answer cache over the given store.
func NewAnswerCache(store Store) *AnswerCache {
	return &AnswerCache{store: store}
}

// Lookup returns the cached entry for a question if one exists,
// incrementing its hit count.
func (c *AnswerCache) Lookup(ctx context.Context, question string) (*Entry, bool, error) {
	return c.store.Lookup(ctx, Key(question))
}

// Store inserts an answer for a question. An existing entry for the
// same key is overwritten; cached answers are otherwise immutable.
func (c *AnswerCache) Store(ctx context.Context, question, answer string) error {
	entry := Entry{
		OriginalQuestion: question,
		Answer:           answer,
		CreatedAt:        time.Now(),
	}
	return c.store.Put(ctx, Key(question), entry)
}

// BulkLoad inserts a batch of seed entries, skipping any with a missing
// question or answer, and returns the count loaded.
func (c *AnswerCache) BulkLoad(ctx context.Context, entries []SeedEntry) (int, error) {
	loaded := 0
	for _, e := range entries {
		if e.Question == "" || e.Answer == "" {
			logging.Warnf("skipping FAQ entry with missing question or answer")
			continue
		}
		if err := c.Store(ctx, e.Question, e.Answer); err != nil {
			return loaded, fmt.Errorf("failed to load FAQ entry: %w", err)
		}
		loaded++
	}
	return loaded, nil
}

// LoadSeedFile seeds the cache from a JSON file once per process. The
// loaded latch only transitions once; later calls are no-ops until
// ResetLatch. A missing or malformed file is logged and treated as zero
// entries, never fatal.
func (c *AnswerCache) LoadSeedFile(ctx context.Context, path string) (int, error) {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return 0, nil
	}
	c.loaded = true
	c.mu.Unlock()

	entries, err := ReadSeedFile(path)
	if err != nil {
		logging.Warnf("FAQ seed not loaded: %v", err)
		return 0, nil
	}

	n, err := c.BulkLoad(ctx, entries)
	if err != nil {
		return n, err
	}
	logging.Infof("loaded %d FAQ entries from %s", n, path)
	return n, nil
}

// ResetLatch re-arms the seed latch so an administrative reload can run
// LoadSeedFile again.
func (c *AnswerCache) ResetLatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
}

// Reload clears the cache and bulk-loads the given entries, returning
// the old and new entry counts.
func (c *AnswerCache) Reload(ctx context.Context, entries []SeedEntry) (old, loaded int, err error) {
	old, err = c.store.Clear(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	loaded, err = c.BulkLoad(ctx, entries)
	return old, loaded, err
}

// Clear empties the cache and returns the prior size.
func (c *AnswerCache) Clear(ctx context.Context) (int, error) {
	return c.store.Clear(ctx)
}

// Len returns the number of cached entries.
func (c *AnswerCache) Len(ctx context.Context) (int, error) {
	return c.store.Len(ctx)
}

// Stats reports totals and the most-asked question. ok is false when
// the cache is empty.
func (c *AnswerCache) Stats(ctx context.Context) (Stats, bool, error) {
	entries, err := c.store.Entries(ctx)
	if err != nil {
		return Stats{}, false, err
	}
	if len(entries) == 0 {
		return Stats{}, false, nil
	}

	stats := Stats{TotalEntries: len(entries)}
	for _, e := range entries {
		stats.TotalHits += e.HitCount
		if stats.MostAskedQuestion == "" || e.HitCount > stats.MostAskedHits {
			stats.MostAskedHits = e.HitCount
			stats.MostAskedQuestion = e.OriginalQuestion
		}
	}
	return stats, true, nil
}

// ReadSeedFile parses a FAQ seed file and validates its shape.
func ReadSeedFile(path string) ([]SeedEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses FAQ seed JSON. Entries missing either field survive
// parsing and are skipped at load time.
func ParseSeed(data []byte) ([]SeedEntry, error) {
	var file SeedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if file.FAQs == nil {
		return nil, fmt.Errorf("seed file missing faqs field")
	}
	return file.FAQs, nil
}
