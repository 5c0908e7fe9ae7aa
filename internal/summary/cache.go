package summary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"interview-copilot/internal/logging"
)

// Result is one derived summary artifact.
type Result struct {
	Summary      string
	Language     string
	LanguageCode string
	ComputedAt   time.Time
}

type entry struct {
	sourceHash string
	result     Result
}

// Cache holds long-lived derived summaries (resume, job description)
// keyed by source directory. An entry is valid only while the source
// files and the detected language are unchanged; a coarse TTL bounds
// staleness from collaborators that rewrite files without a visible
// mtime change. The TTL is secondary to the hash check, never a
// substitute for it.
type Cache struct {
	extractor Extractor
	detector  Detector
	ttl       time.Duration

	mu      sync.Mutex
	entries map[string]entry
}

// NewCache creates a summary cache with the given collaborators.
func NewCache(extractor Extractor, detector Detector, ttl time.Duration) *Cache {
	return &Cache{
		extractor: extractor,
		detector:  detector,
		ttl:       ttl,
		entries:   make(map[string]entry),
	}
}

// GetOrCompute returns the cached summary for sourceDir, recomputing it
// via compute when the source hash changed, the TTL expired, or nothing
// is cached. A missing or empty source directory yields a descriptive
// placeholder rather than an error so the orchestrator can proceed with
// empty context.
func (c *Cache) GetOrCompute(ctx context.Context, sourceDir string, compute ComputeFunc) (Result, error) {
	files, err := listSources(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(sourceDir, 0755); mkErr == nil {
				return placeholder("Source directory created. Please add a document."), nil
			}
		}
		return placeholder("Source directory is not readable."), nil
	}
	if len(files) == 0 {
		return placeholder("No document found in the source directory."), nil
	}

	// The first eligible document is the source, as in single-user mode
	// there is one resume and one job description.
	text, err := c.extractor.ExtractText(files[0])
	if err != nil {
		return placeholder(fmt.Sprintf("Error extracting text: %v", err)), nil
	}

	language, code, err := c.detector.DetectLanguage(ctx, text)
	if err != nil {
		return Result{}, fmt.Errorf("language detection failed: %w", err)
	}

	hash, err := sourceHash(files, code)
	if err != nil {
		return Result{}, err
	}

	c.mu.Lock()
	cached, ok := c.entries[sourceDir]
	c.mu.Unlock()

	if ok && cached.sourceHash == hash && !c.expired(cached.result.ComputedAt) {
		return cached.result, nil
	}

	summaryText, err := compute(ctx, text, code)
	if err != nil {
		return Result{}, fmt.Errorf("summary generation failed: %w", err)
	}

	result := Result{
		Summary:      summaryText,
		Language:     language,
		LanguageCode: code,
		ComputedAt:   time.Now(),
	}

	c.mu.Lock()
	c.entries[sourceDir] = entry{sourceHash: hash, result: result}
	c.mu.Unlock()

	logging.Debugf("summary recomputed for %s (hash %s)", sourceDir, hash[:8])
	return result, nil
}

// Invalidate drops the cached entry for a source directory.
func (c *Cache) Invalidate(sourceDir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, sourceDir)
}

func (c *Cache) expired(computedAt time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return time.Since(computedAt) > c.ttl
}

// sourceHash covers every contributing file's identity and modification
// time plus the detected language code, so both a file change and a
// language change invalidate the entry.
func sourceHash(files []string, languageCode string) (string, error) {
	h := sha256.New()
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			return "", fmt.Errorf("failed to stat source file: %w", err)
		}
		fmt.Fprintf(h, "%s|%d\n", f, info.ModTime().UnixNano())
	}
	fmt.Fprintf(h, "lang:%s\n", languageCode)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func placeholder(msg string) Result {
	return Result{
		Summary:    msg,
		ComputedAt: time.Now(),
	}
}
