package summary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Extractor pulls plain text out of a source document. Rich formats
// (PDF, DOCX) are handled by external implementations; the built-in
// extractor only reads plain text files.
type Extractor interface {
	ExtractText(path string) (string, error)
}

// Detector identifies the language of extracted text. It is an external
// collaborator consumed as a black box.
type Detector interface {
	DetectLanguage(ctx context.Context, text string) (language, code string, err error)
}

// ComputeFunc produces a summary of extracted text in the detected
// language. It stands in for the external summarization collaborator.
type ComputeFunc func(ctx context.Context, text, languageCode string) (string, error)

// PlainTextExtractor reads .txt files directly and reports other
// formats as unsupported rather than failing.
type PlainTextExtractor struct{}

// ExtractText implements Extractor.
func (PlainTextExtractor) ExtractText(path string) (string, error) {
	if !strings.HasSuffix(path, ".txt") {
		return "Unsupported file format.", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), nil
}

// sourceExtensions are the document types eligible as summary sources.
var sourceExtensions = []string{".pdf", ".txt", ".docx"}

// listSources returns the eligible files in a source directory, sorted
// for a stable hash.
func listSources(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		for _, allowed := range sourceExtensions {
			if ext == allowed {
				files = append(files, filepath.Join(dir, e.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
