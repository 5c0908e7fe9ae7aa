package summary

import (
	"context"
	"strings"
)

// HeuristicDetector is the built-in language detector: stopword scoring
// over the languages the interview flow supports. Deployments with a
// real detection service substitute their own Detector.
type HeuristicDetector struct{}

type languageProfile struct {
	name      string
	code      string
	stopwords []string
}

var profiles = []languageProfile{
	{"English", "en", []string{"the", "and", "with", "for", "of", "in", "to", "is", "are", "experience"}},
	{"Portuguese", "pt", []string{"de", "e", "com", "para", "em", "uma", "dos", "das", "não", "experiência"}},
	{"French", "fr", []string{"le", "la", "et", "les", "des", "une", "avec", "pour", "dans", "expérience"}},
	{"Spanish", "es", []string{"el", "la", "y", "los", "las", "una", "con", "para", "en", "experiencia"}},
	{"German", "de", []string{"der", "die", "und", "das", "mit", "für", "ein", "eine", "von", "erfahrung"}},
}

// DetectLanguage implements Detector. Empty or unrecognized text
// defaults to English.
func (HeuristicDetector) DetectLanguage(ctx context.Context, text string) (language, code string, err error) {
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return "English", "en", nil
	}

	counts := make(map[string]int, len(words))
	for _, w := range words {
		counts[strings.Trim(w, ".,;:!?()\"'")]++
	}

	best := profiles[0]
	bestScore := -1
	for _, p := range profiles {
		score := 0
		for _, sw := range p.stopwords {
			score += counts[sw]
		}
		if score > bestScore {
			best = p
			bestScore = score
		}
	}
	return best.name, best.code, nil
}
