package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Normalize reduces a transcribed question to a canonical form:
// lowercase, punctuation stripped, whitespace collapsed. Two questions
// that differ only in casing, punctuation or spacing normalize
// identically. No stemming or synonym folding is applied, so
// semantically distinct questions never collide.
func Normalize(question string) string {
	var b strings.Builder
	b.Grow(len(question))

	lastSpace := true
	for _, r := range strings.ToLower(question) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		default:
			// Punctuation and symbols are dropped entirely.
		}
	}

	return strings.TrimRight(b.String(), " ")
}

// Key derives the cache key for a question from its normalized form.
func Key(question string) string {
	sum := sha256.Sum256([]byte(Normalize(question)))
	return hex.EncodeToString(sum[:16])
}
