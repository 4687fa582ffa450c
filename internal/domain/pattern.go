package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// apostropheRe matches quote marks that join word parts: "Fay's" -> "fays".
	apostropheRe = regexp.MustCompile("['‘’`]")

	// separatorRe matches runs of anything that is not a letter or digit:
	// spaces, slashes, hyphens, brackets, commas and double quotes.
	separatorRe = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// NameWords cleans an event name into the lowercase words used for matching,
// with each word passed through the typo table. Duplicates are dropped and
// order is kept.
func NameWords(name string, overrides *Overrides) []string {
	cleaned := strings.ToLower(name)
	cleaned = apostropheRe.ReplaceAllString(cleaned, "")
	cleaned = separatorRe.ReplaceAllString(cleaned, " ")

	seen := make(map[string]struct{})
	words := make([]string, 0, 4)
	for _, w := range strings.Fields(cleaned) {
		w = strings.TrimSpace(overrides.correct(w))
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// CompileWords builds the case-insensitive, word-bounded alternation
// `\b(w1|w2|...)\b`. It returns nil for an empty word list.
func CompileWords(words []string) (*regexp.Regexp, error) {
	if len(words) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	re, err := regexp.Compile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`)
	if err != nil {
		return nil, fmt.Errorf("compile name pattern: %w", err)
	}
	return re, nil
}
