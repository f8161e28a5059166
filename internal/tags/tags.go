// Package tags derives a short keyword list from recognized text.
//
// The heuristic is intentionally approximate: entity names first, then
// cleaned noun phrases, then the most frequent content words.
package tags

import (
	"regexp"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/JaimeStill/smart-ocr/internal/extract"
)

const (
	// DefaultTopK is the number of frequent tokens considered.
	DefaultTopK = 15

	// MaxTags caps the combined result.
	MaxTags = 50
)

var (
	tokenPattern    = regexp.MustCompile(`[A-Za-z0-9-]{3,}`)
	chunkDisallowed = regexp.MustCompile(`[^A-Za-z0-9\- ]`)
)

var stopWords = lo.SliceToMap(strings.Fields(
	"a an and are as at be but by for if in into is it no not of on or such "+
		"that the their then there these they this to was were will with you your from",
), func(w string) (string, struct{}) {
	return w, struct{}{}
})

// IsStopWord reports whether the lower-case form of w is a stop-word.
func IsStopWord(w string) bool {
	_, ok := stopWords[strings.ToLower(w)]
	return ok
}

// Extract returns tags using DefaultTopK.
func Extract(text string, entities []extract.Entity, chunks []string) []string {
	return ExtractK(text, entities, chunks, DefaultTopK)
}

// ExtractK returns up to MaxTags tags: entity surfaces, then noun chunks,
// then the k most frequent tokens. Duplicates are removed by exact match,
// keeping the first occurrence.
func ExtractK(text string, entities []extract.Entity, chunks []string, k int) []string {
	candidates := make([]string, 0, len(entities)+len(chunks)+k)
	candidates = append(candidates, entityTags(entities)...)
	candidates = append(candidates, chunkTags(chunks)...)
	candidates = append(candidates, topTokens(text, k)...)

	tags := lo.Uniq(candidates)
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

func entityTags(entities []extract.Entity) []string {
	return lo.FilterMap(entities, func(e extract.Entity, _ int) (string, bool) {
		s := strings.TrimSpace(e.Text)
		return s, s != ""
	})
}

func chunkTags(chunks []string) []string {
	return lo.FilterMap(chunks, func(c string, _ int) (string, bool) {
		s := strings.TrimSpace(chunkDisallowed.ReplaceAllString(c, ""))
		return s, len(s) > 2 && !IsStopWord(s)
	})
}

// topTokens ranks lower-cased tokens by descending frequency, breaking ties
// by first occurrence.
func topTokens(text string, k int) []string {
	if k <= 0 {
		return nil
	}

	tokens := lo.Reject(
		lo.Map(tokenPattern.FindAllString(text, -1), func(t string, _ int) string {
			return strings.ToLower(t)
		}),
		func(t string, _ int) bool { return IsStopWord(t) },
	)

	counts := lo.CountValues(tokens)
	ranked := lo.Uniq(tokens)

	// Uniq keeps first-occurrence order, which the stable sort preserves
	// among equal counts.
	slices.SortStableFunc(ranked, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
