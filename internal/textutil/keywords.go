// Package textutil provides lightweight text heuristics used across the
// pipeline: keyword extraction, keyword-overlap similarity, and text
// cleanup. None of it is linguistics — just frequency counting and set
// arithmetic that holds up well enough for short academic abstracts.
package textutil

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxKeywords bounds ExtractKeywords when the caller passes 0.
const DefaultMaxKeywords = 10

var (
	wordPattern       = regexp.MustCompile(`\b[a-zA-Z]{3,}\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	disallowedPattern = regexp.MustCompile(`[^\w\s.,!?;:()-]`)
)

// stopWords are dropped during keyword extraction.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the and or but in on at to for of with
		by from up about into through during before
		after above below between among this that these
		those i you he she it we they is are
		was were be been being have has had do
		does did will would could should may might
		must can shall a an some any all both
		each every few many much more most other
		another such no not only own same so than
		too very just now here there when where why
		how what which who whom whose if then else
		because as until while whereas although though
		unless since once twice always never sometimes
		often usually rarely seldom hardly barely scarcely`) {
		stopWords[w] = struct{}{}
	}
}

// ExtractKeywords returns up to maxKeywords keywords from text, ranked by
// frequency. Words shorter than four characters and stop words are dropped.
// Ties break by first occurrence in the text, so results are deterministic.
func ExtractKeywords(text string, maxKeywords int) []string {
	if text == "" {
		return nil
	}
	if maxKeywords <= 0 {
		maxKeywords = DefaultMaxKeywords
	}

	words := wordPattern.FindAllString(strings.ToLower(text), -1)

	freq := make(map[string]int)
	firstSeen := make(map[string]int)
	for i, word := range words {
		if _, stop := stopWords[word]; stop || len(word) <= 3 {
			continue
		}
		if _, seen := freq[word]; !seen {
			firstSeen[word] = i
		}
		freq[word]++
	}

	ranked := make([]string, 0, len(freq))
	for word := range freq {
		ranked = append(ranked, word)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if freq[ranked[i]] != freq[ranked[j]] {
			return freq[ranked[i]] > freq[ranked[j]]
		}
		return firstSeen[ranked[i]] < firstSeen[ranked[j]]
	})

	if len(ranked) > maxKeywords {
		ranked = ranked[:maxKeywords]
	}
	return ranked
}

// SimilarityScore computes the Jaccard similarity of the keyword sets of two
// texts, in [0, 1]. Either text being empty, or yielding no keywords, scores
// 0.0.
func SimilarityScore(text1, text2 string) float64 {
	if text1 == "" || text2 == "" {
		return 0.0
	}

	set1 := keywordSet(text1)
	set2 := keywordSet(text2)
	if len(set1) == 0 || len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for word := range set1 {
		if _, ok := set2[word]; ok {
			intersection++
		}
	}
	union := len(set1) + len(set2) - intersection

	return float64(intersection) / float64(union)
}

func keywordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range ExtractKeywords(text, DefaultMaxKeywords) {
		set[word] = struct{}{}
	}
	return set
}

// Truncate shortens text to at most maxChars characters, cutting on a
// rune boundary so multibyte text never ends mid-sequence.
func Truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// CleanText collapses whitespace runs, strips characters outside word
// characters and basic punctuation, and trims the result.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = disallowedPattern.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
