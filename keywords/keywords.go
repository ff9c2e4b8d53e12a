// Package keywords extracts the most frequent significant words of a text.
package keywords

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// DefaultCount is the number of keywords extracted for page metadata
const DefaultCount = 5

// Extractor returns the top-k frequent alphanumeric tokens of a text after
// case folding and stopword removal
type Extractor struct {
	stopwords map[string]struct{}
}

// New creates an Extractor using the English stopword list
func New() *Extractor {
	return NewWithStopwords(EnglishStopwords)
}

// NewWithStopwords creates an Extractor with a custom stopword list
func NewWithStopwords(stopwords []string) *Extractor {
	set := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		set[w] = struct{}{}
	}
	return &Extractor{stopwords: set}
}

// Extract returns at most k keywords ordered by frequency, ties keeping first
// occurrence order. A Caser is not safe for concurrent use, so one is built per call.
func (e *Extractor) Extract(text string, k int) []string {
	if k <= 0 || text == "" {
		return []string{}
	}

	counts := map[string]int{}
	var order []string
	for _, token := range Tokenize(cases.Fold().String(text)) {
		if _, stop := e.stopwords[token]; stop {
			continue
		}
		if counts[token] == 0 {
			order = append(order, token)
		}
		counts[token]++
	}

	slices.SortStableFunc(order, func(a, b string) int {
		return counts[b] - counts[a]
	})

	if len(order) > k {
		order = order[:k]
	}
	if order == nil {
		return []string{}
	}
	return order
}

// Tokenize splits text into maximal runs of letters, marks and digits
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r)
	})
}
