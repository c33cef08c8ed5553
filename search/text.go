package search

import (
	"slices"
	"strings"
)

// Stop words to filter out when checking for verbatim matches
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true,
}

// tokenizeAndFilter splits text into words, lowercases, trims punctuation, and removes stop words
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:'\"-()[]{}"))
		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllWords reports whether every word exists in document.
// An empty word list never matches.
func containsAllWords(document string, words []string) bool {
	if len(words) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]bool, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = true
	}

	for _, word := range words {
		if !docWordSet[word] {
			return false
		}
	}
	return true
}

// documentText returns the text of a document matched against: the text of
// locale, or of every locale when locale is empty.
func documentText(text map[string]string, locale string) string {
	if locale != "" {
		return text[locale]
	}
	locales := make([]string, 0, len(text))
	for l := range text {
		locales = append(locales, l)
	}
	slices.Sort(locales)

	parts := make([]string, 0, len(locales))
	for _, l := range locales {
		parts = append(parts, text[l])
	}
	return strings.Join(parts, "\n")
}
