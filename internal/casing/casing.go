// Package casing converts schema identifiers between naming conventions.
//
// Words are split at lower-to-upper transitions and before the last capital
// of an acronym run ("XMLHttp" is "XML Http"); anything that is not a letter
// or digit separates words. Digits stay attached to the word they follow, so
// "documentBase64" is "document_base64" in snake case.
package casing

import (
	"regexp"
	"strings"
)

var (
	lowerUpper = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymEnd = regexp.MustCompile(`([A-Z])([A-Z][a-z])`)
	separators = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// Words splits s into its component words, preserving letter case.
func Words(s string) []string {
	s = lowerUpper.ReplaceAllString(s, "$1 $2")
	s = acronymEnd.ReplaceAllString(s, "$1 $2")
	s = separators.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// Snake returns s as lower_snake_case.
func Snake(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// Pascal returns s as PascalCase. Each word is capitalized and the rest of it
// lowered; a word after the first that starts with a digit gets a leading
// underscore so it stays readable.
func Pascal(s string) string {
	var b strings.Builder
	for i, w := range Words(s) {
		b.WriteString(pascalWord(w, i))
	}
	return b.String()
}

// Camel returns s as camelCase.
func Camel(s string) string {
	var b strings.Builder
	for i, w := range Words(s) {
		if i == 0 {
			b.WriteString(strings.ToLower(w))
			continue
		}
		b.WriteString(pascalWord(w, i))
	}
	return b.String()
}

// Spaced returns s as lower case words separated by spaces, the form used
// for block names in user-facing messages.
func Spaced(s string) string {
	return strings.ReplaceAll(Snake(s), "_", " ")
}

func pascalWord(w string, index int) string {
	first, rest := w[:1], strings.ToLower(w[1:])
	if index > 0 && first[0] >= '0' && first[0] <= '9' {
		return "_" + first + rest
	}
	return strings.ToUpper(first) + rest
}
