// Package extract turns free-form syllabus prose into a topic list. Binary
// formats (PDF, DOCX, images) are a collaborator's concern; this package only
// ever sees plain text.
package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxTopics caps the number of topics returned from one extraction.
const maxTopics = 20

// Topics parses free-form syllabus text into an ordered topic list.
// A line qualifies when it is at least 10 characters long, begins with an
// uppercase letter, and still has at least two tokens after punctuation is
// stripped. Duplicates keep their first occurrence. Unusable input yields an
// empty list, never an error.
func Topics(text string) []string {
	var topics []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < 10 {
			continue
		}
		first, _ := utf8.DecodeRuneInString(line)
		if !unicode.IsUpper(first) {
			continue
		}

		cleaned := stripPunct(line)
		if len(strings.Fields(cleaned)) < 2 {
			continue
		}

		key := strings.ToLower(cleaned)
		if seen[key] {
			continue
		}
		seen[key] = true

		topics = append(topics, cleaned)
		if len(topics) == maxTopics {
			break
		}
	}
	return topics
}

// stripPunct removes punctuation and symbols, collapsing the remaining
// whitespace.
func stripPunct(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
