// Package stringutil provides message text utilities shared by the front ends.
package stringutil

import (
	"strings"
	"unicode/utf8"
)

// SplitMessage cuts text into chunks of at most limit characters (runes).
// A cut prefers the last newline in the second half of the window so
// paragraphs stay whole; the newline itself is dropped.
//
// Example:
//
//	SplitMessage("line one\nline two", 12) // ["line one", "line two"]
//	SplitMessage("abcdefghijk", 5)         // ["abcde", "fghij", "k"]
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(runes[:cut]), "\n"))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// Truncate shortens s to at most limit runes, replacing the tail with an
// ellipsis when it had to cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}
