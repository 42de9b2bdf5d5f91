package generate

import (
	"strings"
	"unicode"
)

// allowedPunct lists the non-alphanumeric characters a raw variation may contain.
const allowedPunct = " .!?,:-"

// sentenceEnds are the characters that terminate a sentence.
const sentenceEnds = ".!?"

// Clean reduces a raw model continuation to its first complete sentence.
// It rejects strings with characters outside letters, digits and allowedPunct,
// and strings without a word ending in a sentence terminator. Only periods
// are stripped from the terminal word; '!' and '?' stay attached.
func Clean(raw string) (string, bool) {
	for _, r := range raw {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			continue
		}
		if !strings.ContainsRune(allowedPunct, r) {
			return "", false
		}
	}

	words := strings.Fields(raw)
	for i, word := range words {
		if !endsSentence(word) {
			continue
		}
		out := make([]string, 0, i+1)
		out = append(out, words[:i]...)
		out = append(out, strings.ReplaceAll(word, ".", ""))
		return strings.Join(out, " "), true
	}
	return "", false
}

// endsSentence reports whether the word's last character is a sentence terminator.
func endsSentence(word string) bool {
	return strings.LastIndexAny(word, sentenceEnds) == len(word)-1
}
