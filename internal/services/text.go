package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText prepares utterance text for a speech model: NFC composition
// so accented characters tokenize consistently, and runs of whitespace
// collapsed to a single space.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(norm.NFC.String(text)), " ")
}

// NormalizeTexts normalizes each text and joins them into one utterance.
// Blank entries are skipped.
func NormalizeTexts(texts []string) string {
	parts := make([]string, 0, len(texts))
	for _, text := range texts {
		if normalized := NormalizeText(text); normalized != "" {
			parts = append(parts, normalized)
		}
	}
	return strings.Join(parts, " ")
}
