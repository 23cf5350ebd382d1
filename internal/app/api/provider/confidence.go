package provider

import (
	"strings"
	"unicode/utf8"
)

// EstimateConfidence derives a confidence from transcript length for backends
// that report none. Empty text yields nil so the classifier sees "unknown".
func EstimateConfidence(text string) *float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return nil
	case n > 50:
		return Float64(0.95)
	case n > 20:
		return Float64(0.90)
	case n > 5:
		return Float64(0.85)
	default:
		return Float64(0.75)
	}
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
