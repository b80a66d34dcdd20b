package trend

import (
	"regexp"
	"strings"
)

// Narrative vocabulary, English and Indonesian. Keywords match at the start of a word, so
// "decline" also matches "declined" but "rise" does not match "enterprise".
var (
	growthWords = []string{
		"naik", "meningkat", "peningkatan", "kenaikan", "pertumbuhan", "tumbuh", "bertumbuh", "melonjak",
		"growth", "grew", "grow", "increase", "rising", "rise", "rose", "higher", "gain", "surge", "climb",
	}
	declineWords = []string{
		"turun", "menurun", "penurunan", "merosot", "anjlok", "berkurang", "melemah",
		"decline", "declining", "decrease", "drop", "fell", "fall", "lower", "shrink", "shrank", "slump",
	}
	stableWords = []string{
		"stabil", "stagnan", "datar", "konsisten",
		"stable", "steady", "flat", "unchanged", "consistent",
	}
)

// ExpectedKeywords is the vocabulary a narrative about a series moving in d should use
func ExpectedKeywords(d Direction) []string {
	switch d {
	case DirectionUp:
		return growthWords
	case DirectionDown:
		return declineWords
	case DirectionFlat:
		return stableWords
	default:
		return nil
	}
}

// ForbiddenKeywords is the opposite-direction vocabulary. Flat and volatile forbid nothing.
func ForbiddenKeywords(d Direction) []string {
	switch d {
	case DirectionUp:
		return declineWords
	case DirectionDown:
		return growthWords
	default:
		return nil
	}
}

var keywordPatterns = map[string]*regexp.Regexp{}

func init() {
	for _, group := range [][]string{growthWords, declineWords, stableWords} {
		for _, kw := range group {
			keywordPatterns[kw] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw))
		}
	}
}

// FindKeywords returns the keywords from candidates present in text, in candidate order
func FindKeywords(text string, candidates []string) []string {
	var found []string
	for _, kw := range candidates {
		re, ok := keywordPatterns[kw]
		if !ok {
			re = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw))
		}
		if re.MatchString(text) {
			found = append(found, kw)
		}
	}
	return found
}

// ContainsAny reports whether text contains any candidate keyword
func ContainsAny(text string, candidates []string) bool {
	return len(FindKeywords(strings.TrimSpace(text), candidates)) > 0
}
