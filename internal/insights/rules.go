package insights

import (
	"strings"
	"unicode"
)

// Predicate reports whether normalized text satisfies a rule.
type Predicate func(text string) bool

// Rule pairs a predicate with the result returned when it matches.
type Rule[T any] struct {
	ID     string
	Match  Predicate
	Result T
}

// FirstMatch evaluates rules in order and returns the result of the first match.
func FirstMatch[T any](rules []Rule[T], text string) (T, string, bool) {
	normalized := normalizeText(text)
	for _, rule := range rules {
		if rule.Match != nil && rule.Match(normalized) {
			return rule.Result, rule.ID, true
		}
	}

	var zero T
	return zero, "", false
}

// KeywordPredicate matches when every group has at least one keyword present
// in the text. A single group is a plain "any of" rule. Keywords match whole
// words, or their plural with an "s" or "es" suffix; a keyword ending in "*"
// matches any word starting with the stem.
func KeywordPredicate(groups ...[]string) Predicate {
	normalized := make([][]string, 0, len(groups))
	for _, group := range groups {
		needles := make([]string, 0, len(group)*3)
		for _, kw := range group {
			needles = append(needles, keywordNeedles(kw)...)
		}
		if len(needles) > 0 {
			normalized = append(normalized, needles)
		}
	}

	return func(text string) bool {
		if len(normalized) == 0 {
			return false
		}
		for _, group := range normalized {
			if !containsAny(text, group) {
				return false
			}
		}
		return true
	}
}

// keywordNeedles expands a keyword into the padded substrings that may appear
// in normalized text.
func keywordNeedles(kw string) []string {
	kw = strings.TrimSpace(kw)
	stem := strings.HasSuffix(kw, "*")
	kw = strings.TrimSpace(normalizeText(strings.TrimSuffix(kw, "*")))
	if kw == "" {
		return nil
	}
	if stem {
		return []string{" " + kw}
	}
	return []string{" " + kw + " ", " " + kw + "s ", " " + kw + "es "}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// normalizeText lowercases text, collapses punctuation into single spaces and
// pads it with a leading and trailing space so word boundary checks are uniform.
func normalizeText(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(fields) == 0 {
		return " "
	}
	return " " + strings.Join(fields, " ") + " "
}
