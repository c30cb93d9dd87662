package insights

import "github.com/andresuchdata/autopo-insights/internal/domain"

// Categorizer infers a category from free text with a priority-ordered rule list.
type Categorizer struct {
	rules    []Rule[domain.CategorySuggestion]
	fallback domain.CategorySuggestion
}

// NewCategorizer creates a categorizer. The first matching rule wins.
func NewCategorizer(rules []Rule[domain.CategorySuggestion], fallback domain.CategorySuggestion) *Categorizer {
	return &Categorizer{rules: rules, fallback: fallback}
}

// Classify evaluates the rules against name and description together.
func (c *Categorizer) Classify(name, description string) domain.CategorySuggestion {
	if res, _, ok := FirstMatch(c.rules, name+" "+description); ok {
		res.Tags = append([]string(nil), res.Tags...)
		return res
	}

	res := c.fallback
	res.Tags = append([]string(nil), c.fallback.Tags...)
	return res
}
