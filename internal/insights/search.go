package insights

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

// SearchConfig holds the search engine limits.
type SearchConfig struct {
	MaxSuggestions      int
	MinCorrectionLength int // corrections need a query longer than this
	MaxEditDistance     int
}

// DefaultSearchConfig returns the standard search settings.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		MaxSuggestions:      5,
		MinCorrectionLength: 3,
		MaxEditDistance:     2,
	}
}

// Searcher matches queries against a catalog snapshot.
type Searcher struct {
	cfg         SearchConfig
	vocabulary  []string
	corrections map[string]string
}

// NewSearcher creates a searcher over the given vocabulary and typo tables.
func NewSearcher(cfg SearchConfig, tables SearchTables) *Searcher {
	return &Searcher{
		cfg:         cfg,
		vocabulary:  append([]string(nil), tables.Vocabulary...),
		corrections: tables.normalizedCorrections(),
	}
}

// Search runs a case-insensitive substring match over name, sku and category.
// A blank query matches nothing.
func (s *Searcher) Search(query string, items []domain.Item) domain.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	result := domain.SearchResult{
		Results:     []domain.Item{},
		Suggestions: []string{},
	}
	if q == "" {
		return result
	}

	for _, item := range items {
		haystack := strings.ToLower(item.Name + " " + item.SKU + " " + item.Category)
		if strings.Contains(haystack, q) {
			result.Results = append(result.Results, item)
		}
	}

	result.Suggestions = s.suggest(q)

	if len(result.Results) == 0 && len(q) > s.cfg.MinCorrectionLength {
		result.Correction = s.correct(q, items)
	}

	return result
}

func (s *Searcher) suggest(q string) []string {
	out := make([]string, 0)
	for _, term := range s.vocabulary {
		lower := strings.ToLower(term)
		if lower == q || !strings.Contains(lower, q) {
			continue
		}
		out = append(out, term)
		if s.cfg.MaxSuggestions > 0 && len(out) >= s.cfg.MaxSuggestions {
			break
		}
	}
	return out
}

// correct consults the typo table first and falls back to the closest term
// in the live catalog vocabulary.
func (s *Searcher) correct(q string, items []domain.Item) *string {
	if fix, ok := s.corrections[q]; ok && fix != "" {
		return &fix
	}

	best := ""
	bestDist := s.cfg.MaxEditDistance + 1
	for _, term := range catalogTerms(items) {
		if term == q {
			continue
		}
		dist := levenshtein.ComputeDistance(q, term)
		// terms are sorted, so ties keep the lexicographically smallest
		if dist < bestDist {
			best, bestDist = term, dist
		}
	}

	if best == "" || bestDist > s.cfg.MaxEditDistance {
		return nil
	}
	return &best
}

// catalogTerms returns the sorted set of lowercase words from item names and categories.
func catalogTerms(items []domain.Item) []string {
	seen := make(map[string]struct{})
	for _, item := range items {
		for _, word := range strings.Fields(normalizeText(item.Name + " " + item.Category)) {
			if len(word) > 1 {
				seen[word] = struct{}{}
			}
		}
	}

	terms := make([]string, 0, len(seen))
	for t := range seen {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms
}
