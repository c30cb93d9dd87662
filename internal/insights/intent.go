package insights

import "github.com/andresuchdata/autopo-insights/internal/domain"

// IntentParser maps a transcript onto a closed command grammar.
type IntentParser struct {
	rules   []Rule[domain.Intent]
	unknown domain.Intent
}

// NewIntentParser creates a parser; unknown is returned when no rule matches.
func NewIntentParser(rules []Rule[domain.Intent], unknown domain.Intent) *IntentParser {
	return &IntentParser{rules: rules, unknown: unknown}
}

// Parse returns the first matching intent, or the unknown intent.
func (p *IntentParser) Parse(transcript string) domain.Intent {
	res, _, ok := FirstMatch(p.rules, transcript)
	if !ok {
		res = p.unknown
	}
	// callers get their own parameter map
	res.Parameters = copyParams(res.Parameters)
	return res
}
