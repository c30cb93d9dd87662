package insights

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

// RulePack is the injected lookup configuration for the keyword classifiers
// and the search engine.
type RulePack struct {
	Categories      []CategoryRuleSpec        `yaml:"categories"`
	DefaultCategory domain.CategorySuggestion `yaml:"default_category"`
	Intents         []IntentRuleSpec          `yaml:"intents"`
	UnknownIntent   domain.Intent             `yaml:"unknown_intent"`
	Search          SearchTables              `yaml:"search"`
}

// CategoryRuleSpec is a single categorizer rule: any keyword selects the
// category. Keywords match whole words (plurals included); "stem*" matches
// any word starting with stem.
type CategoryRuleSpec struct {
	ID         string   `yaml:"id"`
	Keywords   []string `yaml:"keywords"`
	Category   string   `yaml:"category"`
	Confidence float64  `yaml:"confidence"`
	Tags       []string `yaml:"tags"`
}

// IntentRuleSpec is a single intent rule; every keyword group must match.
// Keywords follow the CategoryRuleSpec matching rules.
type IntentRuleSpec struct {
	ID         string            `yaml:"id"`
	Keywords   [][]string        `yaml:"keywords"`
	Intent     string            `yaml:"intent"`
	Action     string            `yaml:"action"`
	Parameters map[string]string `yaml:"parameters"`
	Confidence float64           `yaml:"confidence"`
}

// SearchTables holds the suggestion vocabulary and the typo table.
type SearchTables struct {
	Vocabulary  []string          `yaml:"vocabulary"`
	Corrections map[string]string `yaml:"corrections"`
}

// DefaultRulePack returns a fresh copy of the built-in tables.
func DefaultRulePack() RulePack {
	return RulePack{
		Categories: []CategoryRuleSpec{
			{
				ID: "electronics",
				Keywords: []string{
					"laptop", "computer", "desktop", "pc", "phone", "iphone", "smartphone", "telephone", "tablet", "ipad",
					"monitor", "keyboard", "mouse", "mice", "headphone", "headset", "earbud", "speaker", "charger", "cable",
					"usb", "hdmi", "router", "camera", "electronic*",
				},
				Category:   "Electronics",
				Confidence: 0.95,
				Tags:       []string{"technology", "electronics"},
			},
			{
				ID:         "office_supplies",
				Keywords:   []string{"paper", "pen", "pencil", "stapler", "notebook", "folder", "marker", "envelope"},
				Category:   "Office Supplies",
				Confidence: 0.9,
				Tags:       []string{"office", "stationery"},
			},
			{
				ID:         "furniture",
				Keywords:   []string{"chair", "desk", "table", "cabinet", "shelf", "sofa", "drawer"},
				Category:   "Furniture",
				Confidence: 0.88,
				Tags:       []string{"furniture", "workspace"},
			},
			{
				ID:         "food_beverage",
				Keywords:   []string{"coffee", "tea", "snack", "water", "juice", "milk", "sugar"},
				Category:   "Food & Beverage",
				Confidence: 0.85,
				Tags:       []string{"consumable", "pantry"},
			},
			{
				ID:         "cleaning",
				Keywords:   []string{"soap", "detergent", "cleaner", "sanitizer", "mop", "tissue"},
				Category:   "Cleaning",
				Confidence: 0.85,
				Tags:       []string{"cleaning", "facilities"},
			},
		},
		DefaultCategory: domain.CategorySuggestion{
			Category:   "General",
			Confidence: 0.5,
			Tags:       []string{"general"},
		},
		Intents: []IntentRuleSpec{
			{
				ID:         "create_item",
				Keywords:   [][]string{{"create", "add", "new", "register"}, {"item", "product"}},
				Intent:     "create_item",
				Action:     "open_form",
				Parameters: map[string]string{"form": "item"},
				Confidence: 0.85,
			},
			{
				ID:         "view_alerts",
				Keywords:   [][]string{{"alert", "warning", "notif*"}},
				Intent:     "view_alerts",
				Action:     "navigate",
				Parameters: map[string]string{"page": "/alerts"},
				Confidence: 0.88,
			},
			{
				ID:         "view_inventory",
				Keywords:   [][]string{{"show", "view", "open", "display", "list", "check", "go to"}, {"inventory", "stock", "items", "products"}},
				Intent:     "view_inventory",
				Action:     "navigate",
				Parameters: map[string]string{"page": "/inventory"},
				Confidence: 0.9,
			},
		},
		UnknownIntent: domain.Intent{
			Name:       "unknown",
			Action:     "none",
			Confidence: 0.3,
		},
		Search: SearchTables{
			Vocabulary: []string{
				"laptop", "laptop stand", "wireless mouse", "mechanical keyboard", "monitor",
				"office chair", "standing desk", "desk lamp", "printer paper", "notebook", "stapler",
			},
			Corrections: map[string]string{
				"labtop":   "laptop",
				"lapotp":   "laptop",
				"moniter":  "monitor",
				"keybord":  "keyboard",
				"chiar":    "chair",
				"mosue":    "mouse",
				"pritner":  "printer",
				"notebok":  "notebook",
				"staplr":   "stapler",
				"headphne": "headphone",
			},
		},
	}
}

// LoadRulePack reads a YAML rule pack. An empty path or a missing file yields
// the defaults; sections absent from the file keep their default tables.
func LoadRulePack(path string) (RulePack, error) {
	pack := DefaultRulePack()
	if path == "" {
		return pack, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pack, nil
		}
		return RulePack{}, fmt.Errorf("read rule pack: %w", err)
	}

	var file RulePack
	if err := yaml.Unmarshal(data, &file); err != nil {
		return RulePack{}, fmt.Errorf("decode rule pack %s: %w", path, err)
	}

	if len(file.Categories) > 0 {
		pack.Categories = file.Categories
	}
	if file.DefaultCategory.Category != "" {
		pack.DefaultCategory = file.DefaultCategory
	}
	if len(file.Intents) > 0 {
		pack.Intents = file.Intents
	}
	if file.UnknownIntent.Name != "" {
		pack.UnknownIntent = file.UnknownIntent
	}
	if len(file.Search.Vocabulary) > 0 {
		pack.Search.Vocabulary = file.Search.Vocabulary
	}
	if len(file.Search.Corrections) > 0 {
		pack.Search.Corrections = file.Search.Corrections
	}

	if err := pack.Validate(); err != nil {
		return RulePack{}, fmt.Errorf("rule pack %s: %w", path, err)
	}
	return pack, nil
}

// Validate checks confidences and that every rule can match something.
func (p RulePack) Validate() error {
	for _, r := range p.Categories {
		if r.Category == "" || len(r.Keywords) == 0 {
			return fmt.Errorf("category rule %q needs a category and keywords", r.ID)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("category rule %q confidence %v out of range", r.ID, r.Confidence)
		}
	}
	for _, r := range p.Intents {
		if r.Intent == "" || len(r.Keywords) == 0 {
			return fmt.Errorf("intent rule %q needs an intent and keywords", r.ID)
		}
		if r.Confidence < 0 || r.Confidence > 1 {
			return fmt.Errorf("intent rule %q confidence %v out of range", r.ID, r.Confidence)
		}
	}
	if c := p.DefaultCategory.Confidence; c < 0 || c > 1 {
		return fmt.Errorf("default category confidence %v out of range", c)
	}
	if c := p.UnknownIntent.Confidence; c < 0 || c > 1 {
		return fmt.Errorf("unknown intent confidence %v out of range", c)
	}
	return nil
}

// CategoryRules converts the category specs into ordered rules.
func (p RulePack) CategoryRules() []Rule[domain.CategorySuggestion] {
	rules := make([]Rule[domain.CategorySuggestion], 0, len(p.Categories))
	for _, r := range p.Categories {
		rules = append(rules, Rule[domain.CategorySuggestion]{
			ID:    r.ID,
			Match: KeywordPredicate(r.Keywords),
			Result: domain.CategorySuggestion{
				Category:   r.Category,
				Confidence: r.Confidence,
				Tags:       append([]string(nil), r.Tags...),
			},
		})
	}
	return rules
}

// IntentRules converts the intent specs into ordered rules.
func (p RulePack) IntentRules() []Rule[domain.Intent] {
	rules := make([]Rule[domain.Intent], 0, len(p.Intents))
	for _, r := range p.Intents {
		rules = append(rules, Rule[domain.Intent]{
			ID:    r.ID,
			Match: KeywordPredicate(r.Keywords...),
			Result: domain.Intent{
				Name:       r.Intent,
				Action:     r.Action,
				Parameters: copyParams(r.Parameters),
				Confidence: r.Confidence,
			},
		})
	}
	return rules
}

// normalizedCorrections returns the typo table with lowercased keys.
func (t SearchTables) normalizedCorrections() map[string]string {
	out := make(map[string]string, len(t.Corrections))
	for typo, fix := range t.Corrections {
		out[strings.ToLower(strings.TrimSpace(typo))] = fix
	}
	return out
}

func copyParams(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
