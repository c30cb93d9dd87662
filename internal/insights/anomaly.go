package insights

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andresuchdata/autopo-insights/internal/domain"
)

const (
	// LowStockPercent of the minimum level below which stock is critically low.
	LowStockPercent = 30
	// MinMarginMultiplier is the price-to-cost multiple a healthy item keeps (10% margin).
	MinMarginMultiplier = 1.1
)

// findingNamespace scopes the name-based UUIDs given to findings.
var findingNamespace = uuid.MustParse("6f1d3c2a-8a4e-4f5b-9c1e-2b7d9e0a4c11")

// Finding is what an anomaly rule reports for an item.
type Finding struct {
	Message domain.Reason
	Action  domain.Reason
}

// AnomalyRule is one independent check; Index is stable and feeds the finding id.
type AnomalyRule struct {
	Index    int
	Type     domain.AnomalyType
	Severity domain.Severity
	Check    func(item domain.Item) (Finding, bool)
}

// DefaultAnomalyRules returns the built-in rule list in evaluation order.
func DefaultAnomalyRules() []AnomalyRule {
	return []AnomalyRule{
		{Index: 1, Type: domain.AnomalyStockMismatch, Severity: domain.SeverityCritical, Check: checkNegativeStock},
		{Index: 2, Type: domain.AnomalyStockMismatch, Severity: domain.SeverityHigh, Check: checkCriticallyLowStock},
		{Index: 3, Type: domain.AnomalyPricing, Severity: domain.SeverityMedium, Check: checkLowMargin},
		{Index: 4, Type: domain.AnomalyDataInconsistency, Severity: domain.SeverityMedium, Check: checkThreshold},
	}
}

// Detector scans a snapshot with cumulative per-item rules.
type Detector struct {
	rules []AnomalyRule
	now   func() time.Time
}

// NewDetector creates a detector. Nil rules use the defaults; a nil clock uses UTC now.
func NewDetector(rules []AnomalyRule, now func() time.Time) *Detector {
	if rules == nil {
		rules = DefaultAnomalyRules()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Detector{rules: rules, now: now}
}

// Scan evaluates every rule against every item. The result is ordered by
// severity (critical first), then item id, then rule index.
func (d *Detector) Scan(items []domain.Item) ([]domain.Anomaly, error) {
	detectedAt := d.now()

	findings := make([]domain.Anomaly, 0)
	for _, item := range items {
		itemFindings, err := d.ScanItem(item, detectedAt)
		if err != nil {
			return nil, err
		}
		findings = append(findings, itemFindings...)
	}

	SortAnomalies(findings)
	return findings, nil
}

// ScanItem evaluates the rules for one item in rule order.
func (d *Detector) ScanItem(item domain.Item, detectedAt time.Time) ([]domain.Anomaly, error) {
	if err := ValidateItem(item); err != nil {
		return nil, err
	}

	var out []domain.Anomaly
	for _, rule := range d.rules {
		f, ok := rule.Check(item)
		if !ok {
			continue
		}
		out = append(out, domain.Anomaly{
			ID:         FindingID(item.ID, rule.Index),
			Type:       rule.Type,
			Severity:   rule.Severity,
			ItemID:     item.ID,
			ItemName:   item.Name,
			Message:    f.Message,
			Action:     f.Action,
			DetectedAt: detectedAt,
		})
	}
	return out, nil
}

// Now returns the detector clock reading used to stamp a scan.
func (d *Detector) Now() time.Time {
	return d.now()
}

// FindingID derives the stable id of the finding raised by rule index on an item.
func FindingID(itemID string, ruleIndex int) string {
	return uuid.NewSHA1(findingNamespace, []byte(itemID+":"+strconv.Itoa(ruleIndex))).String()
}

// SortAnomalies orders findings by severity rank, then item id. Ties keep
// their existing order, which is rule order for findings built by ScanItem.
func SortAnomalies(findings []domain.Anomaly) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if ra, rb := a.Severity.Rank(), b.Severity.Rank(); ra != rb {
			return ra > rb
		}
		return a.ItemID < b.ItemID
	})
}

func checkNegativeStock(item domain.Item) (Finding, bool) {
	qty := item.Qty()
	if qty >= 0 {
		return Finding{}, false
	}
	return Finding{
		Message: domain.Reason{Code: domain.ReasonNegativeStock, Params: map[string]any{"quantity": qty}},
		Action:  domain.Reason{Code: domain.ActionAuditStock},
	}, true
}

func checkCriticallyLowStock(item domain.Item) (Finding, bool) {
	qty, minStock := item.Qty(), item.MinStock()
	// integer form of qty < min*0.3 so the boundary is exact
	if qty*100 >= minStock*LowStockPercent {
		return Finding{}, false
	}

	percent := 0.0
	if minStock > 0 {
		percent = roundFloat(float64(qty)/float64(minStock)*100, 1)
	}
	reorder := minStock - qty
	if reorder < 0 {
		reorder = 0
	}
	return Finding{
		Message: domain.Reason{Code: domain.ReasonCriticallyLow, Params: map[string]any{
			"quantity": qty,
			"min":      minStock,
			"percent":  percent,
		}},
		Action: domain.Reason{Code: domain.ActionReorderNow, Params: map[string]any{"quantity": reorder}},
	}, true
}

func checkLowMargin(item domain.Item) (Finding, bool) {
	if item.Price >= item.Cost*MinMarginMultiplier {
		return Finding{}, false
	}

	margin := 0.0
	if item.Cost != 0 {
		margin = roundFloat((item.Price-item.Cost)/item.Cost*100, 1)
	}
	return Finding{
		Message: domain.Reason{Code: domain.ReasonLowMargin, Params: map[string]any{
			"price":      item.Price,
			"cost":       item.Cost,
			"margin_pct": margin,
		}},
		Action: domain.Reason{Code: domain.ActionReviewPricing, Params: map[string]any{
			"min_price": roundCurrency(item.Cost*MinMarginMultiplier, 2),
		}},
	}, true
}

func checkThreshold(item domain.Item) (Finding, bool) {
	minStock := item.MinStock()
	if minStock > 0 {
		return Finding{}, false
	}
	return Finding{
		Message: domain.Reason{Code: domain.ReasonInvalidThreshold, Params: map[string]any{"min": minStock}},
		Action:  domain.Reason{Code: domain.ActionSetMinThreshold},
	}, true
}
