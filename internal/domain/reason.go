package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ReasonCode identifies a message template.
type ReasonCode string

const (
	ReasonPricingScarce   ReasonCode = "pricing.scarce"
	ReasonPricingExcess   ReasonCode = "pricing.excess"
	ReasonPricingBalanced ReasonCode = "pricing.balanced"

	ReasonNegativeStock     ReasonCode = "anomaly.negative_stock"
	ReasonCriticallyLow     ReasonCode = "anomaly.critically_low_stock"
	ReasonLowMargin         ReasonCode = "anomaly.low_margin"
	ReasonInvalidThreshold  ReasonCode = "anomaly.invalid_threshold"
	ActionAuditStock        ReasonCode = "action.audit_stock_count"
	ActionReorderNow        ReasonCode = "action.reorder_now"
	ActionReviewPricing     ReasonCode = "action.review_pricing"
	ActionSetMinThreshold   ReasonCode = "action.set_min_threshold"
	ReasonSameCategoryMatch ReasonCode = "recommend.same_category"
)

// Reason is a tagged message: a template code plus the values it refers to.
// Rendering is left to the caller; Text provides the default English form.
type Reason struct {
	Code   ReasonCode     `json:"code"`
	Params map[string]any `json:"params,omitempty"`
}

var reasonTemplates = map[ReasonCode]string{
	ReasonPricingScarce:     "Stock is at {ratio}x the minimum level; raise price by {change_pct}% while supply is short",
	ReasonPricingExcess:     "Stock is at {ratio}x the minimum level; lower price by {change_pct}% to clear excess inventory",
	ReasonPricingBalanced:   "Stock is balanced at {ratio}x the minimum level; adjust price by {change_pct}% to follow demand",
	ReasonNegativeStock:     "Negative stock quantity detected ({quantity})",
	ReasonCriticallyLow:     "Stock is critically low at {percent}% of minimum level ({quantity}/{min})",
	ReasonLowMargin:         "Profit margin is only {margin_pct}% (price {price}, cost {cost})",
	ReasonInvalidThreshold:  "Minimum stock level is {min}; stock ratio cannot be computed",
	ActionAuditStock:        "Audit the physical stock count and correct the inventory record",
	ActionReorderNow:        "Place a reorder of at least {quantity} units",
	ActionReviewPricing:     "Review pricing; a 10% margin needs a price of at least {min_price}",
	ActionSetMinThreshold:   "Set a positive minimum stock level for this item",
	ReasonSameCategoryMatch: "Frequently bought together with other {category} items",
}

// Text renders the reason with its default template. Unknown codes render as the code itself.
func (r Reason) Text() string {
	tmpl, ok := reasonTemplates[r.Code]
	if !ok {
		return string(r.Code)
	}

	if len(r.Params) == 0 {
		return tmpl
	}

	keys := make([]string, 0, len(r.Params))
	for k := range r.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", formatParam(r.Params[k]))
	}

	return strings.NewReplacer(pairs...).Replace(tmpl)
}

type reasonJSON struct {
	Code   ReasonCode     `json:"code"`
	Params map[string]any `json:"params,omitempty"`
}

// MarshalJSON writes whole float params with a fractional part ("2.0") so
// that UnmarshalJSON can tell them apart from int params.
func (r Reason) MarshalJSON() ([]byte, error) {
	out := reasonJSON{Code: r.Code}
	if len(r.Params) > 0 {
		out.Params = make(map[string]any, len(r.Params))
		for k, v := range r.Params {
			if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
				v = json.Number(strconv.FormatFloat(f, 'f', 1, 64))
			}
			out.Params[k] = v
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes integer literals as int and other numbers as float64.
func (r *Reason) UnmarshalJSON(data []byte) error {
	var in reasonJSON
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return err
	}

	for k, v := range in.Params {
		n, ok := v.(json.Number)
		if !ok {
			continue
		}
		val, err := decodeParam(n)
		if err != nil {
			return fmt.Errorf("reason %s param %q: %w", in.Code, k, err)
		}
		in.Params[k] = val
	}

	r.Code, r.Params = in.Code, in.Params
	return nil
}

func decodeParam(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 0); err == nil {
			return int(i), nil
		}
	}
	return n.Float64()
}

func formatParam(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
