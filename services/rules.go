package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/andybalholm/cascadia"

	"auction-scraper/models"
)

// Rule describes how to locate one field on a vehicle detail page.
// Selectors are tried first, then the label aliases.
type Rule struct {
	Field     string
	Selectors []cascadia.Selector
	Labels    []string
	Money     bool

	exact *regexp.Regexp
	after []*regexp.Regexp
}

// NewRule compiles the CSS selectors and label patterns for a field.
func NewRule(field string, selectors, labels []string, money bool) (*Rule, error) {
	r := &Rule{Field: field, Labels: labels, Money: money}

	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			return nil, fmt.Errorf("rule %s: empty label", field)
		}
	}

	for _, s := range selectors {
		sel, err := cascadia.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("rule %s: selector %q: %w", field, s, err)
		}
		r.Selectors = append(r.Selectors, sel)
	}

	if len(labels) > 0 {
		quoted := make([]string, len(labels))
		for i, l := range labels {
			quoted[i] = regexp.QuoteMeta(l)
		}
		r.exact = regexp.MustCompile(`(?i)^\s*(?:` + strings.Join(quoted, "|") + `)\s*:?\s*$`)

		for _, l := range labels {
			r.after = append(r.after, regexp.MustCompile(`(?i)`+wordBounded(l)+`\s*:\s*`))
		}
	}
	return r, nil
}

// MustRule is NewRule for static rule tables.
func MustRule(field string, selectors, labels []string, money bool) *Rule {
	r, err := NewRule(field, selectors, labels, money)
	if err != nil {
		panic(err)
	}
	return r
}

// wordBounded anchors a label on word boundaries where the label itself
// starts or ends with a word character. "Lot #" must still match "Lot # 123".
func wordBounded(label string) string {
	q := regexp.QuoteMeta(label)
	if isWordByte(label[0]) {
		q = `\b` + q
	}
	if isWordByte(label[len(label)-1]) {
		q += `\b`
	}
	return q
}

// labelPattern matches any label of any rule, so a value read after one
// label can be cut where the next label starts.
func labelPattern(rules []*Rule) *regexp.Regexp {
	var alts []string
	for _, r := range rules {
		for _, l := range r.Labels {
			alts = append(alts, wordBounded(l))
		}
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(alts, "|") + `)`)
}

func isWordByte(b byte) bool {
	return b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// DefaultRules is the field table for IAA-style vehicle detail pages.
func DefaultRules() []*Rule {
	return []*Rule{
		MustRule(models.FieldStockNo,
			[]string{"[data-testid='stock-number']"},
			[]string{"Stock #", "Stock No", "Stock#", "Stock Number", "Lot #", "Lot Number"}, false),
		MustRule(models.FieldYear,
			[]string{"[data-testid='vehicle-year']"},
			[]string{"Year"}, false),
		MustRule(models.FieldMake,
			[]string{"[data-testid='vehicle-make']"},
			[]string{"Make"}, false),
		MustRule(models.FieldModel,
			[]string{"[data-testid='vehicle-model']"},
			[]string{"Model"}, false),
		MustRule(models.FieldAuctionDate,
			[]string{"[data-testid='auction-date']"},
			[]string{"Auction Date", "Sale Date", "Auction Time", "Sale Time"}, false),
		MustRule(models.FieldACVCost,
			[]string{"[data-testid='acv']"},
			[]string{"ACV", "Actual Cash Value"}, true),
		MustRule(models.FieldRepairCost,
			[]string{"[data-testid='repair-cost']"},
			[]string{"Repair Cost", "Estimated Repair Cost", "Est. Repair"}, true),
	}
}
