package services

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"auction-scraper/models"
	"auction-scraper/utils"
)

var (
	// titleRegexp matches "2018 Honda Civic LX" style page titles.
	titleRegexp = regexp.MustCompile(`\b((?:19|20)\d{2})\s+([A-Za-z]+)\s+([A-Za-z0-9\- ]{2,})`)
	// moneyRegexp captures the first amount in a cost cell, e.g. "12,345.67".
	moneyRegexp = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
)

// Extractor pulls the auction fields out of a rendered detail page.
type Extractor struct {
	logger *utils.Logger
	rules  []*Rule
	labels *regexp.Regexp
}

// NewExtractor creates an Extractor. With no rules it uses DefaultRules.
func NewExtractor(logger *utils.Logger, rules ...*Rule) *Extractor {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Extractor{logger: logger, rules: rules, labels: labelPattern(rules)}
}

// Extract evaluates every rule against rawHTML. It never fails: fields that
// cannot be located stay empty and SourceURL is always set.
func (e *Extractor) Extract(rawHTML, sourceURL string) *models.RawRecord {
	rec := &models.RawRecord{SourceURL: sourceURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		e.logger.Warn("[extract] %s: parse html: %v", sourceURL, err)
		return rec
	}

	for _, r := range e.rules {
		v := e.apply(doc, r)
		if r.Money {
			v = normaliseMoney(v)
		}
		if v == "" {
			e.logger.Debug("[extract] %s: no value for %s", sourceURL, r.Field)
		}
		rec.Set(r.Field, v)
	}

	fillFromTitle(doc, rec)
	return rec
}

func (e *Extractor) apply(doc *goquery.Document, r *Rule) string {
	for _, sel := range r.Selectors {
		var v string
		doc.FindMatcher(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v = selectionText(s)
			return v == ""
		})
		if v != "" {
			return v
		}
	}

	if r.exact == nil {
		return ""
	}
	if v := fromDefinitionList(doc, r); v != "" {
		return v
	}
	if v := e.fromLabelNode(doc, r); v != "" {
		return v
	}
	return e.fromContainer(doc, r)
}

// startsWithLabel reports whether s begins with the label of any field.
func (e *Extractor) startsWithLabel(s string) bool {
	if e.labels == nil {
		return false
	}
	loc := e.labels.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}

// untilNextLabel cuts s where the next field label starts.
func (e *Extractor) untilNextLabel(s string) string {
	if e.labels != nil {
		if loc := e.labels.FindStringIndex(s); loc != nil {
			s = s[:loc[0]]
		}
	}
	return cleanText(s)
}

// fromDefinitionList handles <dt>Label</dt><dd>value</dd>.
func fromDefinitionList(doc *goquery.Document, r *Rule) string {
	var v string
	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !r.exact.MatchString(selectionText(dt)) {
			return true
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return true
		}
		v = selectionText(dd)
		return v == ""
	})
	return v
}

// fromLabelNode finds a text node that is exactly the label and reads the
// element after the label's parent: its next sibling first, then the next
// element in document order. An element holding another label is not a value.
func (e *Extractor) fromLabelNode(doc *goquery.Document, r *Rule) string {
	var v string
	for _, root := range doc.Nodes {
		walk(root, func(n *html.Node) bool {
			if n.Type != html.TextNode || n.Parent == nil || !r.exact.MatchString(n.Data) {
				return true
			}
			parent := n.Parent
			if sib := nextElementSibling(parent); sib != nil {
				if v = e.valueText(sib); v != "" {
					return false
				}
			}
			if next := nextElement(parent); next != nil && next != parent {
				if v = e.valueText(next); v != "" {
					return false
				}
			}
			return true
		})
		if v != "" {
			break
		}
	}
	return v
}

func (e *Extractor) valueText(n *html.Node) string {
	v := nodeText(n)
	if e.startsWithLabel(v) {
		return ""
	}
	return v
}

// fromContainer scans block and inline containers for "Label: value" text
// and takes the value up to the next field label. The innermost matching
// container wins, so page-wide wrappers do not swallow the value.
func (e *Extractor) fromContainer(doc *goquery.Document, r *Rule) string {
	var best string
	bestLen := -1
	doc.Find("div, span, li, p").Each(func(_ int, s *goquery.Selection) {
		txt := selectionText(s)
		for _, re := range r.after {
			loc := re.FindStringIndex(txt)
			if loc == nil {
				continue
			}
			if v := e.untilNextLabel(txt[loc[1]:]); v != "" && (bestLen < 0 || len(txt) < bestLen) {
				best, bestLen = v, len(txt)
			}
			break
		}
	})
	return best
}

// fillFromTitle fills missing year/make/model from a "YYYY Make Model" title.
func fillFromTitle(doc *goquery.Document, rec *models.RawRecord) {
	if rec.Year != "" && rec.Make != "" && rec.Model != "" {
		return
	}
	title := cleanText(doc.Find("title").First().Text())
	m := titleRegexp.FindStringSubmatch(title)
	if m == nil {
		return
	}
	model := m[3]
	if i := strings.Index(model, " - "); i >= 0 {
		model = model[:i]
	}
	if rec.Year == "" {
		rec.Year = m[1]
	}
	if rec.Make == "" {
		rec.Make = m[2]
	}
	if rec.Model == "" {
		rec.Model = strings.TrimSpace(model)
	}
}

// normaliseMoney keeps the first amount and drops currency symbols and
// thousands separators. Text without digits is returned unchanged.
func normaliseMoney(s string) string {
	m := moneyRegexp.FindString(s)
	if m == "" {
		return s
	}
	return strings.ReplaceAll(m, ",", "")
}

func selectionText(s *goquery.Selection) string {
	parts := make([]string, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		if t := nodeText(n); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// nodeText joins the descendant text nodes of n with single spaces,
// ignoring script and style content.
func nodeText(n *html.Node) string {
	var parts []string
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			if t := strings.TrimSpace(c.Data); t != "" {
				parts = append(parts, t)
			}
		}
		return true
	})
	return cleanText(strings.Join(parts, " "))
}

// walk visits n and its descendants in document order until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template":
			return true
		}
	}
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func nextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return s
		}
	}
	return nil
}

func following(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func nextElement(n *html.Node) *html.Node {
	for m := following(n); m != nil; m = following(m) {
		if m.Type == html.ElementNode {
			return m
		}
	}
	return nil
}

// cleanText strips leading/trailing whitespace and collapses internal whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
