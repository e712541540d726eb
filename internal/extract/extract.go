package extract

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Address-shape pattern: local part, @, domain with at least one dot.
var emailRe = regexp.MustCompile(`\b[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]{2,}\b`)

// Extractor pulls candidate addresses out of HTML and runs them through a
// deny-list rule chain. Extraction is a pure function of the input text.
type Extractor struct {
	Rules *RuleSet
}

// Emails returns the surviving address set for one page, lowercased, deduped
// and sorted. Deny rules run against the case-preserved match so patterns
// like literal organization names still fire.
func (e *Extractor) Emails(html string) []string {
	candidates := make(map[string]string) // lowercase -> as found

	for _, m := range emailRe.FindAllString(html, -1) {
		candidates[strings.ToLower(m)] = m
	}
	for _, m := range mailtoAddresses(html) {
		if emailRe.MatchString(m) {
			candidates[strings.ToLower(m)] = m
		}
	}

	rules := e.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	out := make([]string, 0, len(candidates))
	for lower, found := range candidates {
		if _, denied := rules.Deny(found); denied {
			continue
		}
		out = append(out, lower)
	}
	sort.Strings(out)
	return out
}

// mailtoAddresses harvests addresses from mailto: anchors, which catches
// percent-encoded links the raw text scan misses.
func mailtoAddresses(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok {
			return
		}
		addr := strings.TrimPrefix(href, "mailto:")
		if i := strings.IndexAny(addr, "?&"); i >= 0 {
			addr = addr[:i]
		}
		if unescaped, err := url.QueryUnescape(addr); err == nil {
			addr = unescaped
		}
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	})
	return out
}
