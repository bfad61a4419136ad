package traversal

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/scrapeworks/oxygencrawler/pkg/errors"
)

// Rule describes one class of on-page links. Rules are data so the whole
// policy can be unit tested against synthetic pages without any fetch layer.
// A link may match several rules: every Follow match enqueues it, a Terminal
// match hands the page to the product extractor.
type Rule struct {
	Name        string
	RestrictCSS string   // limit candidates to links under this selector; empty = all links
	Allow       []string // URL must contain one of these substrings; empty = any
	Deny        []string // URL must contain none of these substrings
	Follow      bool
	Terminal    bool
}

// DefaultRules is the rule set for the site: crawl the navigation menu
// (skipping designer/features informational pages), expand every "view all"
// pagination link, and treat product tiles as terminal. Menu traversal plus
// ViewAll expansion reaches the full catalog without per-category
// pagination rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:        "menu",
			RestrictCSS: ".MobileEnable > li > a",
			Deny:        []string{"designer", "features"},
			Follow:      true,
		},
		{
			Name:   "view-all",
			Allow:  []string{"ViewAll"},
			Follow: true,
		},
		{
			Name:        "product",
			RestrictCSS: ".homeProducts > a",
			Terminal:    true,
		},
	}
}

// Decision is the outcome of evaluating a page: links to enqueue for further
// traversal and links whose pages are product details.
type Decision struct {
	Follow   []string
	Terminal []string
}

// Policy evaluates a rule set against fetched pages, restricted to a single
// host.
type Policy struct {
	rules []Rule
	host  string
}

// NewPolicy creates a policy bound to the crawl site's host
func NewPolicy(baseURL string, rules []Rule) (*Policy, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, errors.NewConfiguration("invalid base URL for traversal policy", err)
	}
	return &Policy{rules: rules, host: u.Host}, nil
}

// Evaluate applies every rule to the page's outbound links. Links are
// resolved against the page URL; links to other hosts and unparseable links
// are dropped. Each returned list is deduplicated in DOM order.
func (p *Policy) Evaluate(doc *goquery.Document, pageURL string) Decision {
	base, err := url.Parse(pageURL)
	if err != nil {
		return Decision{}
	}

	var decision Decision
	seenFollow := make(map[string]bool)
	seenTerminal := make(map[string]bool)

	for _, rule := range p.rules {
		selector := rule.RestrictCSS
		if selector == "" {
			selector = "a"
		}

		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			href, exists := s.Attr("href")
			if !exists {
				return
			}

			link, ok := p.resolve(base, strings.TrimSpace(href))
			if !ok || !p.matches(rule, link) {
				return
			}

			if rule.Follow && !seenFollow[link] {
				seenFollow[link] = true
				decision.Follow = append(decision.Follow, link)
			}
			if rule.Terminal && !seenTerminal[link] {
				seenTerminal[link] = true
				decision.Terminal = append(decision.Terminal, link)
			}
		})
	}

	return decision
}

// matches reports whether a resolved link satisfies a rule's allow and deny
// lists.
func (p *Policy) matches(rule Rule, link string) bool {
	for _, deny := range rule.Deny {
		if strings.Contains(link, deny) {
			return false
		}
	}

	if len(rule.Allow) == 0 {
		return true
	}
	for _, allow := range rule.Allow {
		if strings.Contains(link, allow) {
			return true
		}
	}
	return false
}

func (p *Policy) resolve(base *url.URL, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return "", false
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false
	}

	resolved := base.ResolveReference(u)
	if resolved.Host != p.host {
		return "", false
	}
	resolved.Fragment = ""

	return resolved.String(), true
}
