package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// AllPlugins is the plugin filter value that matches every rule.
const AllPlugins = "all"

// PageSize is the number of rules revealed initially and per "load more".
const PageSize = 10

// Query filters a catalog by text and plugin.
type Query struct {
	Text   string
	Plugin string
}

// Matches reports whether the rule satisfies the query.
// Text matching is a case-folded substring match on name or description.
func (q Query) Matches(r Rule) bool {
	return q.matchesPlugin(r) && q.matchesText(r, cases.Fold())
}

func (q Query) matchesPlugin(r Rule) bool {
	if q.Plugin == "" || q.Plugin == AllPlugins {
		return true
	}
	return r.Category == q.Plugin || strings.HasPrefix(r.Name, q.Plugin+"/")
}

func (q Query) matchesText(r Rule, fold cases.Caser) bool {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return true
	}
	needle := fold.String(text)
	return strings.Contains(fold.String(r.Name), needle) ||
		strings.Contains(fold.String(r.Description), needle)
}

// Filter returns all rules matching the query in catalog order.
func (c *Catalog) Filter(q Query) []Rule {
	if c == nil {
		return nil
	}
	fold := cases.Fold()
	var out []Rule
	for _, r := range c.rules {
		if q.matchesPlugin(r) && q.matchesText(r, fold) {
			out = append(out, r)
		}
	}
	return out
}

// Page is the visible slice of a filtered catalog.
type Page struct {
	Rules []Rule
	Total int
}

// HasMore reports whether matching rules remain hidden.
func (p Page) HasMore() bool {
	return len(p.Rules) < p.Total
}

// Window filters the catalog and reveals at most limit matches.
// A non-positive limit reveals PageSize matches.
func (c *Catalog) Window(q Query, limit int) Page {
	if limit <= 0 {
		limit = PageSize
	}
	matches := c.Filter(q)
	page := Page{Total: len(matches)}
	if limit > len(matches) {
		limit = len(matches)
	}
	page.Rules = matches[:limit]
	return page
}

// NextLimit returns the window size after one "load more": current plus
// step, capped at total, never shrinking. A non-positive step is PageSize.
func NextLimit(current, step, total int) int {
	if step <= 0 {
		step = PageSize
	}
	if current <= 0 {
		current = step
	}
	next := current + step
	if next > total {
		next = total
	}
	if next < current {
		return current
	}
	return next
}
