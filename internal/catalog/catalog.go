package catalog

import "sort"

// Catalog is an ordered, de-duplicated set of rules.
// The zero value is an empty catalog. A Catalog is never mutated after
// construction, so it can be shared freely between goroutines.
type Catalog struct {
	rules []Rule
	index map[string]int
}

// New builds a catalog from rules, keeping the first rule for each name.
func New(rules []Rule) *Catalog {
	c := &Catalog{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[string]int, len(rules)),
	}
	for _, r := range rules {
		if r.Name == "" {
			continue
		}
		if _, dup := c.index[r.Name]; dup {
			continue
		}
		c.index[r.Name] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	return c
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rules)
}

// Rules returns a copy of the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	if c == nil {
		return nil
	}
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Get returns the rule with the given name.
func (c *Catalog) Get(name string) (Rule, bool) {
	if c == nil {
		return Rule{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Has reports whether a rule with the given name exists.
func (c *Catalog) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// PluginRules returns the plugin-prefixed rules in catalog order.
func (c *Catalog) PluginRules() []Rule {
	if c == nil {
		return nil
	}
	var out []Rule
	for _, r := range c.rules {
		if r.IsPlugin() {
			out = append(out, r)
		}
	}
	return out
}

// MergeCore returns a new catalog holding this catalog's plugin rules
// followed by core. Core rules of the receiver are dropped.
func (c *Catalog) MergeCore(core []Rule) *Catalog {
	plugins := c.PluginRules()
	merged := make([]Rule, 0, len(plugins)+len(core))
	merged = append(merged, plugins...)
	merged = append(merged, core...)
	return New(merged)
}

// WithPluginsOf returns a catalog holding other's plugin rules followed by
// this catalog's core rules. When other has no plugin rules c is returned.
func (c *Catalog) WithPluginsOf(other *Catalog) *Catalog {
	plugins := other.PluginRules()
	if len(plugins) == 0 {
		return c
	}
	merged := plugins
	for _, r := range c.Rules() {
		if !r.IsPlugin() {
			merged = append(merged, r)
		}
	}
	return New(merged)
}

// Categories returns the distinct categories in order of first appearance.
func (c *Catalog) Categories() []string {
	if c == nil {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rules {
		if !seen[r.Category] {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	return out
}

// AlsoIn returns the other categories that contain a rule with the same bare
// name as the named rule. The rule's own category is never included.
func (c *Catalog) AlsoIn(name string) []string {
	rule, ok := c.Get(name)
	if !ok {
		return nil
	}
	bare := rule.BareName()

	seen := make(map[string]bool)
	var out []string
	for _, r := range c.rules {
		if r.Name == name || r.Category == rule.Category || seen[r.Category] {
			continue
		}
		if r.BareName() == bare {
			seen[r.Category] = true
			out = append(out, r.Category)
		}
	}
	sort.Strings(out)
	return out
}
