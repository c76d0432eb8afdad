// Package catalog holds the in-memory collection of known ESLint rules.
//
// A Catalog is an immutable, ordered snapshot. Loading a new catalog replaces
// the previous snapshot wholesale; MergeCore is the only merge operation and
// keeps plugin-prefixed rules across a core-rule refresh.
package catalog

import (
	"encoding/json"
	"strings"
)

// Category names assigned by the loaders.
const (
	CoreCategory  = "ESLint Core"
	OtherCategory = "other"
)

// Rule describes one lint rule as far as it could be recovered from its source.
type Rule struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	DocsCategory string          `json:"docsCategory,omitempty"`
	Type         string          `json:"type,omitempty"`
	Schema       json.RawMessage `json:"schema"`
	Fixable      bool            `json:"fixable"`
	Recommended  bool            `json:"recommended"`
}

// IsPlugin reports whether the rule name carries a plugin prefix.
func (r Rule) IsPlugin() bool {
	return strings.Contains(r.Name, "/")
}

// Plugin returns the plugin prefix of the rule name, or "" for core rules.
// Scoped plugins keep their scope: "@typescript-eslint/no-any" yields
// "@typescript-eslint".
func (r Rule) Plugin() string {
	i := strings.LastIndex(r.Name, "/")
	if i < 0 {
		return ""
	}
	return r.Name[:i]
}

// BareName returns the rule name after the last "/".
func (r Rule) BareName() string {
	return BareName(r.Name)
}

// BareName returns name after its last "/".
func BareName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}
