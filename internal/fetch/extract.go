package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
)

// Values used when a rule's metadata cannot be recovered.
const (
	StubDescription = "unavailable"
	DefaultRuleType = "suggestion"
)

var (
	// "name": require(...), name: () => require(...), "name": rule
	indexEntryRe = regexp.MustCompile(`(?:^|[^\w$"'-])(?:["']([\w-]+)["']|([A-Za-z_$][\w$]*))\s*:\s*(?:\(\s*\)\s*=>\s*)?(?:require|rule)\b`)
	// any quoted bare identifier in a plugin listing
	listingNameRe = regexp.MustCompile(`["']([\w-]+)["']`)
)

// ExtractObject returns the balanced object literal assigned to key, for
// example the `{...}` of `rules: Object.freeze({...})`. Strings, template
// literals and comments inside the object are skipped while balancing.
func ExtractObject(src, key string) (string, error) {
	loc := objectPattern(key).FindStringIndex(src)
	if loc == nil {
		return "", fmt.Errorf("no %q object found: %w", key, ErrParse)
	}
	start := loc[1] - 1

	depth := 0
	for i := start; i < len(src); {
		c := src[i]
		switch {
		case c == '"' || c == '\'' || c == '`':
			_, end, err := readString(src, i)
			if err != nil {
				return "", err
			}
			i = end
			continue
		case c == '/' && i+1 < len(src) && (src[i+1] == '/' || src[i+1] == '*'):
			end, err := skipComment(src, i)
			if err != nil {
				return "", err
			}
			i = end
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return src[start : i+1], nil
			}
		}
		i++
	}
	return "", fmt.Errorf("unbalanced %q object: %w", key, ErrParse)
}

var objectPatterns sync.Map

func objectPattern(key string) *regexp.Regexp {
	if re, ok := objectPatterns.Load(key); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`(?:^|[^\w$.])` + regexp.QuoteMeta(key) + `\s*:\s*(?:Object\.freeze\(\s*)?\{`)
	objectPatterns.Store(key, re)
	return re
}

// ExtractCoreRuleNames returns the keys of the `rules:` object of a
// canonical rule-set source, in source order.
func ExtractCoreRuleNames(src string) ([]string, error) {
	obj, err := ExtractObject(src, "rules")
	if err != nil {
		return nil, err
	}
	text, err := Normalize(obj)
	if err != nil {
		return nil, fmt.Errorf("rules object: %w", err)
	}
	return objectKeys(text)
}

// ExtractListingNames returns every quoted bare identifier of a plugin rule
// listing except "index", de-duplicated in order of appearance.
func ExtractListingNames(src string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range listingNameRe.FindAllStringSubmatch(src, -1) {
		name := m[1]
		if name == "index" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// ExtractIndexRuleNames returns the rule identifiers registered by a rule
// index module, de-duplicated in order of appearance.
func ExtractIndexRuleNames(src string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range indexEntryRe.FindAllStringSubmatch(src, -1) {
		name := m[1]
		if name == "" {
			name = m[2]
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

type ruleMeta struct {
	Type string `json:"type"`
	Docs struct {
		Description string          `json:"description"`
		Category    string          `json:"category"`
		Recommended json.RawMessage `json:"recommended"`
	} `json:"docs"`
	Fixable json.RawMessage `json:"fixable"`
	Schema  json.RawMessage `json:"schema"`
}

// ExtractMetadata parses the `meta:` block of a rule module.
func ExtractMetadata(src, name string) (catalog.Rule, error) {
	obj, err := ExtractObject(src, "meta")
	if err != nil {
		return catalog.Rule{}, err
	}
	text, err := Normalize(obj)
	if err != nil {
		return catalog.Rule{}, fmt.Errorf("meta of %s: %w", name, err)
	}

	var meta ruleMeta
	if err := json.Unmarshal([]byte(text), &meta); err != nil {
		return catalog.Rule{}, fmt.Errorf("meta of %s: %w: %w", name, ErrParse, err)
	}

	rule := catalog.Rule{
		Name:        name,
		Description: meta.Docs.Description,
		Category:    meta.Docs.Category,
		Type:        meta.Type,
		Schema:      meta.Schema,
		Fixable:     truthy(meta.Fixable),
		Recommended: truthy(meta.Docs.Recommended),
	}
	if rule.Description == "" {
		rule.Description = StubDescription
	}
	if rule.Category == "" {
		rule.Category = catalog.OtherCategory
	}
	if rule.Type == "" {
		rule.Type = DefaultRuleType
	}
	if !truthy(rule.Schema) {
		rule.Schema = emptySchema()
	}
	return rule, nil
}

// StubRule is the record used when no metadata could be recovered.
func StubRule(name string) catalog.Rule {
	return catalog.Rule{
		Name:        name,
		Description: StubDescription,
		Category:    catalog.OtherCategory,
		Type:        DefaultRuleType,
		Schema:      emptySchema(),
	}
}

func emptySchema() json.RawMessage {
	return json.RawMessage("[]")
}

// truthy mirrors JavaScript truthiness for the JSON values found in meta.
func truthy(raw json.RawMessage) bool {
	v := string(bytes.TrimSpace(raw))
	switch v {
	case "", "null", "false", `""`, "0":
		return false
	}
	return true
}
