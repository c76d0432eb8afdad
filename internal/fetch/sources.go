package fetch

import (
	"fmt"
	"strings"
)

// PluginSource is a plugin's rule directory listing.
type PluginSource struct {
	Name string `koanf:"name" json:"name" yaml:"name"`
	URL  string `koanf:"url" json:"url" yaml:"url"`
}

// Sources holds every remote location the loader reads.
type Sources struct {
	CoreRulesURL string         `koanf:"core_rules_url" json:"core_rules_url" yaml:"core_rules_url"`
	TagsURL      string         `koanf:"tags_url" json:"tags_url" yaml:"tags_url"`
	RawBaseURL   string         `koanf:"raw_base_url" json:"raw_base_url" yaml:"raw_base_url"`
	IndexPaths   []string       `koanf:"index_paths" json:"index_paths" yaml:"index_paths"`
	RuleDirs     []string       `koanf:"rule_dirs" json:"rule_dirs" yaml:"rule_dirs"`
	Plugins      []PluginSource `koanf:"plugins" json:"plugins" yaml:"plugins"`
}

const rawGitHub = "https://raw.githubusercontent.com"

// DefaultSources returns the upstream ESLint locations.
func DefaultSources() Sources {
	return Sources{
		CoreRulesURL: rawGitHub + "/eslint/eslint/main/packages/js/src/configs/eslint-all.js",
		TagsURL:      "https://api.github.com/repos/eslint/eslint/tags?per_page=10",
		RawBaseURL:   rawGitHub + "/eslint/eslint",
		IndexPaths: []string{
			"packages/js/src/rules/index.js",
			"packages/eslint-core/src/rules/index.js",
			"lib/rules/index.js",
		},
		RuleDirs: []string{
			"packages/js/src/rules/",
			"packages/eslint-core/src/rules/",
			"lib/rules/",
		},
		Plugins: []PluginSource{
			{Name: "react", URL: rawGitHub + "/jsx-eslint/eslint-plugin-react/master/lib/rules/index.js"},
			{Name: "@typescript-eslint", URL: rawGitHub + "/typescript-eslint/typescript-eslint/main/packages/eslint-plugin/src/rules/index.ts"},
			{Name: "jsx-a11y", URL: rawGitHub + "/jsx-eslint/eslint-plugin-jsx-a11y/main/src/index.js"},
			{Name: "@next/next", URL: rawGitHub + "/vercel/next.js/canary/packages/eslint-plugin-next/src/index.js"},
			{Name: "import", URL: rawGitHub + "/import-js/eslint-plugin-import/main/src/index.js"},
			{Name: "react-hooks", URL: rawGitHub + "/facebook/react/main/packages/eslint-plugin-react-hooks/src/index.js"},
		},
	}
}

// PluginNames returns the configured plugin names in order.
func (s Sources) PluginNames() []string {
	names := make([]string, len(s.Plugins))
	for i, p := range s.Plugins {
		names[i] = p.Name
	}
	return names
}

// IndexURLs returns the candidate rule index locations for a version tag.
func (s Sources) IndexURLs(version string) []string {
	urls := make([]string, len(s.IndexPaths))
	for i, p := range s.IndexPaths {
		urls[i] = s.versionURL(version, p)
	}
	return urls
}

// RuleURLs returns the candidate metadata file locations for one rule.
func (s Sources) RuleURLs(version, rule string) []string {
	urls := make([]string, len(s.RuleDirs))
	for i, dir := range s.RuleDirs {
		urls[i] = s.versionURL(version, dir+rule+".js")
	}
	return urls
}

func (s Sources) versionURL(version, path string) string {
	return fmt.Sprintf("%s/v%s/%s", strings.TrimSuffix(s.RawBaseURL, "/"), version, strings.TrimPrefix(path, "/"))
}
