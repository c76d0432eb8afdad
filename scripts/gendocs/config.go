package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
	"github.com/leapstack-labs/eslintcraft/internal/fetch"
)

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Section     string // "general", "ui", "fetch", "sources"
}

// configSchema mirrors internal/cli/config/types.go.
func configSchema() []ConfigField {
	src := fetch.DefaultSources()
	plugins := make([]string, len(src.Plugins))
	for i, p := range src.Plugins {
		plugins[i] = p.Name
	}

	return []ConfigField{
		{Name: "verbose", Type: "bool", Default: "false", Description: "Print extra diagnostics", Section: "general"},
		{Name: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "debug, info, warn or error", Section: "general"},
		{Name: "log_format", Type: "string", Default: config.DefaultLogFormat, Description: "text or json", Section: "general"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "auto, text, markdown or json", Section: "general"},

		{Name: "port", Type: "int", Default: strconv.Itoa(config.DefaultPort), Description: "Port the wizard listens on", Section: "ui"},
		{Name: "auto_open", Type: "bool", Default: "true", Description: "Open the browser on start", Section: "ui"},
		{Name: "watch", Type: "bool", Default: "true", Description: "Reload sources when the config file changes", Section: "ui"},
		{Name: "session_secret", Type: "string", Description: "Key for the session cookie", Section: "ui"},
		{Name: "session_ttl", Type: "duration", Default: config.DefaultSessionTTL.String(), Description: "Idle time before a session is dropped", Section: "ui"},
		{Name: "page_size", Type: "int", Default: strconv.Itoa(config.DefaultPageSize), Description: "Rules shown per page", Section: "ui"},
		{Name: "search_debounce", Type: "duration", Default: config.DefaultSearchDebounce.String(), Description: "Quiet period before a search runs", Section: "ui"},

		{Name: "timeout", Type: "duration", Default: config.DefaultTimeout.String(), Description: "Per-request timeout", Section: "fetch"},
		{Name: "user_agent", Type: "string", Default: "eslintcraft/<version>", Description: "User-Agent header", Section: "fetch"},
		{Name: "max_body_bytes", Type: "int", Default: strconv.Itoa(config.DefaultMaxBodyBytes), Description: "Largest accepted response body", Section: "fetch"},
		{Name: "rate_limit", Type: "float", Default: strconv.Itoa(config.DefaultRateLimit), Description: "Requests per second, 0 disables limiting", Section: "fetch"},
		{Name: "burst", Type: "int", Default: strconv.Itoa(config.DefaultBurst), Description: "Rate limiter burst", Section: "fetch"},
		{Name: "concurrency", Type: "int", Default: strconv.Itoa(config.DefaultConcurrency), Description: "Parallel rule description downloads", Section: "fetch"},
		{Name: "cache_path", Type: "string", Default: config.DefaultCachePath, Description: "SQLite response cache, empty disables caching", Section: "fetch"},
		{Name: "cache_ttl", Type: "duration", Default: config.DefaultCacheTTL.String(), Description: "Age after which cached responses are refetched", Section: "fetch"},
		{Name: "default_ttl", Type: "duration", Default: config.DefaultCatalogTTL.String(), Description: "Lifetime of the shared default catalog", Section: "fetch"},

		{Name: "core_rules_url", Type: "string", Default: src.CoreRulesURL, Description: "Core rule listing for the default catalog", Section: "sources"},
		{Name: "tags_url", Type: "string", Default: src.TagsURL, Description: "ESLint release tags", Section: "sources"},
		{Name: "raw_base_url", Type: "string", Default: src.RawBaseURL, Description: "Raw file root for versioned rule files", Section: "sources"},
		{Name: "index_paths", Type: "[]string", Default: strings.Join(src.IndexPaths, ", "), Description: "Rule index locations, tried in order", Section: "sources"},
		{Name: "rule_dirs", Type: "[]string", Default: strings.Join(src.RuleDirs, ", "), Description: "Rule file directories matching index_paths", Section: "sources"},
		{Name: "plugins", Type: "[]{name, url}", Default: strings.Join(plugins, ", "), Description: "Plugin rule listings", Section: "sources"},
	}
}

// generateConfigDocs writes the configuration reference page.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := writePage(outDir, "index.md", configPage(configSchema())); err != nil {
		return fmt.Errorf("failed to generate configuration page: %w", err)
	}
	log.Printf("  Generated index.md")
	return nil
}

var configSections = []struct {
	key, title, intro string
}{
	{"general", "General", "Top-level keys."},
	{"ui", "Wizard", "Keys under `ui` configure the browser wizard."},
	{"fetch", "Fetching", "Keys under `fetch` configure the HTTP client and response cache."},
	{"sources", "Sources", "Keys under `sources` locate the rule listings. Changes are picked up by a running wizard."},
}

func configPage(fields []ConfigField) *MarkdownWriter {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "eslintcraft configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("eslintcraft reads `eslintcraft.yaml` from the working directory or the nearest parent. " +
		"Values from the file are overridden by environment variables, which are overridden by flags.")

	for _, sec := range configSections {
		w.Header(2, sec.title)
		w.Paragraph(sec.intro)

		var rows [][]string
		for _, f := range fields {
			if f.Section != sec.key {
				continue
			}
			defVal := "-"
			if f.Default != "" {
				defVal = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
		}
		w.Table([]string{"Field", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Example")
	w.CodeBlock("yaml", fmt.Sprintf(`log_level: debug
ui:
  port: %d
  session_secret: change-me
fetch:
  cache_path: %s
sources:
  plugins:
    - name: react
      url: https://raw.githubusercontent.com/jsx-eslint/eslint-plugin-react/master/lib/rules/index.js`,
		config.DefaultPort, config.DefaultCachePath))

	return w
}
