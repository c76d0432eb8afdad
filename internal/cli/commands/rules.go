package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
	"github.com/leapstack-labs/eslintcraft/internal/cli/output"
	"github.com/leapstack-labs/eslintcraft/internal/fetch"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	ToolVersion string // Load core rules for this ESLint version
	Plugin      string // Filter by category or plugin prefix
	Search      string // Case-insensitive name/description filter
	Limit       int    // Maximum rows, 0 for all
	Format      string // Output format
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List ESLint rules from the remote sources",
		Long: `List the rule catalog the wizard offers.

Without --tool-version the default catalog is shown: every key of the
canonical eslint-all rule set plus the rules of each configured plugin.
With --tool-version the core rules are read from that release's rule index
and metadata files; plugin rules are kept.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown table
  - JSON: Machine-readable format`,
		Example: `  # List the default catalog
  eslintcraft rules

  # Core rules of a specific release
  eslintcraft rules --tool-version 8.57.0

  # Search react rules
  eslintcraft rules --plugin react --search hooks

  # First 20 rules as JSON
  eslintcraft rules --limit 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRules(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.ToolVersion, "tool-version", "", "ESLint version to load core rules for")
	cmd.Flags().StringVarP(&opts.Plugin, "plugin", "p", catalog.AllPlugins, "Filter by category or plugin prefix")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "Filter by name or description")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum number of rules to show (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("plugin", completePlugins)

	return cmd
}

// completePlugins offers the plugin filter values of the loaded config, or
// of the built-in sources when none was loaded.
func completePlugins(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	sources := fetch.DefaultSources()
	if cfg := config.GetCurrentConfig(); cfg != nil {
		sources = cfg.Sources
	}
	return append([]string{catalog.AllPlugins}, sources.PluginNames()...), cobra.ShellCompDirectiveNoFileComp
}

func runRules(cmd *cobra.Command, opts *RulesOptions) error {
	if opts.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}

	cmdCtx, err := NewCommandContext(cmd, opts.Format)
	if err != nil {
		return err
	}

	fetcher, err := openFetcher(cmdCtx.Cfg, nil, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = fetcher.Close() }()

	loader := fetcher.NewLoader(cmdCtx.Cfg, cmdCtx.Cfg.Sources, cmdCtx.Logger)
	cat, err := loadRules(cmd.Context(), loader, opts.ToolVersion)
	if err != nil {
		return err
	}

	q := catalog.Query{Text: opts.Search, Plugin: opts.Plugin}
	limit := opts.Limit
	if limit == 0 {
		limit = cat.Len()
	}
	page := cat.Window(q, limit)

	r := cmdCtx.Renderer
	if cat.Len() == 0 {
		r.Warning("no rules could be fetched; check network access and the sources configuration")
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, cat, page, opts.ToolVersion)
	case output.ModeMarkdown:
		listRulesMarkdown(r, cat, page, opts.ToolVersion)
	default:
		listRulesText(r, cat, page, opts.ToolVersion)
	}
	return nil
}

// loadRules returns the default catalog, replacing its core rules with a
// release's rules when version is set.
func loadRules(ctx context.Context, loader *fetch.Loader, version string) (*catalog.Catalog, error) {
	defaults := catalog.New(loader.LoadDefaultCatalog(ctx))
	if version == "" {
		return defaults, nil
	}
	cat, err := loader.LoadCatalogForVersion(ctx, version, defaults)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules for version %s: %w", version, err)
	}
	return cat, nil
}

func catalogTitle(version string) string {
	if version == "" {
		return "ESLint Rules"
	}
	return "ESLint Rules (v" + strings.TrimPrefix(version, "v") + ")"
}

func ruleRows(cat *catalog.Catalog, rules []catalog.Rule) [][]string {
	rows := make([][]string, len(rules))
	for i, rule := range rules {
		rows[i] = []string{
			rule.Name,
			rule.Category,
			truncateOneLine(rule.Description, 70),
			strings.Join(cat.AlsoIn(rule.Name), ", "),
		}
	}
	return rows
}

var ruleHeader = []string{"Rule", "Category", "Description", "Also in"}

// listRulesText outputs rules as a styled table.
func listRulesText(r *output.Renderer, cat *catalog.Catalog, page catalog.Page, version string) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %d of %d", catalogTitle(version), len(page.Rules), page.Total)))
	r.Println("")

	if len(page.Rules) == 0 {
		r.Println(styles.Muted.Render("No rules match."))
		return
	}
	r.Table(ruleHeader, ruleRows(cat, page.Rules))

	if page.HasMore() {
		r.Println("")
		r.Println(styles.Muted.Render(fmt.Sprintf("%d more; raise --limit to see them", page.Total-len(page.Rules))))
	}
	r.Println("")
}

// listRulesMarkdown outputs rules as a markdown table.
func listRulesMarkdown(r *output.Renderer, cat *catalog.Catalog, page catalog.Page, version string) {
	r.Println("# " + catalogTitle(version))
	r.Println("")
	r.Printf("Showing %d of %d rules.\n", len(page.Rules), page.Total)
	r.Println("")
	if len(page.Rules) > 0 {
		r.Table(ruleHeader, ruleRows(cat, page.Rules))
		r.Println("")
	}
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Version string         `json:"version,omitempty"`
	Total   int            `json:"total"`
	Shown   int            `json:"shown"`
	Rules   []RuleJSONItem `json:"rules"`
}

// RuleJSONItem is one rule with its duplicate-name categories.
type RuleJSONItem struct {
	catalog.Rule
	AlsoIn []string `json:"alsoIn,omitempty"`
}

func listRulesJSON(r *output.Renderer, cat *catalog.Catalog, page catalog.Page, version string) error {
	out := RulesJSONOutput{
		Version: strings.TrimPrefix(version, "v"),
		Total:   page.Total,
		Shown:   len(page.Rules),
		Rules:   make([]RuleJSONItem, len(page.Rules)),
	}
	for i, rule := range page.Rules {
		out.Rules[i] = RuleJSONItem{Rule: rule, AlsoIn: cat.AlsoIn(rule.Name)}
	}
	return r.JSON(out)
}

func truncateOneLine(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
