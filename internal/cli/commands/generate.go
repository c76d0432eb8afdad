package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/eslintcraft/pkg/eslint"
)

// GenerateOptions holds options for the generate command.
type GenerateOptions struct {
	Language  string
	Framework string
	Version   string
	Rules     []string // name=severity pairs
	Format    string
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print an ESLint configuration",
		Long: `Assemble an ESLint configuration from the given choices and print it.

Rule names are not checked against any catalog; every --rule is written
as given. Nothing is written to disk.`,
		Example: `  # TypeScript + React
  eslintcraft generate --language typescript --framework react

  # Custom severities as YAML
  eslintcraft generate -l javascript --rule no-console=warn --rule eqeqeq=error --format yaml

  # Save to a file
  eslintcraft generate -l typescript > .eslintrc.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sel, format, err := opts.selection()
			if err != nil {
				return err
			}
			text, err := eslint.Generate(sel, format)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(text, "\n"))
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.Language, "language", "l", "", "Language: javascript, typescript")
	cmd.Flags().StringVar(&opts.Framework, "framework", "", "Framework: react, next.js, nest.js, svelte, none")
	cmd.Flags().StringVar(&opts.Version, "tool-version", "", "ESLint version the config targets")
	cmd.Flags().StringArrayVarP(&opts.Rules, "rule", "r", nil, "Rule severity as name=off|warn|error (repeatable)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "json", "Config format: json, yaml")

	_ = cmd.RegisterFlagCompletionFunc("language", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(eslint.LanguageJavaScript), string(eslint.LanguageTypeScript)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("framework", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, f := range eslint.Frameworks() {
			names = append(names, string(f))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(eslint.FormatJSON), string(eslint.FormatYAML)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// selection validates the options and builds the wizard selection.
func (o *GenerateOptions) selection() (eslint.Selection, eslint.Format, error) {
	sel := eslint.Selection{
		ToolVersion: o.Version,
		Rules:       make(map[string]eslint.Severity, len(o.Rules)),
	}

	if o.Language != "" {
		lang, err := eslint.ParseLanguage(o.Language)
		if err != nil {
			return sel, "", err
		}
		sel.Language = lang
	}
	if o.Framework != "" {
		fw, err := eslint.ParseFramework(o.Framework)
		if err != nil {
			return sel, "", err
		}
		sel.Framework = fw
	}

	for _, pair := range o.Rules {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return sel, "", fmt.Errorf("invalid --rule %q (want name=severity)", pair)
		}
		sev, err := eslint.ParseSeverity(value)
		if err != nil {
			return sel, "", fmt.Errorf("rule %s: %w", name, err)
		}
		sel.Rules[name] = sev
	}

	format, err := eslint.ParseFormat(o.Format)
	if err != nil {
		return sel, "", err
	}
	return sel, format, nil
}
