package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/eslintcraft/internal/cli/output"
)

// NewVersionsCommand creates the versions command.
func NewVersionsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "versions",
		Short: "List stable ESLint releases",
		Long: `List the stable ESLint releases offered by the wizard's version picker,
newest first. Pre-releases (alpha, beta, rc) are omitted.`,
		Example: `  eslintcraft versions
  eslintcraft versions --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, err := NewCommandContext(cmd, format)
			if err != nil {
				return err
			}

			fetcher, err := openFetcher(cmdCtx.Cfg, nil, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = fetcher.Close() }()

			versions, err := fetcher.NewLoader(cmdCtx.Cfg, cmdCtx.Cfg.Sources, cmdCtx.Logger).ListVersions(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch ESLint versions: %w", err)
			}

			r := cmdCtx.Renderer
			switch r.EffectiveMode() {
			case output.ModeJSON:
				return r.JSON(map[string][]string{"versions": versions})
			case output.ModeMarkdown:
				r.Println("# ESLint Versions")
				r.Println("")
				for _, v := range versions {
					r.Println("- " + v)
				}
			default:
				styles := r.Styles()
				r.Println(styles.Header2.Render(fmt.Sprintf("ESLint Versions (%d)", len(versions))))
				for i, v := range versions {
					if i == 0 {
						r.Printf("  %s %s\n", v, styles.Success.Render("(latest)"))
						continue
					}
					r.Println("  " + v)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, markdown, json")
	return cmd
}
