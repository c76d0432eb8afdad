// Package fetch loads ESLint rule catalogs from remote sources.
//
// Sources are plain JavaScript files scraped with regular expressions and a
// loose-syntax normalizer; see Normalize and the Extract* functions.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/eslintcraft/internal/catalog"
)

// Loader builds catalogs from the configured Sources.
type Loader struct {
	client      Getter
	sources     Sources
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a loader. concurrency bounds the per-rule metadata
// fetches of a version load.
func NewLoader(client Getter, sources Sources, concurrency int, logger *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{
		client:      client,
		sources:     sources,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Sources returns the loader's sources.
func (l *Loader) Sources() Sources {
	return l.sources
}

// LoadDefaultCatalog loads the core rule set followed by every plugin
// listing. A failing source is logged and skipped; the result may be empty
// but the operation itself never fails.
func (l *Loader) LoadDefaultCatalog(ctx context.Context) []catalog.Rule {
	var rules []catalog.Rule
	seen := make(map[string]bool)
	add := func(r catalog.Rule) {
		if seen[r.Name] {
			return
		}
		seen[r.Name] = true
		rules = append(rules, r)
	}

	core, err := l.loadCoreRules(ctx)
	if err != nil {
		l.logger.Warn("core rules unavailable", "url", l.sources.CoreRulesURL, "error", err)
	}
	for _, name := range core {
		add(catalog.Rule{Name: name, Category: catalog.CoreCategory, Schema: emptySchema()})
	}

	for _, plugin := range l.sources.Plugins {
		names, err := l.loadPluginRules(ctx, plugin)
		if err != nil {
			l.logger.Warn("plugin rules unavailable", "plugin", plugin.Name, "url", plugin.URL, "error", err)
			continue
		}
		for _, name := range names {
			add(catalog.Rule{Name: plugin.Name + "/" + name, Category: plugin.Name, Schema: emptySchema()})
		}
	}

	l.logger.Info("default catalog loaded", "rules", len(rules))
	return rules
}

func (l *Loader) loadCoreRules(ctx context.Context) ([]string, error) {
	body, err := l.client.Get(ctx, SourceCore, l.sources.CoreRulesURL)
	if err != nil {
		return nil, err
	}
	return ExtractCoreRuleNames(string(body))
}

func (l *Loader) loadPluginRules(ctx context.Context, plugin PluginSource) ([]string, error) {
	body, err := l.client.Get(ctx, SourcePlugin, plugin.URL)
	if err != nil {
		return nil, err
	}
	return ExtractListingNames(string(body)), nil
}

// LoadCatalogForVersion loads the core rules of one tagged release and merges
// them with the plugin rules of previous. The candidate index locations are
// tried strictly in order. If none of them can be fetched the error wraps
// ErrNetwork and previous should be kept as is.
func (l *Loader) LoadCatalogForVersion(ctx context.Context, version string, previous *catalog.Catalog) (*catalog.Catalog, error) {
	version = strings.TrimPrefix(strings.TrimSpace(version), "v")
	if version == "" {
		return nil, fmt.Errorf("empty version: %w", ErrParse)
	}

	index, err := l.fetchIndex(ctx, version)
	if err != nil {
		return nil, err
	}

	names := ExtractIndexRuleNames(string(index))
	if len(names) == 0 {
		return nil, fmt.Errorf("rule index for v%s lists no rules: %w", version, ErrParse)
	}

	core, err := l.fetchMetadata(ctx, version, names)
	if err != nil {
		return nil, err
	}

	l.logger.Info("version catalog loaded", "version", version, "rules", len(core))
	return previous.MergeCore(core), nil
}

func (l *Loader) fetchIndex(ctx context.Context, version string) ([]byte, error) {
	var errs []error
	for _, url := range l.sources.IndexURLs(version) {
		body, err := l.client.Get(ctx, SourceIndex, url)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if IsNotFound(err) {
			l.logger.Debug("rule index not found", "url", url)
		} else {
			l.logger.Warn("rule index candidate failed", "url", url, "error", err)
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("fetch rule index for v%s: %w: %w", version, ErrNetwork, errors.Join(errs...))
}

// fetchMetadata resolves every rule concurrently and returns the records in
// the order of names.
func (l *Loader) fetchMetadata(ctx context.Context, version string, names []string) ([]catalog.Rule, error) {
	rules := make([]catalog.Rule, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, name := range names {
		g.Go(func() error {
			rule, err := l.ruleMetadata(gctx, version, name)
			if err != nil {
				return err
			}
			rule.DocsCategory = rule.Category
			rule.Category = catalog.CoreCategory
			rules[i] = rule
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch rule metadata for v%s: %w", version, err)
	}
	return rules, nil
}

// ruleMetadata tries each metadata location in turn and falls back to a
// stub. Only cancellation is reported as an error.
func (l *Loader) ruleMetadata(ctx context.Context, version, name string) (catalog.Rule, error) {
	for _, url := range l.sources.RuleURLs(version, name) {
		body, err := l.client.Get(ctx, SourceMeta, url)
		if err != nil {
			if ctx.Err() != nil {
				return catalog.Rule{}, ctx.Err()
			}
			if !IsNotFound(err) {
				l.logger.Debug("rule metadata request failed", "rule", name, "url", url, "error", err)
			}
			continue
		}
		rule, err := ExtractMetadata(string(body), name)
		if err != nil {
			l.logger.Debug("rule metadata unparsable", "rule", name, "url", url, "error", err)
			continue
		}
		return rule, nil
	}
	return StubRule(name), nil
}

type tag struct {
	Name string `json:"name"`
}

// ListVersions returns the stable release versions without their "v" prefix,
// newest first. Tags that are not valid semver keep their listing order after
// the valid ones.
func (l *Loader) ListVersions(ctx context.Context) ([]string, error) {
	body, err := l.client.Get(ctx, SourceTags, l.sources.TagsURL)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}

	var tags []tag
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("list versions: %w: %w", ErrParse, err)
	}

	var versions []string
	for _, t := range tags {
		if isPrerelease(t.Name) {
			continue
		}
		versions = append(versions, strings.TrimPrefix(t.Name, "v"))
	}
	SortVersions(versions)
	return versions, nil
}

func isPrerelease(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "alpha") || strings.Contains(lower, "beta") || strings.Contains(lower, "rc")
}

// SortVersions orders versions newest first by semver precedence. Invalid
// versions sort last in their original order.
func SortVersions(versions []string) {
	slices.SortStableFunc(versions, func(a, b string) int {
		va, vb := "v"+a, "v"+b
		okA, okB := semver.IsValid(va), semver.IsValid(vb)
		switch {
		case okA && okB:
			return semver.Compare(vb, va)
		case okA:
			return -1
		case okB:
			return 1
		}
		return 0
	})
}
