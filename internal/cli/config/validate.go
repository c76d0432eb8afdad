package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

var (
	validLogLevels  = []string{"debug", "info", "warn", "warning", "error"}
	validLogFormats = []string{"text", "json"}
	validOutputs    = []string{"auto", "text", "markdown", "json"}
)

// Validate checks enumerations, ports and positive limits.
func (c *Config) Validate() error {
	var errs []error

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level must be one of %v, got %q", validLogLevels, c.LogLevel))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errs = append(errs, fmt.Errorf("log_format must be one of %v, got %q", validLogFormats, c.LogFormat))
	}
	if !slices.Contains(validOutputs, c.OutputFormat) {
		errs = append(errs, fmt.Errorf("output must be one of %v, got %q", validOutputs, c.OutputFormat))
	}

	if c.UI.Port < 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port must be between 0 and 65535, got %d", c.UI.Port))
	}
	if c.UI.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("ui.page_size must be positive, got %d", c.UI.PageSize))
	}
	if c.UI.SessionTTL <= 0 {
		errs = append(errs, errors.New("ui.session_ttl must be positive"))
	}
	if c.UI.SearchDebounce < 0 {
		errs = append(errs, errors.New("ui.search_debounce must not be negative"))
	}

	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("fetch.max_body_bytes must be positive, got %d", c.Fetch.MaxBodyBytes))
	}
	if c.Fetch.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("fetch.concurrency must be positive, got %d", c.Fetch.Concurrency))
	}
	if c.Fetch.RateLimit < 0 {
		errs = append(errs, errors.New("fetch.rate_limit must not be negative"))
	}
	if c.Fetch.RateLimit > 0 && c.Fetch.Burst <= 0 {
		errs = append(errs, errors.New("fetch.burst must be positive when rate limiting"))
	}

	errs = append(errs, c.validateSources()...)

	return errors.Join(errs...)
}

func (c *Config) validateSources() []error {
	var errs []error
	check := func(key, raw string) {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", key, raw))
		}
	}

	s := c.Sources
	check("sources.core_rules_url", s.CoreRulesURL)
	check("sources.tags_url", s.TagsURL)
	check("sources.raw_base_url", s.RawBaseURL)
	if len(s.IndexPaths) == 0 {
		errs = append(errs, errors.New("sources.index_paths must not be empty"))
	}
	if len(s.RuleDirs) == 0 {
		errs = append(errs, errors.New("sources.rule_dirs must not be empty"))
	}

	seen := make(map[string]bool, len(s.Plugins))
	for i, p := range s.Plugins {
		if p.Name == "" {
			errs = append(errs, fmt.Errorf("sources.plugins[%d].name is required", i))
			continue
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("sources.plugins: duplicate plugin %q", p.Name))
		}
		seen[p.Name] = true
		check(fmt.Sprintf("sources.plugins[%d].url", i), p.URL)
	}
	return errs
}
