package eslint

import (
	"fmt"
	"strings"
)

// =============================================================================
// Language
// =============================================================================

// Language is the source language the generated config targets.
type Language string

// Supported languages.
const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// Languages lists the selectable languages in display order.
func Languages() []Language {
	return []Language{LanguageJavaScript, LanguageTypeScript}
}

// Label returns the human readable name of the language.
func (l Language) Label() string {
	switch l {
	case LanguageJavaScript:
		return "JavaScript"
	case LanguageTypeScript:
		return "TypeScript"
	default:
		return string(l)
	}
}

// ParseLanguage converts a string to a Language.
func ParseLanguage(s string) (Language, error) {
	for _, l := range Languages() {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown language %q (want javascript or typescript)", s)
}

// =============================================================================
// Framework
// =============================================================================

// Framework is the UI or server framework the generated config targets.
type Framework string

// Supported frameworks.
const (
	FrameworkReact  Framework = "react"
	FrameworkNext   Framework = "next.js"
	FrameworkNest   Framework = "nest.js"
	FrameworkSvelte Framework = "svelte"
	FrameworkNone   Framework = "none"
)

// Frameworks lists the selectable frameworks in display order.
func Frameworks() []Framework {
	return []Framework{FrameworkReact, FrameworkNext, FrameworkNest, FrameworkSvelte, FrameworkNone}
}

// ParseFramework converts a string to a Framework.
func ParseFramework(s string) (Framework, error) {
	for _, f := range Frameworks() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown framework %q (want one of react, next.js, nest.js, svelte, none)", s)
}

// =============================================================================
// Severity
// =============================================================================

// Severity controls whether and how a rule's violations are reported.
type Severity string

// Severity levels accepted by ESLint.
const (
	SeverityOff   Severity = "off"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Severities lists the severities in display order.
func Severities() []Severity {
	return []Severity{SeverityOff, SeverityWarn, SeverityError}
}

// ParseSeverity converts a string to a Severity.
// The numeric forms 0, 1 and 2 are accepted as aliases.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return SeverityOff, nil
	case "warn", "1":
		return SeverityWarn, nil
	case "error", "2":
		return SeverityError, nil
	default:
		return "", fmt.Errorf("unknown severity %q (want off, warn or error)", s)
	}
}

// =============================================================================
// Selection
// =============================================================================

// Selection holds the user's wizard choices.
// Language and Framework may be empty while nothing has been picked yet.
type Selection struct {
	Language    Language            `json:"language"`
	Framework   Framework           `json:"framework"`
	ToolVersion string              `json:"toolVersion"`
	Rules       map[string]Severity `json:"rules"`
}
