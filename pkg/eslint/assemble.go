package eslint

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fixed values written into every generated config.
const (
	RecommendedBase     = "eslint:recommended"
	TypeScriptParser    = "@typescript-eslint/parser"
	TypeScriptProject   = "./tsconfig.json"
	DefaultEcmaVersion  = 2023
	DefaultSourceType   = "module"
	typescriptBaseSet   = "plugin:@typescript-eslint/recommended"
	typescriptTypedSet  = "plugin:@typescript-eslint/recommended-requiring-type-checking"
	nextCoreWebVitals   = "next/core-web-vitals"
	reactRecommended    = "plugin:react/recommended"
	reactHooksRecommend = "plugin:react-hooks/recommended"
)

// Config is the generated ESLint configuration document.
type Config struct {
	Root          bool                `json:"root" yaml:"root"`
	Extends       []string            `json:"extends" yaml:"extends"`
	Parser        *string             `json:"parser" yaml:"parser"`
	ParserOptions ParserOptions       `json:"parserOptions" yaml:"parserOptions"`
	Plugins       []string            `json:"plugins" yaml:"plugins"`
	Rules         map[string]Severity `json:"rules" yaml:"rules"`
}

// ParserOptions configures the parser. Project is only set for TypeScript.
type ParserOptions struct {
	EcmaVersion int    `json:"ecmaVersion" yaml:"ecmaVersion"`
	SourceType  string `json:"sourceType" yaml:"sourceType"`
	Project     string `json:"project,omitempty" yaml:"project,omitempty"`
}

// Assemble maps a selection to a config document.
// The rules map is passed through untouched, unknown names included.
func Assemble(sel Selection) Config {
	cfg := Config{
		Root:    true,
		Extends: []string{RecommendedBase},
		ParserOptions: ParserOptions{
			EcmaVersion: DefaultEcmaVersion,
			SourceType:  DefaultSourceType,
		},
		Plugins: []string{},
		Rules:   sel.Rules,
	}

	if sel.Language == LanguageTypeScript {
		parser := TypeScriptParser
		cfg.Parser = &parser
		cfg.ParserOptions.Project = TypeScriptProject
		cfg.Extends = append(cfg.Extends, typescriptBaseSet, typescriptTypedSet)
	}

	switch sel.Framework {
	case FrameworkNext:
		cfg.Extends = append(cfg.Extends, nextCoreWebVitals)
	case FrameworkReact:
		cfg.Extends = append(cfg.Extends, reactRecommended, reactHooksRecommend)
	}

	return cfg
}

// Format selects the serialization of a config document.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat converts a string to a Format. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
	}
}

// Filename returns the conventional config file name for the format.
func (f Format) Filename() string {
	if f == FormatYAML {
		return ".eslintrc.yaml"
	}
	return ".eslintrc.json"
}

// Marshal renders the config as text.
// JSON output is indented with two spaces to match what editors show.
func Marshal(cfg Config, format Format) ([]byte, error) {
	if cfg.Rules == nil {
		cfg.Rules = map[string]Severity{}
	}

	switch format {
	case FormatJSON, "":
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode json: %w", err)
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Generate assembles and serializes in one step.
func Generate(sel Selection, format Format) (string, error) {
	out, err := Marshal(Assemble(sel), format)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
