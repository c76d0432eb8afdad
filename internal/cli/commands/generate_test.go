package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/pkg/eslint"
)

func TestGenerateCommand_JSON(t *testing.T) {
	out, _, err := execute(t, NewGenerateCommand(),
		"-l", "typescript", "--framework", "react",
		"-r", "no-console=warn", "-r", "eqeqeq=2", "-r", "react/jsx-key=off")
	require.NoError(t, err)

	var cfg eslint.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg), out)

	assert.True(t, cfg.Root)
	require.NotNil(t, cfg.Parser)
	assert.Equal(t, eslint.TypeScriptParser, *cfg.Parser)
	assert.Contains(t, cfg.Extends, "plugin:react/recommended")
	assert.Equal(t, map[string]eslint.Severity{
		"no-console":    eslint.SeverityWarn,
		"eqeqeq":        eslint.SeverityError,
		"react/jsx-key": eslint.SeverityOff,
	}, cfg.Rules)
}

func TestGenerateCommand_YAML(t *testing.T) {
	out, _, err := execute(t, NewGenerateCommand(), "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "root: true")
	assert.Contains(t, out, "parser: null")
	assert.Contains(t, out, "rules: {}")
}

func TestGenerateCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "language", args: []string{"-l", "cobol"}, wantErr: "unknown language"},
		{name: "framework", args: []string{"--framework", "ember"}, wantErr: "unknown framework"},
		{name: "rule without severity", args: []string{"-r", "eqeqeq"}, wantErr: "want name=severity"},
		{name: "rule without name", args: []string{"-r", "=warn"}, wantErr: "want name=severity"},
		{name: "severity", args: []string{"-r", "eqeqeq=fatal"}, wantErr: "rule eqeqeq"},
		{name: "format", args: []string{"-f", "toml"}, wantErr: "unknown format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, NewGenerateCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
