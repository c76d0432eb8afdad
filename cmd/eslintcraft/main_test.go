package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/internal/cli"
	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "eslintcraft v"+cli.Version)
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "eslintcraft "+cli.Version)
	assert.Contains(t, out, "commit "+cli.GitCommit)
}

func TestHelpCommand(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"rules", "versions", "generate", "serve", "completion"} {
		assert.Contains(t, out, expected)
	}
}

func TestGenerateThroughRoot(t *testing.T) {
	out, err := run(t, "generate", "--language", "typescript", "--rule", "eqeqeq=warn")
	require.NoError(t, err)
	assert.Contains(t, out, `"parser": "@typescript-eslint/parser"`)
	assert.Contains(t, out, `"eqeqeq": "warn"`)
}

func TestInvalidConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eslintcraft.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0600))

	_, err := run(t, "--config", path, "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestCompletionCommand(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "eslintcraft"), "completion script should name the command")
}
