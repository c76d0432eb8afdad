package commands

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/eslintcraft/internal/cli/config"
)

// upstreamFiles is a miniature copy of the ESLint and plugin repositories.
var upstreamFiles = map[string]string{
	"/eslint/main/eslint-all.js": `module.exports = Object.freeze({
    rules: Object.freeze({
        "no-unused-vars": "error",
        eqeqeq: "error",
    })
});`,
	"/react/index.js": `module.exports = {
  'jsx-key': require('./jsx-key'),
  'no-unused-vars': require('./no-unused-vars'),
};`,
	"/tags": `[{"name":"v9.1.0"},{"name":"v9.1.0-rc.0"},{"name":"v8.57.0"},{"name":"v9.0.0"}]`,
	"/eslint/v9.1.0/packages/js/src/rules/index.js": `module.exports = new LazyLoadingRuleMap(Object.entries({
    eqeqeq: () => require("./eqeqeq"),
    "no-var": () => require("./no-var"),
}));`,
	"/eslint/v9.1.0/packages/js/src/rules/eqeqeq.js": `module.exports = {
    meta: {
        type: "suggestion",
        docs: {
            description: "Require the use of === and !==",
            recommended: false,
        },
        schema: [],
    },
};`,
}

// setupUpstream serves upstreamFiles and loads a config pointing at it.
func setupUpstream(t *testing.T) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := upstreamFiles[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "eslintcraft.yaml")
	yaml := fmt.Sprintf(`log_level: error
fetch:
  cache_path: ":memory:"
  rate_limit: 0
sources:
  core_rules_url: %[1]s/eslint/main/eslint-all.js
  tags_url: %[1]s/tags
  raw_base_url: %[1]s/eslint
  index_paths:
    - packages/js/src/rules/index.js
  rule_dirs:
    - packages/js/src/rules/
  plugins:
    - name: react
      url: %[1]s/react/index.js
`, srv.URL)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0600))

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig(path, nil)
	require.NoError(t, err)
}

// execute runs cmd with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
