// Package eslint assembles ESLint configuration documents from a wizard
// selection.
//
// The package is pure: Assemble maps a Selection to a Config without
// validating rule names or severities, and Marshal renders that Config as
// JSON or YAML text. Callers recompute the document on every render.
package eslint
