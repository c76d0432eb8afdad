package fetch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strict json passes through",
			in:   `{"a": 1, "b": [true, null]}`,
			want: `{"a": 1, "b": [true, null]}`,
		},
		{
			name: "single quotes",
			in:   `{'a': 'it\'s'}`,
			want: `{"a": "it's"}`,
		},
		{
			name: "unquoted keys",
			in:   `{type: "problem", docs: {recommended: true}}`,
			want: `{"type": "problem", "docs": {"recommended": true}}`,
		},
		{
			name: "trailing commas",
			in:   "{\n  a: [1, 2,],\n  b: {c: 3,},\n}",
			want: "{\n  \"a\": [1, 2],\n  \"b\": {\"c\": 3}\n}",
		},
		{
			name: "comments",
			in:   "{ /* block */ a: 1, // line\n b: 2 }",
			want: "{  \"a\": 1, \n \"b\": 2 }",
		},
		{
			name: "template literal",
			in:   "{ url: `https://eslint.org/docs/rules/x` }",
			want: `{ "url": "https://eslint.org/docs/rules/x" }`,
		},
		{
			name: "double quotes inside single quotes",
			in:   `{ a: 'say "hi"' }`,
			want: `{ "a": "say \"hi\"" }`,
		},
		{
			name: "identifier values become null",
			in:   `{ schema: SCHEMA, messages: shared.messages, x: undefined }`,
			want: `{ "schema": null, "messages": null, "x": null }`,
		},
		{
			name: "numbers",
			in:   `{ min: -1, max: +2, ratio: 0.5e1 }`,
			want: `{ "min": -1, "max": 2, "ratio": 0.5e1 }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, json.Valid([]byte(got)))
		})
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"call expression", `{ schema: getSchema() }`},
		{"spread", `{ ...base, a: 1 }`},
		{"unterminated string", `{ a: 'oops }`},
		{"unterminated comment", `{ a: 1 /* }`},
		{"function value", `{ create(context) { return {} } }`},
		{"leading dot number", `{ ratio: .5 }`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			assert.ErrorIs(t, err, ErrParse)
		})
	}
}

func TestObjectKeys_PreservesOrder(t *testing.T) {
	keys, err := objectKeys(`{"zeta": 1, "alpha": {"nested": true}, "mid": [1, 2]}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	_, err = objectKeys(`[1, 2]`)
	assert.ErrorIs(t, err, ErrParse)
}
