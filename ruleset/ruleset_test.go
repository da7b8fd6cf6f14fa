package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	toks "github.com/HelifeWasTaken/Toks"
	"github.com/stretchr/testify/assert"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing test file %q: %v", name, err)
	}
	return path
}

func Test_LoadRuleSetFile(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		expectErr   string
		expectKinds []toks.Kind
	}{
		{
			name: "all rule variants",
			content: `format = "toks"
type = "rules"
default-kind = "id"
fallback = "seek"

[[rule]]
type = "keyword"
kind = "eq"
keyword = "="

[[rule]]
type = "region"
kind = "comment"
begin = "/*"
end = "*/"
keep-begin = true
keep-end = true

[[rule]]
type = "pattern"
kind = "int"
pattern = '[0-9]+'

[[rule]]
type = "sequence"
kind = "tag"

	[[rule.part]]
	type = "keyword"
	keyword = "<"

	[[rule.part]]
	type = "pattern"
	pattern = '[a-z]+'

	[[rule.part]]
	type = "keyword"
	keyword = ">"
`,
			expectKinds: []toks.Kind{"eq", "comment", "int", "tag"},
		},
		{
			name: "missing kind",
			content: `format = "toks"
type = "rules"

[[rule]]
type = "keyword"
keyword = "="
`,
			expectErr: "rule[0]: kind: must not be empty",
		},
		{
			name: "unknown rule type",
			content: `format = "toks"
type = "rules"

[[rule]]
type = "glob"
kind = "x"
`,
			expectErr: "rule[0]: type: must be one of",
		},
		{
			name: "bad pattern is caught at load time",
			content: `format = "toks"
type = "rules"

[[rule]]
type = "pattern"
kind = "x"
pattern = "[unclosed"
`,
			expectErr: "rule[0]: pattern:",
		},
		{
			name: "region without end",
			content: `format = "toks"
type = "rules"

[[rule]]
type = "region"
kind = "x"
begin = "/*"
`,
			expectErr: "rule[0]: end: must not be empty",
		},
		{
			name: "sequence without parts",
			content: `format = "toks"
type = "rules"

[[rule]]
type = "sequence"
kind = "x"
`,
			expectErr: "rule[0]: sequence: must have at least one part",
		},
		{
			name: "bad fallback value",
			content: `format = "toks"
type = "rules"
fallback = "panic"
`,
			expectErr: "fallback: must be one of 'word' or 'seek'",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			path := writeTestFile(t, t.TempDir(), "rules.tkr", tc.content)

			rs, err := LoadRuleSetFile(path)

			if tc.expectErr != "" {
				if assert.Error(err) {
					assert.Contains(err.Error(), tc.expectErr)
				}
				return
			}
			assert.NoError(err)

			actualKinds := make([]toks.Kind, len(rs.Rules))
			for i := range rs.Rules {
				actualKinds[i] = rs.Rules[i].Kind()
			}
			assert.Equal(tc.expectKinds, actualKinds)
		})
	}
}

func Test_LoadBundle_manifest(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeTestFile(t, dir, "keywords.tkr", `format = "toks"
type = "rules"

[[rule]]
type = "keyword"
kind = "eq"
keyword = "="
`)
	writeTestFile(t, dir, "literals.tkr", `format = "toks"
type = "rules"
default-kind = "id"

[[rule]]
type = "pattern"
kind = "int"
pattern = '[0-9]+'
`)
	manifest := writeTestFile(t, dir, "grammar.tkr", `format = "toks"
type = "manifest"
files = ["keywords.tkr", "literals.tkr"]
`)

	rs, err := LoadBundle(manifest)

	assert.NoError(err)
	assert.Equal(toks.Kind("id"), rs.DefaultKind)
	assert.Len(rs.Rules, 2)
	assert.Equal(toks.Kind("eq"), rs.Rules[0].Kind(), "manifest inclusion order sets rule priority")
	assert.Equal(toks.Kind("int"), rs.Rules[1].Kind())
}

func Test_LoadBundle_circularManifest(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	writeTestFile(t, dir, "a.tkr", `format = "toks"
type = "manifest"
files = ["b.tkr"]
`)
	b := writeTestFile(t, dir, "b.tkr", `format = "toks"
type = "manifest"
files = ["a.tkr"]
`)

	_, err := LoadBundle(b)

	assert.ErrorIs(err, ErrManifestCircularRef)
}

func Test_LoadBundle_wrongFormat(t *testing.T) {
	assert := assert.New(t)

	path := writeTestFile(t, t.TempDir(), "rules.tkr", `format = "TUNA"
type = "rules"
`)

	_, err := LoadBundle(path)

	assert.Error(err)
	assert.Contains(err.Error(), `'format = "TOKS"'`)
}

func Test_RuleSet_Tokenizer(t *testing.T) {
	assert := assert.New(t)

	path := writeTestFile(t, t.TempDir(), "rules.tkr", `format = "toks"
type = "rules"
default-kind = "id"
fallback = "seek"

[[rule]]
type = "keyword"
kind = "eq"
keyword = "="

[[rule]]
type = "region"
kind = "str"
begin = '"'
end = '"'
`)

	rs, err := LoadRuleSetFile(path)
	assert.NoError(err)

	tk := rs.Tokenizer()
	actual, err := tk.Tokenize(`x="hi"`)

	assert.NoError(err)
	assert.Equal([]toks.Token{
		{Kind: "id", Lexeme: "x", Line: 0, Column: 0},
		{Kind: "eq", Lexeme: "=", Line: 0, Column: 1},
		{Kind: "str", Lexeme: "hi", Line: 0, Column: 2},
	}, actual)
}
