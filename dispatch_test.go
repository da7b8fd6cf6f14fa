package toks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_matchKeyword(t *testing.T) {
	testCases := []struct {
		name          string
		literal       string
		input         string
		expectMatch   bool
		expectLexeme  string
		expectConsume int
	}{
		{
			name:          "matches at start",
			literal:       "if",
			input:         "if x",
			expectMatch:   true,
			expectLexeme:  "if",
			expectConsume: 2,
		},
		{
			name:        "no match",
			literal:     "if",
			input:       "while x",
			expectMatch: false,
		},
		{
			name:        "case is not normalized",
			literal:     "if",
			input:       "IF x",
			expectMatch: false,
		},
		{
			name:        "literal longer than remaining input",
			literal:     "return",
			input:       "ret",
			expectMatch: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			c := newCursor(tc.input)
			r := Keyword("kw", tc.literal)

			lexeme, consumed, ok := matchKeyword(c, r)

			assert.Equal(tc.expectMatch, ok)
			if !tc.expectMatch {
				return
			}
			assert.Equal(tc.expectLexeme, lexeme)
			assert.Equal(tc.expectConsume, consumed)
			assert.Equal(0, c.off, "matcher must not move the cursor")
		})
	}
}

func Test_matchRegion(t *testing.T) {
	testCases := []struct {
		name          string
		begin         string
		end           string
		keepBegin     bool
		keepEnd       bool
		input         string
		expectMatch   bool
		expectLexeme  string
		expectConsume int
	}{
		{
			name:          "keep both delimiters",
			begin:         "/*",
			end:           "*/",
			keepBegin:     true,
			keepEnd:       true,
			input:         "/* hi */ rest",
			expectMatch:   true,
			expectLexeme:  "/* hi */",
			expectConsume: 8,
		},
		{
			name:          "strip both delimiters",
			begin:         "/*",
			end:           "*/",
			input:         "/* hi */ rest",
			expectMatch:   true,
			expectLexeme:  " hi ",
			expectConsume: 8,
		},
		{
			name:          "strip begin only",
			begin:         "/*",
			end:           "*/",
			keepEnd:       true,
			input:         "/* hi */",
			expectMatch:   true,
			expectLexeme:  " hi */",
			expectConsume: 8,
		},
		{
			name:          "strip end only",
			begin:         "/*",
			end:           "*/",
			keepBegin:     true,
			input:         "/* hi */",
			expectMatch:   true,
			expectLexeme:  "/* hi ",
			expectConsume: 8,
		},
		{
			name:        "wrong opener",
			begin:       "/*",
			end:         "*/",
			input:       "// hi */",
			expectMatch: false,
		},
		{
			name:        "unterminated region is a miss",
			begin:       "/*",
			end:         "*/",
			input:       "/* never ends",
			expectMatch: false,
		},
		{
			name:          "terminator search starts after the opener",
			begin:         `"`,
			end:           `"`,
			keepBegin:     true,
			keepEnd:       true,
			input:         `"" after`,
			expectMatch:   true,
			expectLexeme:  `""`,
			expectConsume: 2,
		},
		{
			name:          "empty body with strips",
			begin:         `"`,
			end:           `"`,
			input:         `""`,
			expectMatch:   true,
			expectLexeme:  "",
			expectConsume: 2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			c := newCursor(tc.input)
			r := Region("reg", tc.begin, tc.end, tc.keepBegin, tc.keepEnd)

			lexeme, consumed, ok := matchRegion(c, r)

			assert.Equal(tc.expectMatch, ok)
			if !tc.expectMatch {
				return
			}
			assert.Equal(tc.expectLexeme, lexeme)
			assert.Equal(tc.expectConsume, consumed, "consumed span must include both delimiters")
			assert.Equal(0, c.off, "matcher must not move the cursor")
		})
	}
}

func Test_matchPattern(t *testing.T) {
	testCases := []struct {
		name          string
		expr          string
		input         string
		expectMatch   bool
		expectLexeme  string
		expectConsume int
	}{
		{
			name:          "anchored-style match at cursor",
			expr:          `[0-9]+`,
			input:         "123abc",
			expectMatch:   true,
			expectLexeme:  "123",
			expectConsume: 3,
		},
		{
			name:        "no match anywhere",
			expr:        `[0-9]+`,
			input:       "abcdef",
			expectMatch: false,
		},
		{
			// deliberate quirk: an unanchored match past the cursor is
			// accepted, and the scan swallows the gap without a token for it
			name:          "match past the cursor consumes the gap",
			expr:          `[0-9]+`,
			input:         "ab12cd",
			expectMatch:   true,
			expectLexeme:  "12",
			expectConsume: 4,
		},
		{
			name:        "zero-length match is a miss",
			expr:        `x*`,
			input:       "yyy",
			expectMatch: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			c := newCursor(tc.input)
			r, err := Pattern("pat", tc.expr)
			assert.NoError(err)

			lexeme, consumed, ok := matchPattern(c, r)

			assert.Equal(tc.expectMatch, ok)
			if !tc.expectMatch {
				return
			}
			assert.Equal(tc.expectLexeme, lexeme)
			assert.Equal(tc.expectConsume, consumed)
		})
	}
}

func Test_Pattern_invalidExpr(t *testing.T) {
	assert := assert.New(t)

	_, err := Pattern("pat", "[unclosed")

	assert.Error(err)
}

func Test_matchSequence(t *testing.T) {
	num, err := Pattern("num", `[0-9]+`)
	if err != nil {
		t.Fatalf("compiling pattern: %v", err)
	}

	testCases := []struct {
		name          string
		subs          []Rule
		input         string
		expectMatch   bool
		expectLexeme  string
		expectConsume int
	}{
		{
			name:          "two keywords back to back",
			subs:          []Rule{Keyword("a", "foo"), Keyword("b", "bar")},
			input:         "foobar baz",
			expectMatch:   true,
			expectLexeme:  "foobar",
			expectConsume: 6,
		},
		{
			name:        "second sub-rule misses",
			subs:        []Rule{Keyword("a", "foo"), Keyword("b", "bar")},
			input:       "foobaz",
			expectMatch: false,
		},
		{
			name:          "mixed variants concatenate captured text",
			subs:          []Rule{Keyword("a", "#"), num},
			input:         "#42 rest",
			expectMatch:   true,
			expectLexeme:  "#42",
			expectConsume: 3,
		},
		{
			name: "region strips feed the concatenation but not the consumed span",
			subs: []Rule{
				Region("q", `"`, `"`, false, false),
				Keyword("colon", ":"),
			},
			input:         `"key": 1`,
			expectMatch:   true,
			expectLexeme:  "key:",
			expectConsume: 6,
		},
		{
			name: "nested sequences",
			subs: []Rule{
				Sequence("inner", Keyword("a", "a"), Keyword("b", "b")),
				Keyword("c", "c"),
			},
			input:         "abc",
			expectMatch:   true,
			expectLexeme:  "abc",
			expectConsume: 3,
		},
		{
			name:        "empty sequence never matches",
			subs:        nil,
			input:       "anything",
			expectMatch: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			c := newCursor(tc.input)
			r := Sequence("seq", tc.subs...)

			lexeme, consumed, ok := matchSequence(c, r)

			assert.Equal(tc.expectMatch, ok)
			assert.Equal(0, c.off, "cursor must be back at the attempt position")
			assert.Len(c.saved, 0, "no dangling saved positions")
			if !tc.expectMatch {
				return
			}
			assert.Equal(tc.expectLexeme, lexeme)
			assert.Equal(tc.expectConsume, consumed)
		})
	}
}

func Test_matchSequence_rollbackMidway(t *testing.T) {
	assert := assert.New(t)

	// first sub-rule consumes, second fails; the failed attempt must leave
	// no partial consumption behind
	c := newCursor("foo!bar")
	c.advance(0)

	r := Sequence("seq",
		Keyword("a", "foo"),
		Keyword("b", "???"),
	)

	_, _, ok := matchSequence(c, r)

	assert.False(ok)
	assert.Equal(0, c.off)
	assert.Equal(0, c.line)
	assert.Equal(0, c.col)
}

func Test_dispatch_coversAllRuleTypes(t *testing.T) {
	assert := assert.New(t)

	// the table is populated at package init; every variant must have an
	// entry there or the scan loop would nil-deref on a registered rule
	for _, typ := range []ruleType{ruleKeyword, ruleRegion, rulePattern, ruleSequence} {
		assert.NotNil(dispatch[typ], typ.String())
	}

	// a sequence over every other variant exercises table re-entry
	pat, err := Pattern("num", "[0-9]+")
	if !assert.NoError(err) {
		return
	}
	r := Sequence("all",
		Keyword("kw", "v"),
		pat,
		Region("str", `"`, `"`, false, false),
	)

	c := newCursor(`v1"x"`)
	lexeme, consumed, ok := dispatch[r.typ](c, r)

	assert.True(ok)
	assert.Equal(`v1x`, lexeme)
	assert.Equal(5, consumed)
}
