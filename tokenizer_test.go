package toks

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Tokenize_ruleSequences(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(tk *Tokenizer)
		input     string
		expect    []Token
		expectErr bool
	}{
		{
			name:   "empty input",
			setup:  func(tk *Tokenizer) {},
			input:  "",
			expect: nil,
		},
		{
			name:   "whitespace-only input",
			setup:  func(tk *Tokenizer) {},
			input:  " \t\n ",
			expect: nil,
		},
		{
			name: "keywords and whitespace",
			setup: func(tk *Tokenizer) {
				tk.AddKeyword("if", "if")
				tk.AddKeyword("lparen", "(")
				tk.AddKeyword("rparen", ")")
			},
			input: "if ( )",
			expect: []Token{
				{Kind: "if", Lexeme: "if", Line: 0, Column: 0},
				{Kind: "lparen", Lexeme: "(", Line: 0, Column: 3},
				{Kind: "rparen", Lexeme: ")", Line: 0, Column: 5},
			},
		},
		{
			name: "registration order wins over later rules",
			setup: func(tk *Tokenizer) {
				tk.AddKeyword("first", "foo")
				tk.AddKeyword("second", "foo")
				tk.AddKeyword("longer", "foobar")
			},
			input: "foobar",
			expect: []Token{
				// no longest-match: the first-registered rule claims "foo"
				// and the tail falls back
				{Kind: "first", Lexeme: "foo", Line: 0, Column: 0},
				{Kind: DefaultKind, Lexeme: "bar", Line: 0, Column: 3},
			},
		},
		{
			name: "word-scan fallback splits on whitespace",
			setup: func(tk *Tokenizer) {
				tk.SetDefaultKind("id")
			},
			input: "foo bar",
			expect: []Token{
				{Kind: "id", Lexeme: "foo", Line: 0, Column: 0},
				{Kind: "id", Lexeme: "bar", Line: 0, Column: 4},
			},
		},
		{
			name: "match-seeking fallback flushes before the match",
			setup: func(tk *Tokenizer) {
				tk.SetDefaultKind("id")
				tk.SetFallbackMode(MatchSeekingScan)
				tk.AddKeyword("eq", "=")
			},
			input: "x=1",
			expect: []Token{
				{Kind: "id", Lexeme: "x", Line: 0, Column: 0},
				{Kind: "eq", Lexeme: "=", Line: 0, Column: 1},
				{Kind: "id", Lexeme: "1", Line: 0, Column: 2},
			},
		},
		{
			name: "match-seeking fallback stops at whitespace",
			setup: func(tk *Tokenizer) {
				tk.SetDefaultKind("id")
				tk.SetFallbackMode(MatchSeekingScan)
				tk.AddKeyword("eq", "=")
			},
			input: "abc =",
			expect: []Token{
				{Kind: "id", Lexeme: "abc", Line: 0, Column: 0},
				{Kind: "eq", Lexeme: "=", Line: 0, Column: 4},
			},
		},
		{
			name: "multi-line region tracks line and column",
			setup: func(tk *Tokenizer) {
				tk.AddRegion("comment", "/*", "*/", true, true)
				tk.AddKeyword("kw", "end")
			},
			input: "/* a\nbc */ end",
			expect: []Token{
				{Kind: "comment", Lexeme: "/* a\nbc */", Line: 0, Column: 0},
				{Kind: "kw", Lexeme: "end", Line: 1, Column: 6},
			},
		},
		{
			name: "pattern match past the cursor swallows the gap",
			setup: func(tk *Tokenizer) {
				assert.NoError(t, tk.AddPattern("num", `[0-9]+`))
			},
			input: "ab12",
			expect: []Token{
				// "ab" is consumed without a token of its own; flagged
				// behavior, not a bug
				{Kind: "num", Lexeme: "12", Line: 0, Column: 0},
			},
		},
		{
			name: "sequence rule emits one token with its own kind",
			setup: func(tk *Tokenizer) {
				tk.AddSequence("pair",
					Keyword("open", "<"),
					Keyword("close", ">"),
				)
			},
			input: "<>",
			expect: []Token{
				{Kind: "pair", Lexeme: "<>", Line: 0, Column: 0},
			},
		},
		{
			name: "failed sequence falls through to later rules",
			setup: func(tk *Tokenizer) {
				tk.AddSequence("pair",
					Keyword("open", "<"),
					Keyword("close", ">"),
				)
				tk.AddKeyword("lt", "<")
			},
			input: "<x",
			expect: []Token{
				{Kind: "lt", Lexeme: "<", Line: 0, Column: 0},
				{Kind: DefaultKind, Lexeme: "x", Line: 0, Column: 1},
			},
		},
		{
			name: "crlf input is folded before scanning",
			setup: func(tk *Tokenizer) {
				tk.SetDefaultKind("w")
			},
			input: "a\r\nb",
			expect: []Token{
				{Kind: "w", Lexeme: "a", Line: 0, Column: 0},
				{Kind: "w", Lexeme: "b", Line: 1, Column: 0},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			tk := New()
			tc.setup(tk)

			actual, err := tk.Tokenize(tc.input)
			if tc.expectErr {
				assert.Error(err)
				assert.Nil(actual)
				return
			}
			assert.NoError(err)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_TokenizeStrict_errors(t *testing.T) {
	testCases := []struct {
		name      string
		setup     func(tk *Tokenizer)
		input     string
		expectErr *Error
		expect    []Token
	}{
		{
			name:      "nothing matches at the very start",
			setup:     func(tk *Tokenizer) {},
			input:     "@@@",
			expectErr: &Error{Line: 0, Column: 0},
		},
		{
			name: "error position is where matching stopped",
			setup: func(tk *Tokenizer) {
				tk.AddKeyword("a", "aa")
			},
			input:     "aa\naa @@",
			expectErr: &Error{Line: 1, Column: 3},
		},
		{
			name: "fully recognized input still succeeds",
			setup: func(tk *Tokenizer) {
				tk.AddKeyword("a", "aa")
			},
			input: "aa aa",
			expect: []Token{
				{Kind: "a", Lexeme: "aa", Line: 0, Column: 0},
				{Kind: "a", Lexeme: "aa", Line: 0, Column: 3},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			tk := New()
			tc.setup(tk)

			actual, err := tk.TokenizeStrict(tc.input)

			if tc.expectErr != nil {
				assert.Nil(actual, "no partial token sequence on error")
				var tokErr *Error
				if assert.ErrorAs(err, &tokErr) {
					assert.Equal(tc.expectErr.Line, tokErr.Line, "error line")
					assert.Equal(tc.expectErr.Column, tokErr.Column, "error column")
				}
				return
			}

			assert.NoError(err)
			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_Tokenize_idempotent(t *testing.T) {
	assert := assert.New(t)

	build := func() *Tokenizer {
		tk := New()
		tk.SetDefaultKind("id")
		tk.SetFallbackMode(MatchSeekingScan)
		tk.AddKeyword("eq", "=")
		tk.AddRegion("str", `"`, `"`, false, false)
		if err := tk.AddPattern("num", `[0-9]+`); err != nil {
			t.Fatalf("compiling pattern: %v", err)
		}
		return tk
	}

	input := `x="hi" y=42`

	first, err := build().Tokenize(input)
	assert.NoError(err)

	// same tokenizer re-run, and a freshly built identical one, must agree
	reused := build()
	second, err := reused.Tokenize(input)
	assert.NoError(err)
	third, err := reused.Tokenize(input)
	assert.NoError(err)

	assert.Equal(first, second)
	assert.Equal(second, third)
}

func Test_Tokenize_adversarialUnterminatedRegions(t *testing.T) {
	assert := assert.New(t)

	// every position starts a region opener that never terminates, forcing a
	// full-buffer terminator search per attempt. Quadratic cost is accepted;
	// this pins down that the output is still correct.
	tk := New()
	tk.SetDefaultKind("junk")
	tk.AddRegion("block", "(", ")", true, true)

	input := strings.Repeat("(", 200)

	actual, err := tk.Tokenize(input)

	assert.NoError(err)
	assert.Equal([]Token{
		{Kind: "junk", Lexeme: input, Line: 0, Column: 0},
	}, actual)
}

func Test_Tokenize_concurrentScansShareRules(t *testing.T) {
	assert := assert.New(t)

	tk := New()
	tk.SetDefaultKind("id")
	tk.AddKeyword("eq", "=")

	input := "a = b"
	expect := []Token{
		{Kind: "id", Lexeme: "a", Line: 0, Column: 0},
		{Kind: "eq", Lexeme: "=", Line: 0, Column: 2},
		{Kind: "id", Lexeme: "b", Line: 0, Column: 4},
	}

	results := make(chan []Token, 8)
	for i := 0; i < 8; i++ {
		go func() {
			toks, err := tk.Tokenize(input)
			if err != nil {
				toks = nil
			}
			results <- toks
		}()
	}

	for i := 0; i < 8; i++ {
		assert.Equal(expect, <-results)
	}
}
