// Package toks provides an embeddable, rule-driven lexical tokenizer. Callers
// register recognizer rules (exact keywords, delimited regions, regular
// expression patterns, and ordered AND-sequences of sub-rules) on a Tokenizer
// and then call Tokenize to turn raw text into a sequence of typed tokens.
//
// Rules are tried in registration order, first match wins; composite rules
// back-track transactionally; input that no rule recognizes is swept up by a
// configurable fallback policy or reported as an error.
package toks

import "fmt"

// Kind is the tag stamped onto tokens by the rule that produced them. It is
// opaque to the engine; callers define whatever tags their grammar needs.
type Kind string

// DefaultKind is the kind given to fallback tokens when none has been set with
// Tokenizer.SetDefaultKind.
const DefaultKind Kind = "__default__"

// Token is a single lexeme read from input text along with the kind assigned
// by the rule that matched it and the 0-based line and column the lexeme
// started at. Tokens are immutable once produced.
type Token struct {
	// Kind is the tag of the rule that produced the token, or the
	// tokenizer's default kind for fallback tokens.
	Kind Kind

	// Lexeme is the captured text. For delimited regions this may omit the
	// delimiters depending on the rule's keep flags, so it is not
	// necessarily the exact source text spanned by the token.
	Lexeme string

	// Line is the 0-based line number the token started on.
	Line int

	// Column is the 0-based column the token started at.
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("(%s: %q @ %d:%d)", string(t.Kind), t.Lexeme, t.Line, t.Column)
}
