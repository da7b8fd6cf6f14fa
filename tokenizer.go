package toks

import "strings"

// FallbackMode selects what the scan loop does with input that no registered
// rule recognizes.
type FallbackMode int

const (
	// WordScan consumes the unrecognized input up to the next whitespace or
	// end of input and emits it as one token of the default kind.
	WordScan FallbackMode = iota

	// MatchSeekingScan consumes the unrecognized input one character at a
	// time, retrying every rule after each character. If a rule starts
	// matching, the text consumed so far is emitted as a default-kind token
	// immediately before the matched token, preserving input order.
	MatchSeekingScan
)

// Tokenizer turns raw text into a sequence of typed tokens by trying a
// priority-ordered list of registered rules at each scan position. Priority
// is strictly registration order: first registered, first tried, first
// accepted. There is no longest-match tie-breaking.
//
// A Tokenizer is built once and may be reused across any number of Tokenize
// calls; no state leaks between calls. Rules are read-only during scanning,
// so concurrent Tokenize calls on the same Tokenizer are safe.
type Tokenizer struct {
	rules       []Rule
	defaultKind Kind
	fallback    FallbackMode
}

// New returns a Tokenizer with no rules, the WordScan fallback, and
// DefaultKind as the fallback token kind.
func New() *Tokenizer {
	return &Tokenizer{
		defaultKind: DefaultKind,
		fallback:    WordScan,
	}
}

// Register appends a rule to the tokenizer's priority-ordered rule list.
func (t *Tokenizer) Register(r Rule) {
	t.rules = append(t.rules, r)
}

// AddKeyword registers an exact-literal rule. See Keyword.
func (t *Tokenizer) AddKeyword(kind Kind, literal string) {
	t.Register(Keyword(kind, literal))
}

// AddRegion registers a delimited-region rule. See Region.
func (t *Tokenizer) AddRegion(kind Kind, begin, end string, keepBegin, keepEnd bool) {
	t.Register(Region(kind, begin, end, keepBegin, keepEnd))
}

// AddPattern registers a regular-expression rule. See Pattern. The expression
// is compiled immediately and an invalid one is reported here, not at scan
// time.
func (t *Tokenizer) AddPattern(kind Kind, expr string) error {
	r, err := Pattern(kind, expr)
	if err != nil {
		return err
	}
	t.Register(r)
	return nil
}

// AddSequence registers an ordered-AND rule over the given sub-rules. See
// Sequence.
func (t *Tokenizer) AddSequence(kind Kind, subs ...Rule) {
	t.Register(Sequence(kind, subs...))
}

// SetDefaultKind sets the kind stamped onto fallback tokens.
func (t *Tokenizer) SetDefaultKind(kind Kind) {
	t.defaultKind = kind
}

// SetFallbackMode selects the strategy for input no rule recognizes.
func (t *Tokenizer) SetFallbackMode(mode FallbackMode) {
	t.fallback = mode
}

// Tokenize scans text and returns the tokens produced, with unrecognized
// spans swept into default-kind tokens per the configured fallback mode.
//
// The call is all-or-nothing: on error the returned slice is nil, never a
// partial sequence.
//
// There is no internal bound on scan cost. A pattern rule or an unterminated
// region searches the remaining buffer on every attempt, so adversarial
// input can cost O(n) per attempt and O(n²) overall; callers needing bounded
// time must cap input size themselves.
func (t *Tokenizer) Tokenize(text string) ([]Token, error) {
	return t.tokenize(text, true)
}

// TokenizeStrict scans text with the fallback policy disabled: the first
// position where no registered rule matches fails the whole call with an
// *Error carrying that position.
func (t *Tokenizer) TokenizeStrict(text string) ([]Token, error) {
	return t.tokenize(text, false)
}

func (t *Tokenizer) tokenize(text string, allowDefault bool) ([]Token, error) {
	c := newCursor(text)
	var tokens []Token

	for !c.eof() {
		c.skipWhitespace()
		if c.eof() {
			break
		}

		if tok, ok := t.tryRules(c); ok {
			tokens = append(tokens, tok)
			continue
		}

		if !allowDefault {
			return nil, &Error{Line: c.line, Column: c.col}
		}

		fbLine, fbCol := c.line, c.col
		var sb strings.Builder

		if t.fallback == WordScan {
			for !c.eof() && !c.isWhitespace() {
				sb.WriteByte(c.peek())
				c.advance(1)
			}
			tokens = append(tokens, Token{Kind: t.defaultKind, Lexeme: sb.String(), Line: fbLine, Column: fbCol})
			continue
		}

		// MatchSeekingScan: eat one character at a time, retrying all rules
		// after each. The accumulated text goes out just before whatever
		// finally matched.
		flushed := false
		for !c.eof() && !c.isWhitespace() {
			sb.WriteByte(c.peek())
			c.advance(1)

			if tok, ok := t.tryRules(c); ok {
				tokens = append(tokens,
					Token{Kind: t.defaultKind, Lexeme: sb.String(), Line: fbLine, Column: fbCol},
					tok,
				)
				flushed = true
				break
			}
		}

		if !flushed {
			if sb.Len() == 0 {
				// not reachable: whitespace was skipped before the seek
				// loop, so it always consumes at least one byte
				return nil, &Error{Line: c.line, Column: c.col}
			}
			tokens = append(tokens, Token{Kind: t.defaultKind, Lexeme: sb.String(), Line: fbLine, Column: fbCol})
		}
	}

	return tokens, nil
}

// tryRules attempts every registered rule in priority order at the cursor's
// current position. On the first success it advances the cursor past the
// consumed span and returns the finished token.
func (t *Tokenizer) tryRules(c *cursor) (Token, bool) {
	for _, r := range t.rules {
		line, col := c.line, c.col
		lexeme, consumed, ok := dispatch[r.typ](c, r)
		if !ok {
			continue
		}
		c.advance(consumed)
		return Token{Kind: r.kind, Lexeme: lexeme, Line: line, Column: col}, true
	}
	return Token{}, false
}
