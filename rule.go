package toks

import (
	"fmt"
	"regexp"
)

// ruleType discriminates the closed set of rule variants. Adding a variant
// means adding a constant here and a match algorithm in the dispatch table;
// the scan loop itself never changes.
type ruleType int

const (
	ruleKeyword ruleType = iota
	ruleRegion
	rulePattern
	ruleSequence
)

func (rt ruleType) String() string {
	switch rt {
	case ruleKeyword:
		return "keyword"
	case ruleRegion:
		return "region"
	case rulePattern:
		return "pattern"
	case ruleSequence:
		return "sequence"
	default:
		return fmt.Sprintf("ruleType(%d)", int(rt))
	}
}

// Rule is one recognizer registered on a Tokenizer: a strategy that may match
// a token at the current scan position, tagged with the Kind it stamps onto
// tokens it produces. Rules are immutable once constructed; the same Rule
// value may be registered on any number of Tokenizers.
//
// Rule is a tagged union over the four variants. Only the fields relevant to
// its variant are ever set; the zero Rule is a keyword rule matching the empty
// string and should not be used.
type Rule struct {
	typ  ruleType
	kind Kind

	// keyword variant
	keyword string

	// region variant
	begin     string
	end       string
	keepBegin bool
	keepEnd   bool

	// pattern variant
	pattern *regexp.Regexp

	// sequence variant; order is fixed at construction
	subs []Rule
}

// Kind returns the tag the rule stamps onto tokens it produces.
func (r Rule) Kind() Kind {
	return r.kind
}

// Keyword returns a rule that matches iff the input at the scan position
// starts with the exact literal. No case folding is performed.
func Keyword(kind Kind, literal string) Rule {
	return Rule{typ: ruleKeyword, kind: kind, keyword: literal}
}

// Region returns a rule matching a delimited span such as a comment or string
// literal: the input must start with begin, and end must occur somewhere
// after it. An unterminated region is an ordinary miss, not an error.
//
// keepBegin and keepEnd control independently whether the delimiters appear
// in the token's lexeme. The scan always advances past the entire region
// including both delimiters regardless of the keep flags.
func Region(kind Kind, begin, end string, keepBegin, keepEnd bool) Rule {
	return Rule{
		typ:       ruleRegion,
		kind:      kind,
		begin:     begin,
		end:       end,
		keepBegin: keepBegin,
		keepEnd:   keepEnd,
	}
}

// Pattern returns a rule matching the given regular expression against the
// remaining input. The search is unanchored: a match that begins past the
// scan position is still accepted, and the intervening characters are
// consumed without producing a token of their own. Zero-length matches are
// treated as misses.
//
// The expression is compiled immediately; an invalid expression is an error.
func Pattern(kind Kind, expr string) (Rule, error) {
	compiled, err := regexp.Compile(expr)
	if err != nil {
		return Rule{}, fmt.Errorf("cannot compile regex: %w", err)
	}
	return Rule{typ: rulePattern, kind: kind, pattern: compiled}, nil
}

// Sequence returns a rule that matches iff every sub-rule matches in order,
// each picking up exactly where the previous one left off. If any sub-rule
// misses, the whole attempt is rolled back and the scan position is exactly
// what it was before the attempt. On success the token's lexeme is the
// concatenation of each sub-rule's captured text, and the sequence's own kind
// overrides the kinds of its parts. Sub-rules may themselves be sequences,
// to any depth.
func Sequence(kind Kind, subs ...Rule) Rule {
	owned := make([]Rule, len(subs))
	copy(owned, subs)
	return Rule{typ: ruleSequence, kind: kind, subs: owned}
}
