package toks

import "strings"

// matchFunc attempts to match one rule at the cursor's current position. On
// success it returns the captured lexeme and the number of bytes the scan
// must advance past; the two differ for region rules with keep flags unset
// and for pattern rules that matched past the cursor. A matchFunc never
// leaves the cursor moved, whether it matches or not; the caller performs the
// advance.
type matchFunc func(c *cursor, r Rule) (lexeme string, consumed int, ok bool)

// dispatch maps each rule variant to its matching algorithm. Keeping the
// algorithms out of the scan loop means a new variant only needs a new entry
// here, plus its constructor in rule.go.
//
// The entries are filled in at init because matchSequence re-enters the table
// for its sub-rules; a map literal would make the variable depend on itself.
var dispatch map[ruleType]matchFunc

func init() {
	dispatch = map[ruleType]matchFunc{
		ruleKeyword:  matchKeyword,
		ruleRegion:   matchRegion,
		rulePattern:  matchPattern,
		ruleSequence: matchSequence,
	}
}

func matchKeyword(c *cursor, r Rule) (string, int, bool) {
	if !c.startsWith(r.keyword) {
		return "", 0, false
	}
	return r.keyword, len(r.keyword), true
}

func matchRegion(c *cursor, r Rule) (string, int, bool) {
	if !c.startsWith(r.begin) {
		return "", 0, false
	}

	// the terminator search starts just past the opener so the two cannot
	// overlap
	endAt := c.find(r.end, len(r.begin))
	if endAt < 0 {
		// unterminated region; plain miss, some later rule may still want
		// the opener
		return "", 0, false
	}

	span := endAt + len(r.end)
	lexeme := c.slice(0, span)

	if !r.keepBegin {
		lexeme = lexeme[len(r.begin):]
	}
	if !r.keepEnd {
		lexeme = lexeme[:len(lexeme)-len(r.end)]
	}

	return lexeme, span, true
}

func matchPattern(c *cursor, r Rule) (string, int, bool) {
	loc := r.pattern.FindStringIndex(c.rest())
	if loc == nil || loc[0] == loc[1] {
		return "", 0, false
	}

	// NOTE: the match is not required to begin at the cursor. A later match
	// is accepted as-is and the scan consumes everything up through its end,
	// emitting no token for the skipped prefix. Load-bearing quirk; see the
	// pattern tests before changing it.
	lexeme := c.rest()[loc[0]:loc[1]]
	return lexeme, loc[1], true
}

func matchSequence(c *cursor, r Rule) (string, int, bool) {
	if len(r.subs) == 0 {
		return "", 0, false
	}

	c.save()

	var sb strings.Builder
	total := 0
	for _, sub := range r.subs {
		lexeme, consumed, ok := dispatch[sub.typ](c, sub)
		if !ok {
			c.restore()
			return "", 0, false
		}
		sb.WriteString(lexeme)
		c.advance(consumed)
		total += consumed
	}

	// rewind so the caller sees the cursor untouched and performs the one
	// true advance itself
	c.restore()

	return sb.String(), total, true
}
