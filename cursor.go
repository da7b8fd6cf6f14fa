package toks

import "strings"

// position is one saved cursor state. Offsets index bytes in the normalized
// buffer; the engine is ASCII-oriented, per its whitespace rules.
type position struct {
	off  int
	line int
	col  int
}

// cursor owns the normalized text buffer and all positional bookkeeping for a
// single Tokenize call. The buffer is normalized once at construction, every
// "\r\n" and bare "\r" folded to "\n", and treated as immutable afterwards.
//
// A cursor's offset only ever moves forward except when an explicitly saved
// position is restored, so rules cannot accidentally rewind the scan.
type cursor struct {
	buf  string
	off  int
	line int
	col  int

	saved []position
}

func newCursor(text string) *cursor {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return &cursor{buf: text}
}

func (c *cursor) eof() bool {
	return c.off >= len(c.buf)
}

// peek returns the byte at the current position. It must not be called at end
// of input.
func (c *cursor) peek() byte {
	return c.buf[c.off]
}

func (c *cursor) isWhitespace() bool {
	ch := c.peek()
	return ch == ' ' || ch == '\t' || ch == '\n'
}

// advance moves the cursor forward n bytes, stopping early at end of input.
// It steps one byte at a time so that line and column stay consistent even
// when a single call crosses one or more newlines.
func (c *cursor) advance(n int) {
	for i := 0; i < n && !c.eof(); i++ {
		if c.buf[c.off] == '\n' {
			c.line++
			c.col = 0
		} else {
			c.col++
		}
		c.off++
	}
}

func (c *cursor) skipWhitespace() {
	for !c.eof() && c.isWhitespace() {
		c.advance(1)
	}
}

func (c *cursor) startsWith(s string) bool {
	return strings.HasPrefix(c.buf[c.off:], s)
}

// find searches for s starting 'from' bytes past the current position and
// returns the index of its first occurrence relative to the current position,
// or -1 if it does not occur.
func (c *cursor) find(s string, from int) int {
	start := c.off + from
	if start > len(c.buf) {
		return -1
	}
	idx := strings.Index(c.buf[start:], s)
	if idx < 0 {
		return -1
	}
	return idx + from
}

// slice returns the n bytes beginning 'start' bytes past the current
// position. Callers are responsible for staying in bounds; rules only ever
// slice spans they have already located.
func (c *cursor) slice(start, n int) string {
	return c.buf[c.off+start : c.off+start+n]
}

// rest returns everything from the current position to the end of the buffer.
func (c *cursor) rest() string {
	return c.buf[c.off:]
}

// save pushes the current offset, line, and column onto the position stack.
// Saves nest to arbitrary depth; every save must be paired with exactly one
// restore or discard.
func (c *cursor) save() {
	c.saved = append(c.saved, position{off: c.off, line: c.line, col: c.col})
}

// restore pops the most recently saved position and rewinds the cursor to it.
// Panics if nothing is saved; that is a bug in the calling rule, not a
// recoverable input condition.
func (c *cursor) restore() {
	p := c.pop()
	c.off = p.off
	c.line = p.line
	c.col = p.col
}

// discard pops the most recently saved position without moving the cursor,
// committing everything consumed since the matching save.
func (c *cursor) discard() {
	c.pop()
}

func (c *cursor) pop() position {
	if len(c.saved) == 0 {
		panic("cursor: restore/discard without matching save")
	}
	p := c.saved[len(c.saved)-1]
	c.saved = c.saved[:len(c.saved)-1]
	return p
}
