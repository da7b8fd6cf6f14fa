package toks

import "fmt"

// Error is the single error kind the engine reports: at some position, no
// registered rule matched and the fallback policy could not apply (either
// because the call was strict or because no progress could be made). Line and
// Column are 0-based and point at the first unrecognizable position.
type Error struct {
	Line   int
	Column int
}

func (e *Error) Error() string {
	return fmt.Sprintf("tokenizer error at line %d, column %d", e.Line, e.Column)
}
