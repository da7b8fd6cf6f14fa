// Package input contains line readers used to feed text to the tokenizer
// from CLI or other sources of input.
package input

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// Reader is a source of input lines for interactive tokenization.
type Reader interface {
	// ReadLine returns the next non-blank line of input, blocking until one
	// is available. At end of input it returns io.EOF.
	ReadLine() (string, error)

	// Close releases any resources held by the reader.
	Close() error
}

// DirectReader reads lines from any generic input stream directly. It can be
// used with any io.Reader but does not sanitize the input of control and
// escape sequences.
//
// DirectReader should not be created directly; use [NewDirectReader].
type DirectReader struct {
	r *bufio.Reader
}

// InteractiveReader reads lines from stdin using a go implementation of the
// GNU Readline library. This keeps input clear of all typing and editing
// escape sequences and enables the use of line history. This should in
// general probably only be used when directly connected to a TTY.
//
// InteractiveReader should not be created directly; use
// [NewInteractiveReader].
type InteractiveReader struct {
	rl *readline.Instance
}

// NewDirectReader creates a DirectReader with a buffered reader on the
// provided stream.
func NewDirectReader(r io.Reader) *DirectReader {
	return &DirectReader{
		r: bufio.NewReader(r),
	}
}

// NewInteractiveReader creates an InteractiveReader and initializes readline.
// The returned reader must have Close() called on it before disposal to
// properly teardown readline resources.
func NewInteractiveReader(prompt string) (*InteractiveReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: prompt,
	})
	if err != nil {
		return nil, fmt.Errorf("create readline config: %w", err)
	}

	return &InteractiveReader{rl: rl}, nil
}

// Close is here so DirectReader implements Reader. It does not currently do
// anything as the DirectReader does not create resources, but it may in the
// future and callers should treat it as though it must be called.
func (dr *DirectReader) Close() error {
	return nil
}

// Close cleans up readline resources associated with the InteractiveReader.
func (ir *InteractiveReader) Close() error {
	return ir.rl.Close()
}

// ReadLine reads the next line from the stream. It blocks until a line
// containing non-space characters is read. If at end of input, the returned
// string will be empty and error will be io.EOF.
func (dr *DirectReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = dr.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}

// ReadLine reads the next line from stdin. It blocks until a line containing
// non-space characters is read. If at end of input, the returned string will
// be empty and error will be io.EOF.
func (ir *InteractiveReader) ReadLine() (string, error) {
	var line string
	var err error

	for line == "" {
		line, err = ir.rl.Readline()
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}

		line = strings.TrimSpace(line)
	}

	return line, nil
}
