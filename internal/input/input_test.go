package input

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DirectReader_ReadLine(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "single line",
			input:  "x = 1\n",
			expect: []string{"x = 1"},
		},
		{
			name:   "blank lines are skipped",
			input:  "\n   \nfoo\n\nbar\n",
			expect: []string{"foo", "bar"},
		},
		{
			name:   "last line without newline",
			input:  "foo\nbar",
			expect: []string{"foo", "bar"},
		},
		{
			name:   "surrounding space is trimmed",
			input:  "  foo  \n",
			expect: []string{"foo"},
		},
		{
			name:   "empty input",
			input:  "",
			expect: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			dr := NewDirectReader(strings.NewReader(tc.input))
			defer dr.Close()

			var got []string
			for {
				line, err := dr.ReadLine()
				if err == io.EOF {
					break
				}
				if !assert.NoError(err) {
					return
				}
				got = append(got, line)
			}

			assert.Equal(tc.expect, got)
		})
	}
}
