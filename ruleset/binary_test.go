package ruleset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_DecDefs_roundTripNestedSequence(t *testing.T) {
	assert := assert.New(t)

	defs := []Def{
		{Type: "keyword", Kind: "eq", Keyword: "="},
		{
			Type: "sequence",
			Kind: "tag",
			Parts: []Def{
				{Type: "keyword", Keyword: "<"},
				{
					Type: "sequence",
					Parts: []Def{
						{Type: "pattern", Pattern: `[a-z]+`},
					},
				},
				{Type: "keyword", Keyword: ">"},
			},
		},
	}

	decoded, err := DecDefs(EncDefs(defs))

	assert.NoError(err)
	assert.Equal(defs, decoded)
}
