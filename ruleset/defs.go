package ruleset

import (
	"fmt"
	"strings"

	toks "github.com/HelifeWasTaken/Toks"
)

// Def is one marshaled recognizer rule definition: the data form of a
// toks.Rule before compilation. It is shared by every rule transport the
// project has — TKR files, the server's JSON API, and the server's binary
// storage encoding — so that a rule set means the same thing everywhere.
//
// Only the fields for the named Type are meaningful. Parts nest recursively
// for sequence definitions.
type Def struct {
	Type      string `toml:"type" json:"type"`
	Kind      string `toml:"kind" json:"kind"`
	Keyword   string `toml:"keyword" json:"keyword,omitempty"`
	Begin     string `toml:"begin" json:"begin,omitempty"`
	End       string `toml:"end" json:"end,omitempty"`
	KeepBegin bool   `toml:"keep-begin" json:"keep_begin,omitempty"`
	KeepEnd   bool   `toml:"keep-end" json:"keep_end,omitempty"`
	Pattern   string `toml:"pattern" json:"pattern,omitempty"`
	Parts     []Def  `toml:"part" json:"parts,omitempty"`
}

// Compile validates the definition and produces the rule it describes.
func (d Def) Compile() (toks.Rule, error) {
	return compileDef(d, false)
}

// compileDef validates and converts one definition. isPart relaxes the kind
// requirement, since a sequence stamps its own kind over its parts.
func compileDef(d Def, isPart bool) (toks.Rule, error) {
	if d.Kind == "" && !isPart {
		return toks.Rule{}, fmt.Errorf("kind: must not be empty")
	}
	kind := toks.Kind(d.Kind)

	switch strings.ToLower(d.Type) {
	case "keyword":
		if d.Keyword == "" {
			return toks.Rule{}, fmt.Errorf("keyword: must not be empty")
		}
		return toks.Keyword(kind, d.Keyword), nil
	case "region":
		if d.Begin == "" {
			return toks.Rule{}, fmt.Errorf("begin: must not be empty")
		}
		if d.End == "" {
			return toks.Rule{}, fmt.Errorf("end: must not be empty")
		}
		return toks.Region(kind, d.Begin, d.End, d.KeepBegin, d.KeepEnd), nil
	case "pattern":
		if d.Pattern == "" {
			return toks.Rule{}, fmt.Errorf("pattern: must not be empty")
		}
		r, err := toks.Pattern(kind, d.Pattern)
		if err != nil {
			return toks.Rule{}, fmt.Errorf("pattern: %w", err)
		}
		return r, nil
	case "sequence":
		if len(d.Parts) == 0 {
			return toks.Rule{}, fmt.Errorf("sequence: must have at least one part")
		}
		parts := make([]toks.Rule, len(d.Parts))
		for i, p := range d.Parts {
			parsed, err := compileDef(p, true)
			if err != nil {
				return toks.Rule{}, fmt.Errorf("part[%d]: %w", i, err)
			}
			parts[i] = parsed
		}
		return toks.Sequence(kind, parts...), nil
	default:
		return toks.Rule{}, fmt.Errorf("type: must be one of 'keyword', 'region', 'pattern', or 'sequence', not %q", d.Type)
	}
}

// CompileAll compiles a full configuration from definitions, applying the
// named fallback mode ("word" or "seek"; blank means word). It is the
// data-driven equivalent of calling the toks constructors by hand.
func CompileAll(defaultKind string, fallback string, defs []Def) (RuleSet, error) {
	rs := RuleSet{
		DefaultKind: toks.Kind(defaultKind),
	}

	switch strings.ToLower(fallback) {
	case "", "word":
		rs.Fallback = toks.WordScan
	case "seek":
		rs.Fallback = toks.MatchSeekingScan
	default:
		return RuleSet{}, fmt.Errorf("fallback: must be one of 'word' or 'seek', not %q", fallback)
	}

	for i, d := range defs {
		compiled, err := compileDef(d, false)
		if err != nil {
			return RuleSet{}, fmt.Errorf("rule[%d]: %w", i, err)
		}
		rs.Rules = append(rs.Rules, compiled)
	}

	return rs, nil
}
