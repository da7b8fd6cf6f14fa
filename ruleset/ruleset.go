// Package ruleset has functions for loading tokenizer rule definitions from
// TKR (Toks Rules) files, a TOML-based format that describes the recognizer
// rules, default kind, and fallback policy a Tokenizer should be configured
// with. It exists so that programs can treat their grammar as data instead of
// hard-coding rule registration.
package ruleset

import (
	"errors"
	"unicode"

	"github.com/BurntSushi/toml"
	toks "github.com/HelifeWasTaken/Toks"
)

const MaxManifestRecursionDepth = 32

var (
	// ErrManifestEmpty is the error returned when a manifest file is read
	// successfully but specifies no additional files to load.
	ErrManifestEmpty = errors.New("does not list any valid files to include")

	// ErrManifestStackOverflow is the error returned when the recursion level
	// of MaxManifestRecursionDepth is reached and an additional Manifest is
	// then specified, which would cause recursion to go deeper.
	ErrManifestStackOverflow = errors.New("too many manifests deep")

	// ErrManifestCircularRef is the error returned when a manifest specifies
	// any series of files that with their own manifests refer back to the
	// original manifest, and therefore cannot be followed.
	ErrManifestCircularRef = errors.New("manifest inclusion chain refers back to itself")
)

// Manifest contains data loaded from one or more TKR Manifest files.
type Manifest struct {
	Files []string
}

// RuleSet is a complete, validated tokenizer configuration loaded from one or
// more TKR Rules files. Its rules are already compiled; building an engine
// from it cannot fail.
type RuleSet struct {
	// DefaultKind is the kind given to fallback tokens.
	DefaultKind toks.Kind

	// Fallback is the policy for input no rule recognizes.
	Fallback toks.FallbackMode

	// Rules is every recognizer rule, in priority order.
	Rules []toks.Rule
}

// Tokenizer builds a new engine configured with the rule set.
func (rs RuleSet) Tokenizer() *toks.Tokenizer {
	tk := toks.New()
	if rs.DefaultKind != "" {
		tk.SetDefaultKind(rs.DefaultKind)
	}
	tk.SetFallbackMode(rs.Fallback)
	for _, r := range rs.Rules {
		tk.Register(r)
	}
	return tk
}

// FileInfo contains the essential information all TKR format files must
// contain. It can be obtained from a file by reading it into memory and
// calling ScanFileInfo on the bytes.
type FileInfo struct {
	Format string `toml:"format"`
	Type   string `toml:"type"`
}

// LoadBundle loads a rule set up from the given TKR file. The file's type is
// auto-detected and decoding is handled appropriately; the type can either be
// "RULES" type or "MANIFEST" type; if it's manifest type, the files listed in
// it relative to it will also be loaded. All files included will be combined
// into one single rule set before being checked, and if a manifest is
// encountered, all files in it are recursively included.
func LoadBundle(path string) (RuleSet, error) {
	unmarshaled, err := recursiveUnmarshalRules(path, nil)
	if err != nil {
		return RuleSet{}, err
	}

	return parseRuleSet(unmarshaled)
}

// LoadManifestFile loads manifest data from a TKR file.
func LoadManifestFile(path string) (Manifest, error) {
	manifestData, err := readFile(path)
	if err != nil {
		return Manifest{}, err
	}

	unmarshaled, err := unmarshalManifest(manifestData)
	if err != nil {
		return Manifest{}, err
	}

	return parseManifest(unmarshaled)
}

// LoadRuleSetFile loads a rule set from a single TKR Rules file, ignoring any
// manifest indirection.
func LoadRuleSetFile(path string) (RuleSet, error) {
	data, err := readFile(path)
	if err != nil {
		return RuleSet{}, err
	}

	unmarshaled, err := unmarshalRules(data)
	if err != nil {
		return RuleSet{}, err
	}

	return parseRuleSet(unmarshaled)
}

// ScanFileInfo takes the given data bytes and attempts to read the TKR format
// common header info from it. The bytes are read up to the first instance of
// a table definition header and those bytes are parsed for the info. If there
// is an error reading the info, returns a non-nil error.
func ScanFileInfo(data []byte) (FileInfo, error) {
	// only run the toml parser up to the end of the top-lev table
	var topLevelEnd int = -1
	var onNewLine bool
	for b := range data {
		if onNewLine {
			if data[b] == '[' {
				topLevelEnd = b
				break
			}
		}

		if data[b] == '\n' {
			onNewLine = true
		} else if !unicode.IsSpace(rune(data[b])) {
			onNewLine = false
		}
	}

	scanData := data
	if topLevelEnd != -1 {
		scanData = data[:topLevelEnd]
	}

	var info FileInfo
	err := toml.Unmarshal(scanData, &info)
	return info, err
}
