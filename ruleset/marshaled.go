package ruleset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// topLevelManifest contains all keys in a complete TKR 'MANIFEST' type file.
type topLevelManifest struct {
	Format string   `toml:"format"`
	Type   string   `toml:"type"`
	Files  []string `toml:"files"`
}

// topLevelRules contains all keys in a complete TKR 'RULES' type file.
type topLevelRules struct {
	Format      string `toml:"format"`
	Type        string `toml:"type"`
	DefaultKind string `toml:"default-kind"`
	Fallback    string `toml:"fallback"`
	Rules       []Def  `toml:"rule"`
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%q: reading from disk: %w", path, err)
	}
	return data, nil
}

func unmarshalManifest(data []byte) (topLevelManifest, error) {
	var manif topLevelManifest
	if err := toml.Unmarshal(data, &manif); err != nil {
		return manif, fmt.Errorf("decoding manifest: %w", err)
	}
	return manif, nil
}

func unmarshalRules(data []byte) (topLevelRules, error) {
	var rules topLevelRules
	if err := toml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("decoding rules: %w", err)
	}
	return rules, nil
}

// manifStack is for two reasons ->
// * detect circular deps so they can be rejected with a useful error
// * avoid infinite recursion (allow up to MaxManifestRecursionDepth levels)
func recursiveUnmarshalRules(path string, manifStack []string) (topLevelRules, error) {
	path = filepath.Clean(path)

	fileData, err := readFile(path)
	if err != nil {
		return topLevelRules{}, err
	}

	fileInfo, err := ScanFileInfo(fileData)
	if err != nil {
		return topLevelRules{}, fmt.Errorf("%q: detecting file type: %w", path, err)
	}

	if strings.ToUpper(fileInfo.Format) != "TOKS" {
		return topLevelRules{}, fmt.Errorf("%q: file does not have a 'format = \"TOKS\"' entry", path)
	}

	fileType := strings.ToUpper(fileInfo.Type)
	switch fileType {
	case "RULES":
		unmarshaled, err := unmarshalRules(fileData)
		if err != nil {
			return unmarshaled, fmt.Errorf("rules file %q: %w", path, err)
		}
		return unmarshaled, nil
	case "MANIFEST":
		// check the stack to be sure we havent recursed too far and to be
		// sure we aren't about to re-scan a circular-ref'd manifest file
		// we've already brought in.
		if len(manifStack) >= MaxManifestRecursionDepth {
			return topLevelRules{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestStackOverflow)
		}
		for i := range manifStack {
			if manifStack[i] == path {
				return topLevelRules{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestCircularRef)
			}
		}

		unmarshaledManif, err := unmarshalManifest(fileData)
		if err != nil {
			return topLevelRules{}, fmt.Errorf("manifest file %q: %w", path, err)
		}

		manif, err := parseManifest(unmarshaledManif)
		if err != nil {
			return topLevelRules{}, fmt.Errorf("manifest file %q: %w", path, err)
		}

		if len(manif.Files) == 0 {
			if len(manifStack) == 0 {
				return topLevelRules{}, fmt.Errorf("manifest file %q: %w", path, ErrManifestEmpty)
			}
			return topLevelRules{}, nil
		}

		var combined topLevelRules
		combined.Format = "TOKS"
		combined.Type = "RULES"

		manifDir := filepath.Dir(path)
		newStack := append(manifStack, path)
		for _, f := range manif.Files {
			sub, err := recursiveUnmarshalRules(filepath.Join(manifDir, f), newStack)
			if err != nil {
				return topLevelRules{}, err
			}

			// rules append in inclusion order; scalar settings are
			// last-file-wins when the later file actually sets them
			combined.Rules = append(combined.Rules, sub.Rules...)
			if sub.DefaultKind != "" {
				combined.DefaultKind = sub.DefaultKind
			}
			if sub.Fallback != "" {
				combined.Fallback = sub.Fallback
			}
		}

		return combined, nil
	default:
		return topLevelRules{}, fmt.Errorf("%q: unknown file type: %q", path, fileInfo.Type)
	}
}

func parseManifest(tlm topLevelManifest) (Manifest, error) {
	if strings.ToUpper(tlm.Format) != "TOKS" {
		return Manifest{}, fmt.Errorf("in manifest file: format %q is not \"TOKS\"", tlm.Format)
	}
	if strings.ToUpper(tlm.Type) != "MANIFEST" {
		return Manifest{}, fmt.Errorf("in manifest file: type %q is not \"MANIFEST\"", tlm.Type)
	}

	return Manifest{Files: tlm.Files}, nil
}

func parseRuleSet(tlr topLevelRules) (RuleSet, error) {
	return CompileAll(tlr.DefaultKind, tlr.Fallback, tlr.Rules)
}
