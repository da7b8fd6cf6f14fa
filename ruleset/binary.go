package ruleset

import (
	"fmt"

	"github.com/dekarrin/rezi"
)

// This file contains the binary encoding of rule definitions, used where rule
// sets are persisted outside of TKR files (the server's datastore encodes
// them this way).

// MarshalBinary converts d into a slice of bytes that can be decoded with
// UnmarshalBinary. Parts are encoded recursively.
func (d Def) MarshalBinary() ([]byte, error) {
	var enc []byte

	enc = append(enc, rezi.EncString(d.Type)...)
	enc = append(enc, rezi.EncString(d.Kind)...)
	enc = append(enc, rezi.EncString(d.Keyword)...)
	enc = append(enc, rezi.EncString(d.Begin)...)
	enc = append(enc, rezi.EncString(d.End)...)
	enc = append(enc, rezi.EncBool(d.KeepBegin)...)
	enc = append(enc, rezi.EncBool(d.KeepEnd)...)
	enc = append(enc, rezi.EncString(d.Pattern)...)

	enc = append(enc, rezi.EncInt(len(d.Parts))...)
	for _, p := range d.Parts {
		enc = append(enc, rezi.EncBinary(p)...)
	}

	return enc, nil
}

// UnmarshalBinary decodes a slice of bytes produced by MarshalBinary into d.
// All of d's fields are replaced by the values decoded.
func (d *Def) UnmarshalBinary(data []byte) error {
	var n int
	var err error

	d.Type, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("type: %w", err)
	}
	data = data[n:]

	d.Kind, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("kind: %w", err)
	}
	data = data[n:]

	d.Keyword, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("keyword: %w", err)
	}
	data = data[n:]

	d.Begin, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	data = data[n:]

	d.End, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}
	data = data[n:]

	d.KeepBegin, n, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("keep-begin: %w", err)
	}
	data = data[n:]

	d.KeepEnd, n, err = rezi.DecBool(data)
	if err != nil {
		return fmt.Errorf("keep-end: %w", err)
	}
	data = data[n:]

	d.Pattern, n, err = rezi.DecString(data)
	if err != nil {
		return fmt.Errorf("pattern: %w", err)
	}
	data = data[n:]

	var partCount int
	partCount, n, err = rezi.DecInt(data)
	if err != nil {
		return fmt.Errorf("part count: %w", err)
	}
	data = data[n:]

	d.Parts = nil
	for i := 0; i < partCount; i++ {
		var p Def
		n, err = rezi.DecBinary(data, &p)
		if err != nil {
			return fmt.Errorf("part[%d]: %w", i, err)
		}
		data = data[n:]
		d.Parts = append(d.Parts, p)
	}

	return nil
}

// EncDefs encodes a whole definition list for storage.
func EncDefs(defs []Def) []byte {
	enc := rezi.EncInt(len(defs))
	for _, d := range defs {
		enc = append(enc, rezi.EncBinary(d)...)
	}
	return enc
}

// DecDefs decodes a definition list previously encoded with EncDefs.
func DecDefs(data []byte) ([]Def, error) {
	count, n, err := rezi.DecInt(data)
	if err != nil {
		return nil, fmt.Errorf("definition count: %w", err)
	}
	data = data[n:]

	var defs []Def
	for i := 0; i < count; i++ {
		var d Def
		n, err = rezi.DecBinary(data, &d)
		if err != nil {
			return nil, fmt.Errorf("definition[%d]: %w", i, err)
		}
		data = data[n:]
		defs = append(defs, d)
	}

	return defs, nil
}
