// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package motif resolves STR repeat-unit motifs from catalog motif fields and
// derives the rotation and reverse-complement unit sets used to detect a
// repeat regardless of phase or strand.
//
// A motif field is either a bare unit ("AGAT") or the bracketed form used by
// STR catalogs ("[AGAT]n").  Compound fields such as "[TCTA]n[TCTG]n" resolve
// to their first bracketed unit.
package motif

import (
	"regexp"
	"strings"

	"github.com/grailbio/base/errors"
)

// bracketRE matches one bracketed repeat unit, e.g. "[AGAT]n".  Only the
// first match in a field is used.
var bracketRE = regexp.MustCompile(`(?i)\[([ACGT]+)\]n`)

// Normalize returns the canonical, upper-case repeat unit described by field.
// If field contains a bracketed unit the first one wins; otherwise field is
// used verbatim.  Normalize never fails: any input becomes some motif, which
// may be empty or contain non-ACGT characters.  Use NormalizeStrict when the
// field must be validated.
func Normalize(field string) string {
	if m := bracketRE.FindStringSubmatch(field); m != nil {
		return strings.ToUpper(m[1])
	}
	return strings.ToUpper(field)
}

// NormalizeStrict is like Normalize, but it rejects fields that do not reduce
// to a non-empty unit over {A,C,G,T}.
func NormalizeStrict(field string) (string, error) {
	m := Normalize(field)
	if m == "" {
		return "", errors.E(errors.Invalid, "empty motif field")
	}
	for i := 0; i < len(m); i++ {
		switch m[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return "", errors.E(errors.Invalid, "motif field "+field+": invalid base "+string(m[i]))
		}
	}
	return m, nil
}

// revCompTable maps a base to its complement.  Bytes that are not A/C/G/T
// (in either case) complement to themselves, so 'N' passes through.
var revCompTable [256]byte

func init() {
	for i := range revCompTable {
		revCompTable[i] = byte(i)
	}
	for _, p := range [][2]byte{{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'}} {
		revCompTable[p[0]] = p[1]
		revCompTable[p[0]+'a'-'A'] = p[1]
	}
}

// ReverseComplement returns the reverse complement of seq.  A/C/G/T are
// complemented case-insensitively and emitted upper-case; any other byte is
// kept as-is.
func ReverseComplement(seq string) string {
	n := len(seq)
	buf := make([]byte, n)
	for idx, invIdx := 0, n-1; idx != n; idx, invIdx = idx+1, invIdx-1 {
		buf[idx] = revCompTable[seq[invIdx]]
	}
	return string(buf)
}

// Rotations returns the distinct cyclic rotations of m, in order of the
// rotation offset.  A periodic unit such as "ATAT" yields fewer than len(m)
// rotations.
func Rotations(m string) []string {
	var (
		seen = make(map[string]bool, len(m))
		out  = make([]string, 0, len(m))
	)
	for i := 0; i < len(m); i++ {
		r := m[i:] + m[:i]
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

// Unit is one member of a candidate set.
type Unit struct {
	// Seq is the unit, upper-case.
	Seq string
	// Reverse is true if Seq is a rotation of the reverse complement of the
	// motif but not a rotation of the motif itself.
	Reverse bool
}

// Set is the de-duplicated union of the rotations of a motif and the
// rotations of its reverse complement.  All units have the same length.
type Set struct {
	// Motif is the canonical unit.
	Motif string
	// RevComp is the reverse complement of Motif.
	RevComp string
	// Units lists forward rotations first, then the reverse-complement
	// rotations that are not already forward rotations.
	Units []Unit

	index map[string]int
}

// NewSet builds the candidate set for the canonical motif m.  A
// self-complementary motif (e.g. "AT", "ACGT") contributes each unit only once.
func NewSet(m string) *Set {
	m = strings.ToUpper(m)
	s := &Set{
		Motif:   m,
		RevComp: ReverseComplement(m),
		index:   map[string]int{},
	}
	add := func(u string, reverse bool) {
		if _, ok := s.index[u]; ok {
			return
		}
		s.index[u] = len(s.Units)
		s.Units = append(s.Units, Unit{Seq: u, Reverse: reverse})
	}
	for _, r := range Rotations(m) {
		add(r, false)
	}
	for _, r := range Rotations(s.RevComp) {
		add(r, true)
	}
	return s
}

// Len returns the unit length.
func (s *Set) Len() int { return len(s.Motif) }

// Lookup returns the index in s.Units of the unit u, which must be
// upper-case.
func (s *Set) Lookup(u string) (int, bool) {
	i, ok := s.index[u]
	return i, ok
}
