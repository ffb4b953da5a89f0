// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package assemble synthesizes STR allele sequences from marker refs:
// left flank, the repeat unit a requested number of times, right flank.
package assemble

import (
	"fmt"
	"math"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/strfasta/allele"
	"github.com/grailbio/strfasta/markerref"
)

// MaxSequenceLen is the longest sequence Assemble will build.
const MaxSequenceLen = math.MaxInt32

// Opts controls synthesis.
type Opts struct {
	// MaxFlank caps the flank width on each side.  Zero or negative means no
	// cap beyond the available flank.
	MaxFlank int
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{
	MaxFlank: 1000,
}

// Sequence is a synthesized allele.  All parts are upper-case; Sequence is
// Left+Core+Right.
type Sequence struct {
	Sequence string
	Left     string
	Core     string
	Right    string
	// UsedFlankWidth is the flank width actually applied on each side after
	// clamping the requested width.
	UsedFlankWidth int
	// UsedRepeats is the number of whole units in Core.
	UsedRepeats int
	// Partial is the number of extra bases of a microvariant.
	Partial int
}

// FlankWidth clamps a requested flank width to what refs and opts allow.
func FlankWidth(refs *markerref.Refs, requested int, opts Opts) int {
	w := requested
	if opts.MaxFlank > 0 && w > opts.MaxFlank {
		w = opts.MaxFlank
	}
	if n := len(refs.LeftFlank); w > n {
		w = n
	}
	if n := len(refs.RightFlank); w > n {
		w = n
	}
	if w < 0 {
		w = 0
	}
	return w
}

// Assemble builds the allele with the given number of whole repeats and
// flankWidth bases on each side.  The width is clamped, never rejected; the
// width used is reported in the result.  A negative repeat count is an
// errors.Invalid error, as is a repeat count whose sequence would exceed
// MaxSequenceLen.
func Assemble(refs *markerref.Refs, repeats, flankWidth int, opts Opts) (Sequence, error) {
	return AssembleAllele(refs, allele.Allele{Repeats: repeats}, flankWidth, opts)
}

// AssembleAllele is like Assemble, but accepts a microvariant: a.Partial
// leading bases of the unit are appended after the whole repeats.
func AssembleAllele(refs *markerref.Refs, a allele.Allele, flankWidth int, opts Opts) (Sequence, error) {
	if refs == nil || refs.Unit == "" {
		return Sequence{}, errors.E(errors.Invalid, "assemble: refs without a repeat unit")
	}
	if a.Repeats < 0 {
		return Sequence{}, errors.E(errors.Invalid, fmt.Sprintf("assemble %s: negative repeat count %d", refs.Marker, a.Repeats))
	}
	unit := strings.ToUpper(refs.Unit)
	if a.Partial < 0 || a.Partial >= len(unit) {
		return Sequence{}, errors.E(errors.Invalid,
			fmt.Sprintf("assemble %s: allele %v: partial repeat must be shorter than the %d-base unit", refs.Marker, a, len(unit)))
	}
	w := FlankWidth(refs, flankWidth, opts)
	if a.Repeats > (MaxSequenceLen-2*w-len(unit))/len(unit) {
		return Sequence{}, errors.E(errors.Invalid,
			fmt.Sprintf("assemble %s: allele %v: sequence longer than %d bases", refs.Marker, a, MaxSequenceLen))
	}
	s := Sequence{
		Left:           strings.ToUpper(refs.LeftFlank[len(refs.LeftFlank)-w:]),
		Core:           strings.Repeat(unit, a.Repeats) + unit[:a.Partial],
		Right:          strings.ToUpper(refs.RightFlank[:w]),
		UsedFlankWidth: w,
		UsedRepeats:    a.Repeats,
		Partial:        a.Partial,
	}
	s.Sequence = s.Left + s.Core + s.Right
	return s, nil
}
