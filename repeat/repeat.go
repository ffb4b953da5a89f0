// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package repeat locates the tandem-repeat core of an STR inside a sequence.
//
// A run is a gap-free sequence of motif-length chunks, each of which is a
// rotation of the motif or a rotation of its reverse complement.  The scan is
// case-insensitive and is carried out as a single right-to-left pass over
// chunk membership, so every start offset is considered and the result does
// not depend on the order of the candidate units.
package repeat

import (
	"strings"

	"github.com/grailbio/strfasta/motif"
)

// Region is a repeat run found inside a sequence.
type Region struct {
	// Start and End are the 0-based half-open bounds of the run.
	Start, End int
	// Core is seq[Start:End], in the case of the input.
	Core string
	// Unit is the upper-case candidate unit found at Start.
	Unit string
	// Repeats is the number of whole units in the run.
	Repeats int
	// Reverse is true if Unit comes from the reverse-complement rotations.
	Reverse bool
}

// Len returns End-Start.
func (r Region) Len() int { return r.End - r.Start }

// scanner holds per-offset chunk membership for one (sequence, motif) pair.
type scanner struct {
	seq   string // original case
	upper string
	set   *motif.Set
	// unit[i] is the index in set.Units of upper[i:i+L], or -1.
	unit []int
}

func newScanner(seq, motifField string) *scanner {
	m := motif.Normalize(motifField)
	if m == "" {
		return nil
	}
	s := &scanner{
		seq:   seq,
		upper: strings.ToUpper(seq),
		set:   motif.NewSet(m),
	}
	l := s.set.Len()
	s.unit = make([]int, len(seq))
	for i := range s.unit {
		s.unit[i] = -1
		if i+l > len(seq) {
			continue
		}
		if idx, ok := s.set.Lookup(s.upper[i : i+l]); ok {
			s.unit[i] = idx
		}
	}
	return s
}

func (s *scanner) region(start, n int) Region {
	l := s.set.Len()
	u := s.set.Units[s.unit[start]]
	return Region{
		Start:   start,
		End:     start + n*l,
		Core:    s.seq[start : start+n*l],
		Unit:    u.Seq,
		Repeats: n,
		Reverse: u.Reverse,
	}
}

// mixedRuns returns, for every offset i, the number of consecutive member
// chunks starting at i.  Chunks may be any mix of candidate units.
func (s *scanner) mixedRuns() []int {
	l := s.set.Len()
	runs := make([]int, len(s.unit))
	for i := len(s.unit) - 1; i >= 0; i-- {
		if s.unit[i] < 0 {
			continue
		}
		runs[i] = 1
		if i+l < len(runs) {
			runs[i] += runs[i+l]
		}
	}
	return runs
}

// exactRuns is like mixedRuns, but a run only continues while the next chunk
// is the same unit.
func (s *scanner) exactRuns() []int {
	l := s.set.Len()
	runs := make([]int, len(s.unit))
	for i := len(s.unit) - 1; i >= 0; i-- {
		if s.unit[i] < 0 {
			continue
		}
		runs[i] = 1
		if i+l < len(runs) && s.unit[i+l] == s.unit[i] {
			runs[i] += runs[i+l]
		}
	}
	return runs
}

// FindCore returns the longest run of at least minRepeats units of the motif
// described by motifField, any rotation of it, or any rotation of its reverse
// complement.  Units of different rotations and strands may follow each other
// within one run.  Ties are resolved in favor of the lowest start.  A
// minRepeats below 1 is treated as 1.
//
// The second result is false if motifField is empty or no run qualifies.
func FindCore(seq, motifField string, minRepeats int) (Region, bool) {
	s := newScanner(seq, motifField)
	if s == nil {
		return Region{}, false
	}
	if minRepeats < 1 {
		minRepeats = 1
	}
	runs := s.mixedRuns()
	best := -1
	for i, n := range runs {
		if n >= minRepeats && (best < 0 || n > runs[best]) {
			best = i
		}
	}
	if best < 0 {
		return Region{}, false
	}
	return s.region(best, runs[best]), true
}

// FindStrict returns the longest exact tandem repeat of a single candidate
// unit with at least minRepeats copies.  Unlike FindCore, rotations and
// strands never mix within a run.  Among runs of equal length, a run of the
// canonical motif is preferred, then a run of its reverse complement, then
// the lowest start.
func FindStrict(seq, motifField string, minRepeats int) (Region, bool) {
	s := newScanner(seq, motifField)
	if s == nil {
		return Region{}, false
	}
	if minRepeats < 1 {
		minRepeats = 1
	}
	runs := s.exactRuns()
	rank := func(i int) int {
		switch s.set.Units[s.unit[i]].Seq {
		case s.set.Motif:
			return 0
		case s.set.RevComp:
			return 1
		}
		return 2
	}
	best := -1
	for i, n := range runs {
		if n < minRepeats {
			continue
		}
		// Only consider run starts; an offset inside a run is never longer.
		if i >= s.set.Len() && s.unit[i-s.set.Len()] == s.unit[i] {
			continue
		}
		if best < 0 || n > runs[best] || (n == runs[best] && rank(i) < rank(best)) {
			best = i
		}
	}
	if best < 0 {
		return Region{}, false
	}
	return s.region(best, runs[best]), true
}

// FindAll returns the maximal non-overlapping runs of at least minRepeats
// units, scanning left to right.  At each offset the longest run starting
// there is taken and scanning resumes at its end.
func FindAll(seq, motifField string, minRepeats int) []Region {
	s := newScanner(seq, motifField)
	if s == nil {
		return nil
	}
	if minRepeats < 1 {
		minRepeats = 1
	}
	runs := s.mixedRuns()
	var out []Region
	for i := 0; i < len(runs); {
		if runs[i] < minRepeats {
			i++
			continue
		}
		r := s.region(i, runs[i])
		out = append(out, r)
		i = r.End
	}
	return out
}
