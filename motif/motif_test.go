// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package motif_test

import (
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/strfasta/motif"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{"[AGAT]n", "AGAT"},
		{"[agat]N", "AGAT"},
		{"agat", "AGAT"},
		{"[TCTA]n[TCTG]n", "TCTA"},
		{"TCTA [TCTG]n", "TCTG"},
		{"[AGXT]n", "[AGXT]N"},
		{"", ""},
	}
	for _, tt := range tests {
		expect.EQ(t, motif.Normalize(tt.field), tt.want, "field %q", tt.field)
	}
}

func TestNormalizeStrict(t *testing.T) {
	m, err := motif.NormalizeStrict("[gata]n")
	assert.NoError(t, err)
	expect.EQ(t, m, "GATA")

	_, err = motif.NormalizeStrict("")
	expect.True(t, errors.Is(errors.Invalid, err))
	_, err = motif.NormalizeStrict("AGNT")
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestReverseComplement(t *testing.T) {
	expect.EQ(t, motif.ReverseComplement("AGAT"), "ATCT")
	expect.EQ(t, motif.ReverseComplement("acgtn"), "nACGT")
	expect.EQ(t, motif.ReverseComplement("AGNN"), "NNCT")
	expect.EQ(t, motif.ReverseComplement("ANT"), "ANT")
	expect.EQ(t, motif.ReverseComplement(""), "")
}

func TestRotations(t *testing.T) {
	expect.EQ(t, motif.Rotations("AGAT"), []string{"AGAT", "GATA", "ATAG", "TAGA"})
	expect.EQ(t, motif.Rotations("ATAT"), []string{"ATAT", "TATA"})
	expect.EQ(t, motif.Rotations("A"), []string{"A"})
	expect.EQ(t, len(motif.Rotations("")), 0)
}

func TestSet(t *testing.T) {
	s := motif.NewSet("agat")
	expect.EQ(t, s.Motif, "AGAT")
	expect.EQ(t, s.RevComp, "ATCT")
	expect.EQ(t, s.Len(), 4)
	expect.EQ(t, len(s.Units), 8)
	for i, u := range s.Units {
		expect.EQ(t, u.Reverse, i >= 4, "unit %v", u)
		idx, ok := s.Lookup(u.Seq)
		expect.True(t, ok)
		expect.EQ(t, idx, i)
	}
	_, ok := s.Lookup("AAAA")
	expect.False(t, ok)
}

func TestSetSelfComplementary(t *testing.T) {
	// "AT" is its own reverse complement; "ACGT" too.
	s := motif.NewSet("AT")
	expect.EQ(t, s.Units, []motif.Unit{{Seq: "AT"}, {Seq: "TA"}})

	s = motif.NewSet("ACGT")
	expect.EQ(t, len(s.Units), 4)
	for _, u := range s.Units {
		expect.False(t, u.Reverse)
	}
}
