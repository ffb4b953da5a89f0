// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package repeat_test

import (
	"strings"
	"testing"

	"github.com/grailbio/strfasta/motif"
	"github.com/grailbio/strfasta/repeat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioSeq = "CTGTAGATAGATAGATAGATCAGA"

func TestFindCore(t *testing.T) {
	tests := []struct {
		seq        string
		field      string
		minRepeats int
		found      bool
		start, end int
		unit       string
	}{
		{"GGCCAGATAGATAGATAGATGGCC", "[AGAT]n", 2, true, 4, 20, "AGAT"},
		// Lowest start wins between the TAGA and AGAT phases.
		{scenarioSeq, "[AGAT]n", 2, true, 3, 19, "TAGA"},
		{"ggccagatagatggcc", "AGAT", 2, true, 4, 12, "AGAT"},
		{"GGCCAGATGGCC", "AGAT", 2, false, 0, 0, ""},
		{"GGCCAGATGGCC", "AGAT", 1, true, 4, 8, "AGAT"},
		{"GGCCAGATGGCC", "AGAT", 0, true, 4, 8, "AGAT"},
		// An interruption ends the run; the longer piece wins.
		{"AGATAGATCCAGATAGATAGAT", "AGAT", 2, true, 10, 22, "AGAT"},
		// Equal runs: first occurrence.
		{"AGATAGATCCCCAGATAGAT", "AGAT", 2, true, 0, 8, "AGAT"},
		{"ACGTACGT", "", 1, false, 0, 0, ""},
		{"", "AGAT", 1, false, 0, 0, ""},
	}
	for _, tt := range tests {
		r, ok := repeat.FindCore(tt.seq, tt.field, tt.minRepeats)
		require.Equal(t, tt.found, ok, "seq %s", tt.seq)
		if !ok {
			continue
		}
		assert.Equal(t, tt.start, r.Start, "seq %s", tt.seq)
		assert.Equal(t, tt.end, r.End, "seq %s", tt.seq)
		assert.Equal(t, tt.seq[tt.start:tt.end], r.Core)
		assert.Equal(t, tt.unit, r.Unit)
		assert.Equal(t, (tt.end-tt.start)/4, r.Repeats)
	}
}

func TestFindCoreMixesStrands(t *testing.T) {
	// Two forward units followed by two reverse-complement units.
	seq := "GGCC" + "AGATAGAT" + "ATCTATCT" + "GGCC"
	r, ok := repeat.FindCore(seq, "AGAT", 2)
	require.True(t, ok)
	assert.Equal(t, 4, r.Start)
	assert.Equal(t, 20, r.End)
	assert.Equal(t, 4, r.Repeats)
	assert.False(t, r.Reverse)
}

func TestFindCoreRotationInvariance(t *testing.T) {
	seq := "GGCC" + strings.Repeat("GATA", 5) + "GGCC"
	want, ok := repeat.FindCore(seq, "AGAT", 2)
	require.True(t, ok)
	for _, rot := range motif.Rotations("AGAT") {
		got, ok := repeat.FindCore(seq, "["+rot+"]n", 2)
		require.True(t, ok)
		assert.Equal(t, want, got, "rotation %s", rot)
	}
}

func TestFindCoreStrandInvariance(t *testing.T) {
	fwd := "GGCC" + strings.Repeat("AGAT", 4) + "GGCC"
	rev := "GGCC" + strings.Repeat(motif.ReverseComplement("AGAT"), 4) + "GGCC"
	f, ok := repeat.FindCore(fwd, "AGAT", 2)
	require.True(t, ok)
	r, ok := repeat.FindCore(rev, "AGAT", 2)
	require.True(t, ok)
	assert.Equal(t, f.Start, r.Start)
	assert.Equal(t, f.End, r.End)
	assert.False(t, f.Reverse)
	assert.True(t, r.Reverse)
	assert.Equal(t, "ATCT", r.Unit)
}

func TestFindCoreSelfComplementary(t *testing.T) {
	seq := "GGCC" + strings.Repeat("AT", 6) + "GGCC"
	r, ok := repeat.FindCore(seq, "[AT]n", 2)
	require.True(t, ok)
	assert.Equal(t, 4, r.Start)
	assert.Equal(t, 16, r.End)
	assert.Equal(t, 6, r.Repeats)
}

func TestFindStrict(t *testing.T) {
	r, ok := repeat.FindStrict(scenarioSeq, "[AGAT]n", 2)
	require.True(t, ok)
	assert.Equal(t, 4, r.Start)
	assert.Equal(t, 20, r.End)
	assert.Equal(t, "AGAT", r.Unit)
	assert.Equal(t, 4, r.Repeats)

	// Forward and reverse units do not combine into one strict run.
	seq := "GGCC" + "AGATAGATAGAT" + "ATCTATCT" + "GGCC"
	r, ok = repeat.FindStrict(seq, "AGAT", 2)
	require.True(t, ok)
	assert.Equal(t, 4, r.Start)
	assert.Equal(t, 16, r.End)

	// Reverse strand only.
	seq = "GG" + strings.Repeat("ATCT", 3) + "GG"
	r, ok = repeat.FindStrict(seq, "AGAT", 2)
	require.True(t, ok)
	assert.Equal(t, 2, r.Start)
	assert.Equal(t, 14, r.End)
	assert.True(t, r.Reverse)

	_, ok = repeat.FindStrict("GGCCAGATGGCC", "AGAT", 2)
	assert.False(t, ok)
}

func TestFindAll(t *testing.T) {
	seq := "AGATAGATCCAGATAGATAGATCCAGAT"
	rs := repeat.FindAll(seq, "AGAT", 2)
	require.Len(t, rs, 2)
	assert.Equal(t, 0, rs[0].Start)
	assert.Equal(t, 8, rs[0].End)
	assert.Equal(t, 10, rs[1].Start)
	assert.Equal(t, 22, rs[1].End)
	assert.Len(t, repeat.FindAll(seq, "", 2), 0)
}
