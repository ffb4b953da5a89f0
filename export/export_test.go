// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package export_test

import (
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/strfasta/assemble"
	"github.com/grailbio/strfasta/export"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func seq(left, core, right string, repeats int) assemble.Sequence {
	return assemble.Sequence{
		Sequence:    left + core + right,
		Left:        left,
		Core:        core,
		Right:       right,
		UsedRepeats: repeats,
	}
}

func testRecords() []export.Record {
	return []export.Record{
		{Marker: "vWA", Chromosome: "chr12", Allele: "6", Sequence: seq("TGT", strings.Repeat("AGAT", 6), "CAG", 6)},
		{Marker: "vWA", Chromosome: "chr12", Allele: "7", Sequence: seq("TGT", strings.Repeat("AGAT", 7), "CAG", 7)},
	}
}

func TestStandard(t *testing.T) {
	got, err := export.Format(testRecords(), export.Standard, export.Opts{LineWidth: 10})
	assert.NoError(t, err)
	expect.EQ(t, got, ">vWA_chr12_allele_6\n"+
		"TGTAGATAGA\nTAGATAGATA\nGATAGATCAG\n"+
		">vWA_chr12_allele_7\n"+
		"TGTAGATAGA\nTAGATAGATA\nGATAGATAGA\nTCAG")
}

func TestReference(t *testing.T) {
	got, err := export.Format(testRecords(), export.Reference, export.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, got, ">vWA_chr12_allele_6\n"+
		"tgt"+strings.Repeat("AGAT", 6)+"cag\n\n"+
		">vWA_chr12_allele_7\n"+
		"tgt"+strings.Repeat("AGAT", 7)+"cag")
}

func TestMulti(t *testing.T) {
	got, err := export.Format(testRecords(), export.Multi, export.Opts{})
	assert.NoError(t, err)
	expect.EQ(t, got, ">vWA_allele_6\n"+
		"TGT"+strings.Repeat("AGAT", 6)+"CAG\n"+
		">vWA_allele_7\n"+
		"TGT"+strings.Repeat("AGAT", 7)+"CAG")
}

func TestUnknownChromosome(t *testing.T) {
	r := testRecords()[0]
	r.Chromosome = ""
	expect.EQ(t, export.Header(r, export.Standard), "vWA_allele_6")
	expect.EQ(t, export.Header(r, export.Reference), "vWA_allele_6")
	r.Chromosome = "chr12"
	expect.EQ(t, export.Header(r, export.Multi), "vWA_allele_6")
}

func TestTabular(t *testing.T) {
	recs := testRecords()
	got, err := export.Format(recs, export.Tabular, export.Opts{LineWidth: 5})
	assert.NoError(t, err)
	lines := strings.Split(got, "\n")
	expect.EQ(t, len(lines), len(recs)+1)
	expect.True(t, strings.HasPrefix(lines[0], "marker,allele,sequence"))
	expect.EQ(t, lines[1], "vWA,6,TGT"+strings.Repeat("AGAT", 6)+"CAG")

	got, err = export.Format(recs, export.Tabular, export.Opts{WithRepeats: true})
	assert.NoError(t, err)
	lines = strings.Split(got, "\n")
	expect.EQ(t, lines[0], "marker,allele,repeats,sequence")
	expect.EQ(t, lines[2], "vWA,7,7,TGT"+strings.Repeat("AGAT", 7)+"CAG")

	got, err = export.Format(nil, export.Tabular, export.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, got, "marker,allele,sequence")
}

func TestNoTrailingWhitespace(t *testing.T) {
	for _, mode := range []export.Mode{export.Standard, export.Reference, export.Tabular, export.Multi} {
		for _, width := range []int{0, 4, 60, 80} {
			got, err := export.Format(testRecords(), mode, export.Opts{LineWidth: width})
			assert.NoError(t, err)
			expect.EQ(t, got, strings.TrimRight(got, " \t\r\n\f"), "mode %v width %d", mode, width)
		}
	}
	got, err := export.Format(nil, export.Standard, export.DefaultOpts)
	assert.NoError(t, err)
	expect.EQ(t, got, "")
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want export.Mode
	}{
		{"standard", export.Standard},
		{"Reference", export.Reference},
		{" tabular ", export.Tabular},
		{"csv", export.Tabular},
		{"MULTI", export.Multi},
	}
	for _, tt := range tests {
		m, err := export.ParseMode(tt.in)
		assert.NoError(t, err)
		expect.EQ(t, m, tt.want, "mode %q", tt.in)
		expect.EQ(t, m.String(), strings.ToLower(tt.want.String()))
	}
	_, err := export.ParseMode("genbank")
	expect.True(t, errors.Is(errors.Invalid, err))

	_, err = export.Format(testRecords(), export.Mode(42), export.DefaultOpts)
	expect.True(t, errors.Is(errors.Invalid, err))
	expect.EQ(t, export.Tabular.Extension(), ".csv")
	expect.EQ(t, export.Multi.Extension(), ".fasta")
}
