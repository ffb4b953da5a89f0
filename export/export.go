// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package export renders synthesized STR alleles as text.
//
// The header and column layouts below are consumed by downstream tools and
// must stay byte-for-byte stable:
//
//   Standard:  >{marker}_{chromosome}_allele_{allele}   (upper-case sequence)
//   Reference: >{marker}_{chromosome}_allele_{allele}   (flanks lower-case,
//              repeat upper-case, blank line between records)
//   Multi:     >{marker}_allele_{allele}
//   Tabular:   marker,allele,sequence
//              marker,allele,repeats,sequence           (Opts.WithRepeats)
//
// The chromosome segment is left out of Standard and Reference headers when
// the chromosome is unknown.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/strfasta/assemble"
	"github.com/grailbio/strfasta/encoding/fasta"
)

// Mode is an export format.
type Mode int

const (
	// Standard is one upper-case FASTA record per allele.
	Standard Mode = iota
	// Reference is FASTA with lower-case flanks and an upper-case repeat.
	Reference
	// Tabular is CSV, one row per allele.
	Tabular
	// Multi is one multi-FASTA file for a batch of alleles.
	Multi
)

var modeNames = [...]string{
	Standard:  "standard",
	Reference: "reference",
	Tabular:   "tabular",
	Multi:     "multi",
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode converts a mode name to a Mode.  Names are case-insensitive;
// "csv" is accepted for Tabular.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "csv" {
		return Tabular, nil
	}
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return Standard, errors.E(errors.Invalid, fmt.Sprintf("unknown export format %q", s))
}

// Extension returns the conventional file extension for m.
func (m Mode) Extension() string {
	if m == Tabular {
		return ".csv"
	}
	return ".fasta"
}

// Record is one allele to render.
type Record struct {
	Marker     string
	Chromosome string
	// Allele is the allele designation, e.g. "10" or "9.3".
	Allele   string
	Sequence assemble.Sequence
}

// Opts controls rendering.
type Opts struct {
	// LineWidth is the FASTA line width; <= 0 selects
	// fasta.DefaultLineWidth.  Ignored by Tabular.
	LineWidth int
	// WithRepeats adds a repeats column to Tabular output.
	WithRepeats bool
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{LineWidth: fasta.DefaultLineWidth}

// Format renders records in the given mode.  The result has no trailing
// newline.
func Format(records []Record, mode Mode, opts Opts) (string, error) {
	var b strings.Builder
	switch mode {
	case Standard, Multi:
		for i, r := range records {
			if i > 0 {
				b.WriteByte('\n')
			}
			writeRecord(&b, header(r, mode), r.Sequence.Sequence, opts.LineWidth)
		}
	case Reference:
		for i, r := range records {
			if i > 0 {
				b.WriteString("\n\n")
			}
			s := r.Sequence
			writeRecord(&b, header(r, mode), strings.ToLower(s.Left)+strings.ToUpper(s.Core)+strings.ToLower(s.Right), opts.LineWidth)
		}
	case Tabular:
		if opts.WithRepeats {
			b.WriteString("marker,allele,repeats,sequence")
		} else {
			b.WriteString("marker,allele,sequence")
		}
		for _, r := range records {
			b.WriteByte('\n')
			b.WriteString(r.Marker)
			b.WriteByte(',')
			b.WriteString(r.Allele)
			if opts.WithRepeats {
				b.WriteByte(',')
				b.WriteString(strconv.Itoa(r.Sequence.UsedRepeats))
			}
			b.WriteByte(',')
			b.WriteString(r.Sequence.Sequence)
		}
	default:
		return "", errors.E(errors.Invalid, fmt.Sprintf("unknown export format %v", mode))
	}
	return trimFinal(b.String()), nil
}

// Header returns the FASTA header, without '>', used for r in mode.
func Header(r Record, mode Mode) string {
	return header(r, mode)
}

func header(r Record, mode Mode) string {
	if mode == Multi || r.Chromosome == "" {
		return r.Marker + "_allele_" + r.Allele
	}
	return r.Marker + "_" + r.Chromosome + "_allele_" + r.Allele
}

func writeRecord(b *strings.Builder, name, seq string, width int) {
	b.WriteByte('>')
	b.WriteString(name)
	if seq == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(fasta.Wrap(seq, width))
}

// trimFinal removes one trailing form feed or whitespace byte, if any.
func trimFinal(s string) string {
	if n := len(s); n > 0 {
		switch s[n-1] {
		case '\n', '\r', '\f', ' ', '\t':
			return s[:n-1]
		}
	}
	return s
}
