// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package strgen generates STR allele sequences for a marker and renders
// them in an export format.
//
// There are two paths.  The index path takes flanks, unit and reference
// count from a markerref index built over the marker catalog.  The on-demand
// path fetches the marker's reference slice and locates the repeat with
// repeat.FindCore at request time.
package strgen

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/strfasta/allele"
	"github.com/grailbio/strfasta/assemble"
	"github.com/grailbio/strfasta/export"
	"github.com/grailbio/strfasta/markerref"
	"github.com/grailbio/strfasta/reference"
	"github.com/grailbio/strfasta/repeat"
)

// Opts controls generation.
type Opts struct {
	// MinRepeats is the shortest run, in units, accepted as the repeat core
	// on the on-demand path.  The index path always uses
	// markerref.IndexMinRepeats.
	MinRepeats int
	// FlankWidth is the requested number of flanking bases on each side.
	FlankWidth int
	// MaxFlank caps FlankWidth; see assemble.Opts.
	MaxFlank int
	// LineWidth is the FASTA line width; see export.Opts.
	LineWidth int
	// Mode is the export format.
	Mode export.Mode
	// Policy controls how malformed allele tokens are treated.
	Policy allele.Policy
	// Microvariants keeps partial-repeat alleles such as "9.3".  Otherwise
	// only whole alleles are generated.
	Microvariants bool
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{
	MinRepeats: 3,
	FlankWidth: 50,
	MaxFlank:   assemble.DefaultOpts.MaxFlank,
	LineWidth:  export.DefaultOpts.LineWidth,
	Mode:       export.Standard,
	Policy:     allele.Lenient,
}

// Request names one marker and the alleles to generate for it.
type Request struct {
	Marker string
	// Alleles is an allele list such as "8-12,15" or "9.3,10".
	Alleles string
}

// Generator produces allele sequences.  Either source may be nil, in which
// case the corresponding path returns an errors.Invalid error.
type Generator struct {
	index *markerref.Lazy
	fetch reference.Fetcher
	opts  Opts
}

// New creates a Generator.  index serves the index path and fetch serves the
// on-demand path.
func New(index *markerref.Lazy, fetch reference.Fetcher, opts Opts) *Generator {
	return &Generator{index: index, fetch: fetch, opts: opts}
}

// Opts returns the generator options.
func (g *Generator) Opts() Opts { return g.opts }

// Alleles parses an allele list under the generator's policy.  An empty
// result is an errors.Invalid error.
func (g *Generator) Alleles(input string) ([]allele.Allele, error) {
	ints, err := allele.ParseWith(input, g.opts.Policy)
	if err != nil {
		return nil, err
	}
	alleles := allele.Whole(ints)
	if g.opts.Microvariants {
		alleles = allele.ParseAlleles(input)
	}
	if len(alleles) == 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("no alleles in %q", input))
	}
	return alleles, nil
}

// IndexRecords synthesizes the requested alleles of one marker from the
// index.  Unknown markers and markers the index could not derive refs for
// are errors.NotExist errors.
func (g *Generator) IndexRecords(req Request) ([]export.Record, error) {
	if g.index == nil {
		return nil, errors.E(errors.Invalid, "strgen: no marker index configured")
	}
	alleles, err := g.Alleles(req.Alleles)
	if err != nil {
		return nil, err
	}
	refs, err := g.index.Lookup(req.Marker)
	if err != nil {
		return nil, err
	}
	return g.records(refs, alleles)
}

// FromIndex renders the alleles of one marker, using the index path.
// Tabular output has the marker,allele,sequence layout.
func (g *Generator) FromIndex(req Request) (string, error) {
	recs, err := g.IndexRecords(req)
	if err != nil {
		return "", err
	}
	return export.Format(recs, g.opts.Mode, g.exportOpts(false))
}

// FromIndexBatch renders the alleles of several markers into one blob, in
// request order.  It fails on the first marker that fails.
func (g *Generator) FromIndexBatch(reqs []Request) (string, error) {
	var all []export.Record
	for _, req := range reqs {
		recs, err := g.IndexRecords(req)
		if err != nil {
			return "", err
		}
		all = append(all, recs...)
	}
	return export.Format(all, g.opts.Mode, g.exportOpts(false))
}

// OnDemandRefs fetches the reference slice of a marker and derives refs from
// the longest core run of the motif.  Fetch failures are returned unchanged.
// A slice without a run of at least Opts.MinRepeats units is an
// errors.NotExist error.
func (g *Generator) OnDemandRefs(ctx context.Context, marker, motifField string) (*markerref.Refs, error) {
	if g.fetch == nil {
		return nil, errors.E(errors.Invalid, "strgen: no reference source configured")
	}
	seq, err := g.fetch.Fetch(ctx, marker)
	if err != nil {
		return nil, err
	}
	region, ok := repeat.FindCore(seq, motifField, g.opts.MinRepeats)
	if !ok {
		return nil, errors.E(errors.NotExist,
			fmt.Sprintf("marker %s: no run of at least %d %s units in the %d-base reference slice",
				marker, g.opts.MinRepeats, motifField, len(seq)))
	}
	log.Debug.Printf("strgen: %s: core [%d,%d) %d x %s", marker, region.Start, region.End, region.Repeats, region.Unit)
	return markerref.FromRegion(marker, "", motifField, seq, region), nil
}

// OnDemandRecords synthesizes the requested alleles of one marker from its
// reference slice.
func (g *Generator) OnDemandRecords(ctx context.Context, req Request, motifField string) ([]export.Record, error) {
	alleles, err := g.Alleles(req.Alleles)
	if err != nil {
		return nil, err
	}
	refs, err := g.OnDemandRefs(ctx, req.Marker, motifField)
	if err != nil {
		return nil, err
	}
	return g.records(refs, alleles)
}

// OnDemand renders the alleles of one marker, using the on-demand path.
// Tabular output has the marker,allele,repeats,sequence layout.
func (g *Generator) OnDemand(ctx context.Context, req Request, motifField string) (string, error) {
	recs, err := g.OnDemandRecords(ctx, req, motifField)
	if err != nil {
		return "", err
	}
	return export.Format(recs, g.opts.Mode, g.exportOpts(true))
}

func (g *Generator) records(refs *markerref.Refs, alleles []allele.Allele) ([]export.Record, error) {
	aopts := assemble.Opts{MaxFlank: g.opts.MaxFlank}
	recs := make([]export.Record, 0, len(alleles))
	for _, a := range alleles {
		s, err := assemble.AssembleAllele(refs, a, g.opts.FlankWidth, aopts)
		if err != nil {
			return nil, err
		}
		recs = append(recs, export.Record{
			Marker:     refs.Marker,
			Chromosome: refs.Chromosome,
			Allele:     a.String(),
			Sequence:   s,
		})
	}
	return recs, nil
}

func (g *Generator) exportOpts(withRepeats bool) export.Opts {
	return export.Opts{LineWidth: g.opts.LineWidth, WithRepeats: withRepeats}
}
