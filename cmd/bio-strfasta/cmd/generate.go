package cmd

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/strfasta/allele"
	"github.com/grailbio/strfasta/export"
	"github.com/grailbio/strfasta/markerref"
	"github.com/grailbio/strfasta/reference"
	"github.com/grailbio/strfasta/strgen"
)

type generateOpts struct {
	strgen.Opts
	catalogPath   string
	referencePath string
	motif         string
	alleles       string
	format        string
	outPath       string
	strict        bool
}

func generate(ctx context.Context, opts generateOpts, markers []string) (err error) {
	if opts.Mode, err = parseFormat(opts.format); err != nil {
		return err
	}
	if opts.strict {
		opts.Policy = allele.Strict
	}
	var (
		catalog markerref.Catalog
		index   *markerref.Lazy
		fetch   reference.Fetcher
	)
	if opts.catalogPath != "" {
		c, err := markerref.ReadTSVCatalog(ctx, opts.catalogPath)
		if err != nil {
			return err
		}
		catalog, index = c, markerref.NewLazy(c)
	}
	if opts.referencePath != "" {
		var store *reference.FASTAStore
		if store, err = reference.ReadFASTAStore(ctx, opts.referencePath); err != nil {
			return err
		}
		defer func() {
			if e := store.Close(ctx); e != nil && err == nil {
				err = e
			}
		}()
		log.Printf("generate: %d reference slices in %s", store.Len(), opts.referencePath)
		fetch = store
	}
	text, err := render(ctx, strgen.New(index, fetch, opts.Opts), catalog, opts, markers)
	if err != nil {
		return err
	}
	out, closeOut, err := createOutput(ctx, opts.outPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeOut(); e != nil && err == nil {
			err = e
		}
	}()
	if index != nil && fetch == nil {
		if idx, e := index.Index(); e == nil {
			log.Printf("generate: catalog fingerprint %016x", idx.Fingerprint())
		}
	}
	log.Printf("generate: %d markers, format %v, %d bytes, checksum %016x",
		len(markers), opts.Mode, len(text), checksum(text))
	return writeText(out, text)
}

// render generates the alleles of markers.  With a reference source the
// repeat is located in each slice; the motif comes from opts.motif or,
// failing that, from the catalog.
func render(ctx context.Context, g *strgen.Generator, catalog markerref.Catalog, opts generateOpts, markers []string) (string, error) {
	if opts.referencePath == "" {
		reqs := make([]strgen.Request, len(markers))
		for i, m := range markers {
			reqs[i] = strgen.Request{Marker: m, Alleles: opts.alleles}
		}
		return g.FromIndexBatch(reqs)
	}
	var all []export.Record
	for _, m := range markers {
		field, chrom := opts.motif, ""
		if catalog != nil {
			mk, err := catalog.Lookup(m)
			if err == nil {
				chrom = mk.Chromosome
				if field == "" {
					field = mk.MotifField
				}
			} else if field == "" {
				return "", err
			}
		}
		if field == "" {
			return "", errors.E(errors.Invalid, fmt.Sprintf("marker %s: no motif; set -motif or -catalog", m))
		}
		recs, err := g.OnDemandRecords(ctx, strgen.Request{Marker: m, Alleles: opts.alleles}, field)
		if err != nil {
			return "", err
		}
		for i := range recs {
			recs[i].Chromosome = chrom
		}
		all = append(all, recs...)
	}
	return export.Format(all, opts.Mode, export.Opts{LineWidth: opts.LineWidth, WithRepeats: true})
}
