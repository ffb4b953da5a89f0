package cmd

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/strfasta/encoding/fasta"
	"github.com/grailbio/strfasta/reference"
)

type findOpts struct {
	motif      string
	minRepeats int
	all        bool
	strict     bool
	outPath    string
}

func find(ctx context.Context, opts findOpts, path string) (err error) {
	store, err := reference.ReadFASTAStore(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if e := store.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	out, closeOut, err := createOutput(ctx, opts.outPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeOut(); e != nil && err == nil {
			err = e
		}
	}()
	n, err := writeRuns(ctx, store, opts, out)
	if err != nil {
		return err
	}
	log.Printf("find: %d runs of %s in %d records of %s", n, opts.motif, store.Len(), path)
	return nil
}

// writeRuns writes one TSV row per run found in the records of store and
// returns the number of runs.
func writeRuns(ctx context.Context, store *reference.FASTAStore, opts findOpts, w io.Writer) (int, error) {
	tw := tsv.NewWriter(w)
	for _, col := range []string{"#name", "start", "end", "repeats", "unit", "strand", "core"} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return 0, err
	}
	n := 0
	for _, name := range store.Names() {
		seq, err := store.Fetch(ctx, name)
		if err != nil {
			return n, err
		}
		for _, r := range findRuns(seq, opts.motif, opts) {
			strand := "+"
			if r.Reverse {
				strand = "-"
			}
			tw.WriteString(name)
			tw.WriteUint32(uint32(r.Start))
			tw.WriteUint32(uint32(r.End))
			tw.WriteUint32(uint32(r.Repeats))
			tw.WriteString(r.Unit)
			tw.WriteString(strand)
			tw.WriteString(r.Core)
			if err := tw.EndLine(); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, tw.Flush()
}

// faidx writes the samtools faidx index of the FASTA file at path to
// path+".fai".
func faidx(ctx context.Context, path string) (err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	out, err := file.Create(ctx, path+fasta.IndexSuffix)
	if err != nil {
		return err
	}
	if err = fasta.GenerateIndex(out.Writer(ctx), in.Reader(ctx)); err != nil {
		_ = out.Close(ctx)
		return errors.E(err, path)
	}
	if err = out.Close(ctx); err != nil {
		return err
	}
	log.Printf("index: wrote %s", out.Name())
	return nil
}
