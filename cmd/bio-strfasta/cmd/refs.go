package cmd

import (
	"context"
	"io"
	"sort"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/strfasta/markerref"
)

type refsOpts struct {
	omitted bool
	flanks  bool
	outPath string
}

func refs(ctx context.Context, opts refsOpts, path string) (err error) {
	catalog, err := markerref.ReadTSVCatalog(ctx, path)
	if err != nil {
		return err
	}
	idx, err := markerref.Build(catalog)
	if err != nil {
		return err
	}
	log.Printf("refs: %s: %d markers indexed, %d omitted, fingerprint %016x",
		path, idx.Len(), len(idx.Omitted()), idx.Fingerprint())
	out, closeOut, err := createOutput(ctx, opts.outPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := closeOut(); e != nil && err == nil {
			err = e
		}
	}()
	return writeRefs(idx, opts, out)
}

func writeRefs(idx *markerref.Index, opts refsOpts, w io.Writer) (err error) {
	tw := tsv.NewWriter(w)
	if opts.omitted {
		omitted := idx.Omitted()
		keys := make([]string, 0, len(omitted))
		for k := range omitted {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		tw.WriteString("#marker")
		tw.WriteString("reason")
		if err = tw.EndLine(); err != nil {
			return err
		}
		for _, k := range keys {
			tw.WriteString(k)
			tw.WriteString(omitted[k])
			if err = tw.EndLine(); err != nil {
				return err
			}
		}
		return tw.Flush()
	}
	for _, col := range []string{"#marker", "chromosome", "motif", "unit", "strand", "count", "left", "right"} {
		tw.WriteString(col)
	}
	if err = tw.EndLine(); err != nil {
		return err
	}
	idx.Do(func(r *markerref.Refs) bool {
		strand := "+"
		if r.Reverse {
			strand = "-"
		}
		tw.WriteString(r.Marker)
		tw.WriteString(r.Chromosome)
		tw.WriteString(r.Motif)
		tw.WriteString(r.Unit)
		tw.WriteString(strand)
		tw.WriteUint32(uint32(r.ReferenceRepeatCount))
		if opts.flanks {
			tw.WriteString(r.LeftFlank)
			tw.WriteString(r.RightFlank)
		} else {
			tw.WriteUint32(uint32(len(r.LeftFlank)))
			tw.WriteUint32(uint32(len(r.RightFlank)))
		}
		err = tw.EndLine()
		return err != nil
	})
	if err != nil {
		return err
	}
	return tw.Flush()
}
