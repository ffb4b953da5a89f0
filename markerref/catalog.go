// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package markerref

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/tsv"
)

// Candidate is one known reference sequence for a marker.
type Candidate struct {
	Sequence string
	// Verified is true if the sequence has been confirmed by an external
	// source.  Verified candidates are preferred as the representative.
	Verified bool
}

// Marker is a catalog entry.
type Marker struct {
	Name       string
	Chromosome string
	// MotifField is the raw motif, e.g. "[AGAT]n" or "[TCTA]n[TCTG]n".
	MotifField string
	Candidates []Candidate
}

// Catalog supplies marker metadata.  Implementations must be safe for
// concurrent use.
type Catalog interface {
	// Names lists all marker names in catalog order.
	Names() []string
	// Lookup returns the marker with the given name.  It returns an
	// errors.NotExist error if there is no such marker.
	Lookup(name string) (Marker, error)
}

// StaticCatalog is an immutable in-memory Catalog.  Lookup is
// case-insensitive.
type StaticCatalog struct {
	names   []string
	markers map[string]Marker
}

// NewStaticCatalog creates a catalog of the given markers.  A later marker
// with the same (case-insensitive) name replaces an earlier one, keeping the
// earlier position.
func NewStaticCatalog(markers ...Marker) *StaticCatalog {
	c := &StaticCatalog{markers: make(map[string]Marker, len(markers))}
	for _, m := range markers {
		c.add(m)
	}
	return c
}

func (c *StaticCatalog) add(m Marker) {
	key := strings.ToUpper(strings.TrimSpace(m.Name))
	if _, ok := c.markers[key]; !ok {
		c.names = append(c.names, m.Name)
	}
	c.markers[key] = m
}

// Names implements Catalog.
func (c *StaticCatalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Lookup implements Catalog.
func (c *StaticCatalog) Lookup(name string) (Marker, error) {
	m, ok := c.markers[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return Marker{}, errors.E(errors.NotExist, fmt.Sprintf("marker %s not in catalog", name))
	}
	return m, nil
}

// catalogRow is one line of a TSV catalog.  Columns are positional.
type catalogRow struct {
	Name       string
	Chromosome string
	Motif      string
	Verified   string
	Sequence   string
}

// ParseTSVCatalog reads a catalog in TSV form.  The first line is a header
// and lines starting with '#' are ignored.  Each row describes one candidate
// sequence:
//
//   name  chromosome  motif  verified  sequence
//
// Rows for the same marker are merged; the chromosome and motif of the first
// row win.  The verified column accepts the strconv.ParseBool spellings as
// well as "yes"/"no"; anything else is treated as not verified.
func ParseTSVCatalog(r io.Reader) (*StaticCatalog, error) {
	tr := tsv.NewReader(bufio.NewReader(r))
	tr.HasHeaderRow = true
	tr.Comment = '#'

	var (
		order   []string
		markers = map[string]*Marker{}
		nLine   = 0
	)
	for {
		var row catalogRow
		if err := tr.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(err, fmt.Sprintf("catalog row %d", nLine))
		}
		nLine++
		if row.Name == "" {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("catalog row %d: empty marker name", nLine))
		}
		key := strings.ToUpper(strings.TrimSpace(row.Name))
		m, ok := markers[key]
		if !ok {
			m = &Marker{Name: row.Name, Chromosome: row.Chromosome, MotifField: row.Motif}
			markers[key] = m
			order = append(order, key)
		}
		if row.Sequence != "" {
			m.Candidates = append(m.Candidates, Candidate{
				Sequence: row.Sequence,
				Verified: parseVerified(row.Verified),
			})
		}
	}
	c := NewStaticCatalog()
	for _, key := range order {
		c.add(*markers[key])
	}
	return c, nil
}

func parseVerified(s string) bool {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	switch strings.ToLower(s) {
	case "y", "yes":
		return true
	}
	return false
}

// ReadTSVCatalog reads a TSV catalog from path, which may be any path
// supported by grailbio file, optionally compressed.
func ReadTSVCatalog(ctx context.Context, path string) (c *StaticCatalog, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, in.Name()); u != nil {
		r = u
	}
	if c, err = ParseTSVCatalog(r); err != nil {
		return nil, errors.E(err, path)
	}
	return c, nil
}
