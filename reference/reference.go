// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package reference serves the reference sequence slice around an STR
// marker.
package reference

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/strfasta/encoding/fasta"
)

// Fetcher returns the reference slice for a marker.  The slice contains the
// repeat and whatever flanking sequence the source holds.
type Fetcher interface {
	Fetch(ctx context.Context, marker string) (string, error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, marker string) (string, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, marker string) (string, error) {
	return f(ctx, marker)
}

// FASTAStore is a Fetcher backed by FASTA data whose record names are marker
// names.  Names match case-insensitively.  It is read-only and safe for
// concurrent use.
type FASTAStore struct {
	fa    fasta.Fasta
	names map[string]string // upper-case name -> record name
	in    file.File         // open FASTA file of an indexed store
}

// NewFASTAStore creates a FASTAStore over fa.  Record names that differ only
// in case are an errors.Invalid error.
func NewFASTAStore(fa fasta.Fasta) (*FASTAStore, error) {
	s := &FASTAStore{fa: fa, names: make(map[string]string)}
	for _, name := range fa.SeqNames() {
		key := strings.ToUpper(name)
		if prev, ok := s.names[key]; ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("reference records %q and %q differ only in case", prev, name))
		}
		s.names[key] = name
	}
	return s, nil
}

// ReadFASTAStore loads a FASTAStore from path, which may be any path
// supported by grailbio file, optionally compressed.  If an uncompressed file
// has a samtools faidx index at path+".fai", only the index is loaded and
// slices are read from the file on demand.  Close releases the file.
func ReadFASTAStore(ctx context.Context, path string) (s *FASTAStore, err error) {
	if !strings.HasSuffix(path, ".gz") {
		if index, e := file.Open(ctx, path+fasta.IndexSuffix); e == nil {
			return readIndexed(ctx, path, index)
		}
	}
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
	fa, err := fasta.New(r)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return NewFASTAStore(fa)
}

func readIndexed(ctx context.Context, path string, index file.File) (s *FASTAStore, err error) {
	defer func() {
		if e := index.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	fa, err := fasta.NewIndexed(in.Reader(ctx), index.Reader(ctx))
	if err == nil {
		s, err = NewFASTAStore(fa)
	}
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.E(err, path)
	}
	s.in = in
	log.Debug.Printf("reference: %s: %d indexed records", path, s.Len())
	return s, nil
}

// Close releases the file behind an indexed store.  It is a no-op for stores
// held in memory.
func (s *FASTAStore) Close(ctx context.Context) error {
	if s.in == nil {
		return nil
	}
	err := s.in.Close(ctx)
	s.in = nil
	return err
}

// Len returns the number of markers in the store.
func (s *FASTAStore) Len() int { return len(s.names) }

// Fetch implements Fetcher.  A marker without a record is an errors.NotExist
// error.
func (s *FASTAStore) Fetch(ctx context.Context, marker string) (string, error) {
	name, ok := s.names[strings.ToUpper(strings.TrimSpace(marker))]
	if !ok {
		return "", errors.E(errors.NotExist, fmt.Sprintf("no reference slice for marker %s", marker))
	}
	n, err := s.fa.Len(name)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	return s.fa.Get(name, 0, n)
}

// Names returns the record names in file order.
func (s *FASTAStore) Names() []string { return s.fa.SeqNames() }
