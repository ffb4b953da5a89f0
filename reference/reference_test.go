// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package reference_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/strfasta/encoding/fasta"
	"github.com/grailbio/strfasta/reference"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

const slices = ">vWA chr12\nCTGTAGATAG\nATAGATAGAT\nCAGA\n>TH01\nAATGAATG\n>Empty\n"

func TestFASTAStore(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(slices))
	assert.NoError(t, err)
	s, err := reference.NewFASTAStore(fa)
	assert.NoError(t, err)
	expect.EQ(t, s.Len(), 3)
	expect.EQ(t, s.Names(), []string{"vWA", "TH01", "Empty"})

	ctx := context.Background()
	got, err := s.Fetch(ctx, "vwa")
	assert.NoError(t, err)
	expect.EQ(t, got, "CTGTAGATAGATAGATAGATCAGA")
	got, err = s.Fetch(ctx, " TH01 ")
	assert.NoError(t, err)
	expect.EQ(t, got, "AATGAATG")
	got, err = s.Fetch(ctx, "Empty")
	assert.NoError(t, err)
	expect.EQ(t, got, "")

	_, err = s.Fetch(ctx, "FGA")
	expect.True(t, errors.Is(errors.NotExist, err))
}

func TestFASTAStoreCaseCollision(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">vWA\nAC\n>VWA\nGT\n"))
	assert.NoError(t, err)
	_, err = reference.NewFASTAStore(fa)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestReadFASTAStore(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "slices.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(slices), 0644))

	ctx := context.Background()
	s, err := reference.ReadFASTAStore(ctx, path)
	assert.NoError(t, err)
	got, err := s.Fetch(ctx, "VWA")
	assert.NoError(t, err)
	expect.EQ(t, len(got), 24)

	_, err = reference.ReadFASTAStore(ctx, filepath.Join(dir, "missing.fa"))
	expect.NotNil(t, err)
}

func TestReadFASTAStoreIndexed(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	path := filepath.Join(dir, "slices.fa")
	assert.NoError(t, ioutil.WriteFile(path, []byte(slices), 0644))
	var index bytes.Buffer
	assert.NoError(t, fasta.GenerateIndex(&index, strings.NewReader(slices)))
	assert.NoError(t, ioutil.WriteFile(path+fasta.IndexSuffix, index.Bytes(), 0644))

	ctx := context.Background()
	s, err := reference.ReadFASTAStore(ctx, path)
	assert.NoError(t, err)
	expect.EQ(t, s.Names(), []string{"vWA", "TH01", "Empty"})
	got, err := s.Fetch(ctx, "vwa")
	assert.NoError(t, err)
	expect.EQ(t, got, "CTGTAGATAGATAGATAGATCAGA")
	got, err = s.Fetch(ctx, "Empty")
	assert.NoError(t, err)
	expect.EQ(t, got, "")
	assert.NoError(t, s.Close(ctx))
	assert.NoError(t, s.Close(ctx))
}

func TestFetcherFunc(t *testing.T) {
	var f reference.Fetcher = reference.FetcherFunc(func(ctx context.Context, marker string) (string, error) {
		return marker + "!", nil
	})
	got, err := f.Fetch(context.Background(), "x")
	assert.NoError(t, err)
	expect.EQ(t, got, "x!")
}
