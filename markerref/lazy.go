// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package markerref

import "sync"

// Lazy builds an Index from a catalog on first use.  All callers, including
// concurrent ones, observe the result of the single build.
type Lazy struct {
	catalog Catalog
	once    sync.Once
	idx     *Index
	err     error
}

// NewLazy returns a handle that will build the index of c when first needed.
func NewLazy(c Catalog) *Lazy {
	return &Lazy{catalog: c}
}

// Index returns the index, building it if needed.
func (l *Lazy) Index() (*Index, error) {
	l.once.Do(func() {
		l.idx, l.err = Build(l.catalog)
	})
	return l.idx, l.err
}

// Lookup is shorthand for Index followed by Index.Lookup.
func (l *Lazy) Lookup(name string) (*Refs, error) {
	idx, err := l.Index()
	if err != nil {
		return nil, err
	}
	return idx.Lookup(name)
}
