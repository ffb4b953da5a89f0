// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package markerref derives, for every marker of an STR catalog, the repeat
// unit, the reference repeat count and the sequences flanking the repeat.
//
// The derivation runs once over the catalog (Build) and produces an immutable
// Index that can be shared by any number of goroutines.  Lazy wraps Build for
// callers that want the index constructed on first use.
package markerref

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/biogo/store/llrb"
	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/strfasta/motif"
	"github.com/grailbio/strfasta/repeat"
)

// IndexMinRepeats is the minimum number of tandem units required to accept a
// representative sequence into the index.
const IndexMinRepeats = 2

// Refs is the per-marker derivation.  Refs values are never modified once
// returned.
type Refs struct {
	Marker     string
	Chromosome string
	// Motif is the canonical unit from the catalog motif field.
	Motif string
	// Unit is the unit as tandem-repeated in the source sequence: Motif, one
	// of its rotations, or a rotation of its reverse complement.
	Unit string
	// Reverse is true if Unit is on the opposite strand of Motif.
	Reverse bool
	// ReferenceRepeatCount is the number of units in the source sequence.
	ReferenceRepeatCount int
	// LeftFlank and RightFlank are the source sequence before and after the
	// repeat, upper-case.
	LeftFlank, RightFlank string
}

// Reference reassembles the sequence the refs were derived from.
func (r *Refs) Reference() string {
	return r.LeftFlank + strings.Repeat(r.Unit, r.ReferenceRepeatCount) + r.RightFlank
}

// FromRegion converts a repeat region found in seq into Refs.  The repeat
// count is the region length in motif units, rounded, and at least one.
func FromRegion(marker, chromosome, motifField, seq string, region repeat.Region) *Refs {
	m := motif.Normalize(motifField)
	n := int(math.Round(float64(region.Len()) / float64(len(m))))
	if n < 1 {
		n = 1
	}
	return &Refs{
		Marker:               marker,
		Chromosome:           chromosome,
		Motif:                m,
		Unit:                 region.Unit,
		Reverse:              region.Reverse,
		ReferenceRepeatCount: n,
		LeftFlank:            strings.ToUpper(seq[:region.Start]),
		RightFlank:           strings.ToUpper(seq[region.End:]),
	}
}

// Representative picks the candidate the index is built from: verified
// candidates first, then the longest; the earliest wins a tie.
func Representative(cands []Candidate) (Candidate, bool) {
	best := -1
	for i, c := range cands {
		if c.Sequence == "" {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := cands[best]
		if (c.Verified && !b.Verified) || (c.Verified == b.Verified && len(c.Sequence) > len(b.Sequence)) {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return cands[best], true
}

// deriveMarker builds the refs of one catalog marker.  The reason is set when
// the marker cannot be indexed.
func deriveMarker(m Marker) (refs *Refs, reason string) {
	if motif.Normalize(m.MotifField) == "" {
		return nil, "empty motif"
	}
	rep, ok := Representative(m.Candidates)
	if !ok {
		return nil, "no candidate sequence"
	}
	region, ok := repeat.FindStrict(rep.Sequence, m.MotifField, IndexMinRepeats)
	if !ok {
		return nil, fmt.Sprintf("no run of at least %d %s units", IndexMinRepeats, motif.Normalize(m.MotifField))
	}
	return FromRegion(m.Name, m.Chromosome, m.MotifField, rep.Sequence, region), ""
}

// entry is the llrb item; only key participates in comparisons.
type entry struct {
	key  string
	refs *Refs
}

// Compare implements llrb.Comparable.
func (e entry) Compare(c llrb.Comparable) int {
	return strings.Compare(e.key, c.(entry).key)
}

// Index maps upper-cased marker names to their Refs.
type Index struct {
	tree llrb.Tree
	// omitted lists catalog markers that could not be indexed, with the
	// reason.
	omitted     map[string]string
	catalogKeys []string
	fingerprint uint64
}

// Build derives the refs of every marker in the catalog.  Markers without a
// usable repeat are left out of the index; Lookup reports them as
// errors.NotExist.  Build fails only if the catalog does.
func Build(c Catalog) (*Index, error) {
	idx := &Index{omitted: map[string]string{}}
	var fp []byte
	for _, name := range c.Names() {
		m, err := c.Lookup(name)
		if err != nil {
			return nil, errors.E(err, fmt.Sprintf("markerref: lookup %s", name))
		}
		fp = appendFingerprint(fp, m)
		m.Name = strings.TrimSpace(m.Name)
		key := strings.ToUpper(m.Name)
		idx.catalogKeys = append(idx.catalogKeys, key)
		refs, reason := deriveMarker(m)
		if refs == nil {
			log.Debug.Printf("markerref: %s omitted: %s", m.Name, reason)
			idx.omitted[key] = reason
			continue
		}
		log.Debug.Printf("markerref: %s unit %s x%d, flanks %d/%d", m.Name, refs.Unit,
			refs.ReferenceRepeatCount, len(refs.LeftFlank), len(refs.RightFlank))
		idx.tree.Insert(entry{key: key, refs: refs})
	}
	idx.fingerprint = farm.Fingerprint64(fp)
	return idx, nil
}

func appendFingerprint(buf []byte, m Marker) []byte {
	appendString := func(s string) {
		var n [binary.MaxVarintLen64]byte
		buf = append(buf, n[:binary.PutUvarint(n[:], uint64(len(s)))]...)
		buf = append(buf, s...)
	}
	appendString(m.Name)
	appendString(m.Chromosome)
	appendString(m.MotifField)
	for _, c := range m.Candidates {
		appendString(c.Sequence)
		if c.Verified {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

// Len returns the number of indexed markers.
func (idx *Index) Len() int { return idx.tree.Len() }

// Fingerprint identifies the catalog content the index was built from.
func (idx *Index) Fingerprint() uint64 { return idx.fingerprint }

// Lookup returns the refs of a marker, case-insensitively.  It returns an
// errors.NotExist error if the marker is unknown or could not be indexed.
func (idx *Index) Lookup(name string) (*Refs, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if c := idx.tree.Get(entry{key: key}); c != nil {
		return c.(entry).refs, nil
	}
	if reason, ok := idx.omitted[key]; ok {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("marker %s: refs unavailable: %s", name, reason))
	}
	msg := fmt.Sprintf("marker %s not in catalog", name)
	if s := idx.Suggest(name, 3); len(s) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(s, ", "))
	}
	return nil, errors.E(errors.NotExist, msg)
}

// Names returns the indexed marker names in ascending order of their
// upper-cased form.
func (idx *Index) Names() []string {
	var names []string
	idx.Do(func(r *Refs) bool {
		names = append(names, r.Marker)
		return false
	})
	return names
}

// Do calls fn for each indexed marker in name order until fn returns true.
func (idx *Index) Do(fn func(r *Refs) bool) {
	idx.tree.Do(func(c llrb.Comparable) bool {
		return fn(c.(entry).refs)
	})
}

// Omitted returns the catalog markers that could not be indexed, mapped to
// the reason.
func (idx *Index) Omitted() map[string]string {
	m := make(map[string]string, len(idx.omitted))
	for k, v := range idx.omitted {
		m[k] = v
	}
	return m
}

// Suggest returns up to max catalog names within a small edit distance of
// name, closest first.
func (idx *Index) Suggest(name string, max int) []string {
	type cand struct {
		key  string
		dist int
	}
	var (
		key   = strings.ToUpper(strings.TrimSpace(name))
		limit = len(key)/3 + 1
		cands []cand
	)
	for _, k := range idx.catalogKeys {
		if d := matchr.Levenshtein(key, k); d <= limit {
			cands = append(cands, cand{k, d})
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	var out []string
	for i := 0; i < len(cands) && i < max; i++ {
		out = append(out, cands[i].key)
	}
	return out
}
