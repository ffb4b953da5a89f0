// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package allele parses user-supplied STR allele lists such as
// "9,10-12,14".
package allele

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// MaxAllele is the largest repeat count accepted from an allele list.
// Larger values, and ranges reaching past it, are treated as malformed.
const MaxAllele = 1000

// Policy selects how malformed tokens are treated.
type Policy int

const (
	// Lenient silently drops tokens that do not parse as finite numbers.
	Lenient Policy = iota
	// Strict reports the first malformed token as an errors.Invalid error.
	Strict
)

// String implements fmt.Stringer.
func (p Policy) String() string {
	switch p {
	case Lenient:
		return "lenient"
	case Strict:
		return "strict"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy converts "lenient" or "strict" to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "lenient", "":
		return Lenient, nil
	case "strict":
		return Strict, nil
	}
	return Lenient, errors.E(errors.Invalid, fmt.Sprintf("unknown allele parse policy %q", s))
}

// Parse returns the ascending, de-duplicated integer alleles listed in
// input, using the Lenient policy.  Tokens are separated by commas; "A-B" is
// an inclusive range in either order.  Fractional single values are not
// integer alleles and are skipped; use ParseAlleles to keep microvariants.
func Parse(input string) []int {
	v, _ := ParseWith(input, Lenient)
	return v
}

// ParseWith is like Parse, but with an explicit policy.
func ParseWith(input string, policy Policy) ([]int, error) {
	seen := map[int]bool{}
	for _, tok := range tokens(input) {
		if lo, hi, ok, isRange := parseRange(tok); isRange {
			if !ok {
				if policy == Strict {
					return nil, errors.E(errors.Invalid, fmt.Sprintf("malformed allele range %q", tok))
				}
				continue
			}
			for v := int(math.Ceil(lo)); float64(v) <= hi; v++ {
				seen[v] = true
			}
			continue
		}
		f, ok := parseNumber(tok)
		if !ok {
			if policy == Strict {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("malformed allele %q", tok))
			}
			continue
		}
		if !inBounds(f) {
			if policy == Strict {
				return nil, errors.E(errors.Invalid, fmt.Sprintf("allele %q outside [0, %d]", tok, MaxAllele))
			}
			continue
		}
		if f == math.Trunc(f) {
			seen[int(f)] = true
		}
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}

func tokens(input string) []string {
	var out []string
	for _, tok := range strings.Split(input, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// parseRange parses "A-B".  isRange is false if tok has no hyphen; ok is
// false if either end is not a number in [0, MaxAllele].
func parseRange(tok string) (lo, hi float64, ok, isRange bool) {
	i := strings.IndexByte(tok, '-')
	if i < 0 {
		return 0, 0, false, false
	}
	a, okA := parseNumber(strings.TrimSpace(tok[:i]))
	b, okB := parseNumber(strings.TrimSpace(tok[i+1:]))
	if !okA || !okB || !inBounds(a) || !inBounds(b) {
		return 0, 0, false, true
	}
	if a > b {
		a, b = b, a
	}
	return a, b, true, true
}

func inBounds(f float64) bool {
	return f >= 0 && f <= MaxAllele
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Allele is an STR allele designation.  Repeats is the number of whole
// units and Partial the number of extra bases of a microvariant, so "9.3" is
// {9, 3}.
type Allele struct {
	Repeats int
	Partial int
}

// String renders the allele as it is conventionally written, e.g. "10" or
// "9.3".
func (a Allele) String() string {
	if a.Partial == 0 {
		return strconv.Itoa(a.Repeats)
	}
	return fmt.Sprintf("%d.%d", a.Repeats, a.Partial)
}

// Less orders alleles by length.
func (a Allele) Less(b Allele) bool {
	if a.Repeats != b.Repeats {
		return a.Repeats < b.Repeats
	}
	return a.Partial < b.Partial
}

// ParseAllele parses one designation such as "10" or "9.3".  The partial
// part is a base count, not a decimal fraction: "9.10" is not valid.
func ParseAllele(s string) (Allele, error) {
	s = strings.TrimSpace(s)
	whole, frac, dot := s, "", false
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac, dot = s[:i], s[i+1:], true
	}
	r, err := strconv.Atoi(whole)
	if err != nil || r < 0 || r > MaxAllele {
		return Allele{}, errors.E(errors.Invalid, fmt.Sprintf("malformed allele %q", s))
	}
	a := Allele{Repeats: r}
	if dot {
		if len(frac) != 1 || frac[0] < '0' || frac[0] > '9' {
			return Allele{}, errors.E(errors.Invalid, fmt.Sprintf("malformed allele %q", s))
		}
		a.Partial = int(frac[0] - '0')
	}
	return a, nil
}

// ParseAlleles is the microvariant-aware counterpart of Parse.  Single tokens
// keep their partial-repeat suffix ("9.3"); ranges expand to whole alleles
// only.  Malformed tokens are dropped.
func ParseAlleles(input string) []Allele {
	seen := map[Allele]bool{}
	for _, tok := range tokens(input) {
		if lo, hi, ok, isRange := parseRange(tok); isRange {
			if ok {
				for v := int(math.Ceil(lo)); float64(v) <= hi; v++ {
					seen[Allele{Repeats: v}] = true
				}
			}
			continue
		}
		if a, err := ParseAllele(tok); err == nil {
			seen[a] = true
		}
	}
	out := make([]Allele, 0, len(seen))
	for a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Whole converts integer alleles to Allele values.
func Whole(vals []int) []Allele {
	out := make([]Allele, len(vals))
	for i, v := range vals {
		out[i] = Allele{Repeats: v}
	}
	return out
}
