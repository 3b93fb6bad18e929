// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blast

import (
	"github.com/kortschak/phyg/config"
	"github.com/kortschak/phyg/phygerr"
)

// Field identifies one of the integer-valued fields of a Record that a
// filter expression may threshold on (spec.md §4.1).
type Field int

const (
	PctIdentityField Field = iota
	AlignmentLengthField
	MismatchesField
	GapOpensField
	EValueField
	BitScoreField
)

var fieldNames = map[string]Field{
	"pct_identity":     PctIdentityField,
	"aln_length":       AlignmentLengthField,
	"alignment_length": AlignmentLengthField,
	"mismatches":       MismatchesField,
	"gap_openings":     GapOpensField,
	"gap_opens":        GapOpensField,
	"e_value":          EValueField,
	"evalue":           EValueField,
	"bit_score":        BitScoreField,
}

// ParseField resolves a filter variable name to a Field, rejecting any
// name it does not recognise — spec.md §4.1's "unknown filter field" is
// an InputError.
func ParseField(name string) (Field, error) {
	f, ok := fieldNames[name]
	if !ok {
		return 0, phygerr.Newf(phygerr.Input, "blast: unknown filter field %q", name)
	}
	return f, nil
}

// value extracts the integer-valued reading of field from r. PctIdentity,
// EValue and BitScore are floating-point in the underlying record; the
// filter machinery compares on their truncated integer value, matching
// the integer-threshold contract of spec.md §4.1.
func (f Field) value(r Record) int {
	switch f {
	case PctIdentityField:
		return int(r.PctIdentity)
	case AlignmentLengthField:
		return r.AlignmentLength
	case MismatchesField:
		return r.Mismatches
	case GapOpensField:
		return r.GapOpens
	case EValueField:
		return int(r.EValue)
	case BitScoreField:
		return int(r.BitScore)
	default:
		return 0
	}
}

// Predicate is one (field, comparator, threshold) triple of a filter
// expression.
type Predicate struct {
	Field      Field
	Comparator config.Comparator
	Threshold  int
}

// Eval reports whether r passes this predicate.
func (p Predicate) Eval(r Record) bool {
	return p.Comparator.Eval(p.Field.value(r), p.Threshold)
}

// Expr is a filter expression: a conjunction of predicates, every one of
// which must pass for a hit to admit its subject into the query's
// cluster (spec.md §4.1).
type Expr struct {
	Predicates []Predicate
}

// Admits reports whether r satisfies every predicate in the expression.
// A self-hit always admits, regardless of the expression, per spec.md
// §4.1.
func (e Expr) Admits(r Record) bool {
	if r.SelfHit() {
		return true
	}
	for _, p := range e.Predicates {
		if !p.Eval(r) {
			return false
		}
	}
	return true
}
