// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distmat implements a labelled symmetric distance matrix, as used
// to hold pairwise sequence distances for a SequenceFamily's alignment
// (spec.md §4 C2).
package distmat

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
)

// Matrix is a symmetric labelled numeric matrix with a zero diagonal. The
// label set must equal the member ids of the alignment it was derived
// from (spec.md §3 invariant 2).
type Matrix struct {
	labels []string
	index  map[string]int
	sym    *mat.SymDense
}

// New builds a Matrix over the given labels, in label order. The backing
// storage is zeroed; callers populate entries with Set.
func New(labels []string) *Matrix {
	idx := make(map[string]int, len(labels))
	cp := make([]string, len(labels))
	copy(cp, labels)
	for i, l := range cp {
		idx[l] = i
	}
	return &Matrix{
		labels: cp,
		index:  idx,
		sym:    mat.NewSymDense(len(cp), nil),
	}
}

// Labels returns the matrix's labels in matrix order.
func (m *Matrix) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Len returns the number of labels.
func (m *Matrix) Len() int { return len(m.labels) }

// Has reports whether label is present.
func (m *Matrix) Has(label string) bool {
	_, ok := m.index[label]
	return ok
}

// At returns the distance between a and b. It panics if either label is
// unknown, mirroring mat.Matrix.At's panic-on-out-of-range convention.
func (m *Matrix) At(a, b string) float64 {
	i, j := m.mustIndex(a), m.mustIndex(b)
	return m.sym.At(i, j)
}

// Set stores the distance between a and b (symmetric; Set(a,b) also sets
// Set(b,a)). Setting a label against itself to a non-zero value is
// rejected: the diagonal must stay zero.
func (m *Matrix) Set(a, b string, d float64) error {
	i, j := m.mustIndex(a), m.mustIndex(b)
	if i == j {
		if d != 0 {
			return fmt.Errorf("distmat: non-zero diagonal for %q", a)
		}
		return nil
	}
	m.sym.SetSym(i, j, d)
	return nil
}

func (m *Matrix) mustIndex(label string) int {
	i, ok := m.index[label]
	if !ok {
		panic(fmt.Sprintf("distmat: unknown label %q", label))
	}
	return i
}

// Rename replaces the label old with new, preserving all distances. It
// returns an error if old is unknown or new already exists.
func (m *Matrix) Rename(old, new string) error {
	i, ok := m.index[old]
	if !ok {
		return fmt.Errorf("distmat: unknown label %q", old)
	}
	if _, exists := m.index[new]; exists && new != old {
		return fmt.Errorf("distmat: label %q already exists", new)
	}
	delete(m.index, old)
	m.labels[i] = new
	m.index[new] = i
	return nil
}

// Sub returns a new Matrix restricted to the given subset of labels,
// preserving relative order. It is used after a pruning operator removes
// members, per spec.md §4.4 invalidation rules — though in practice
// pruning clears the matrix outright rather than reprojecting it; Sub
// exists for callers (e.g. bootstrap replicate construction) that need a
// consistent sub-distance-matrix without recomputation.
func (m *Matrix) Sub(labels []string) (*Matrix, error) {
	for _, l := range labels {
		if !m.Has(l) {
			return nil, fmt.Errorf("distmat: unknown label %q", l)
		}
	}
	out := New(labels)
	for i, a := range labels {
		for j := i + 1; j < len(labels); j++ {
			b := labels[j]
			err := out.Set(a, b, m.At(a, b))
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// LabelsEqual reports whether the matrix's label set equals the given set,
// ignoring order — used to check spec.md §3 invariant 2.
func (m *Matrix) LabelsEqual(labels []string) bool {
	if len(labels) != len(m.labels) {
		return false
	}
	for _, l := range labels {
		if !m.Has(l) {
			return false
		}
	}
	return true
}

// FromAlignment computes a pairwise distance matrix over a's rows under
// the named distance function. "p-distance" (and its alias "identity")
// is the only function implemented directly: 1 - (percentage identity /
// 100) over the full column range, treating a gap-versus-gap column as a
// match, matching the identity convention already used by the overlap
// engine. Any other name is an input error — computing a corrected
// distance (Jukes-Cantor, Kimura, …) is left to an external
// RUN_DISTANCE_FUNCTION tool, not this engine.
func FromAlignment(a *member.Alignment, function string) (*Matrix, error) {
	switch function {
	case "", "p-distance", "identity":
	default:
		return nil, phygerr.Newf(phygerr.Input, "distmat: unknown distance function %q", function)
	}
	ids := a.MemberIDs()
	m := New(ids)
	cols := a.Len()
	for i, id := range ids {
		ri, _ := a.RowFor(id)
		for j := i + 1; j < len(ids); j++ {
			rj, _ := a.RowFor(ids[j])
			var matches int
			for c := 0; c < cols; c++ {
				if ri.Gapped[c] == rj.Gapped[c] {
					matches++
				}
			}
			d := 1.0
			if cols > 0 {
				d = 1 - float64(matches)/float64(cols)
			}
			if err := m.Set(id, ids[j], d); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Validate checks the conditions a phylogenetic distance matrix should
// hold: square (guaranteed by construction), symmetric (guaranteed by
// SymDense), non-negative entries and zero diagonal.
func (m *Matrix) Validate() error {
	n := m.Len()
	for i := 0; i < n; i++ {
		if m.sym.At(i, i) != 0 {
			return fmt.Errorf("distmat: non-zero diagonal at %q", m.labels[i])
		}
		for j := 0; j < n; j++ {
			if m.sym.At(i, j) < 0 {
				return fmt.Errorf("distmat: negative entry between %q and %q", m.labels[i], m.labels[j])
			}
		}
	}
	return nil
}
