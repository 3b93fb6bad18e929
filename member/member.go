// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package member provides the sequence family's smallest building block:
// a Member (a raw nucleotide sequence optionally placed within an
// Alignment) and the Alignment itself — an ordered collection of gapped
// rows sharing a column count.
package member

import (
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
)

// Strand is the orientation of a Member's placement within an Alignment.
type Strand int8

const (
	Plus  Strand = 1
	Minus Strand = -1
)

// Member is one sequence belonging to one family. Sequence is the raw,
// ungapped nucleotide sequence; it is owned by the family regardless of
// whether the Member additionally appears as a Row in the family's
// Alignment, per the family/alignment row-ownership split in spec.md §3.
type Member struct {
	ID       string
	Sequence *linear.Seq
	Strain   string
}

// Len returns the ungapped sequence length, or 0 if Sequence is nil.
func (m *Member) Len() int {
	if m.Sequence == nil {
		return 0
	}
	return m.Sequence.Len()
}

// Row is a Member's placement within an Alignment: the gapped string
// together with the half-open-free start/end coordinates (0-based,
// inclusive) in the member's own ungapped coordinate system, and the
// strand it was placed on.
type Row struct {
	MemberID string
	Start    int
	End      int
	Strand   Strand
	Gapped   string
}

// Ungapped returns Gapped with gap characters stripped.
func (r Row) Ungapped() string {
	return strings.Map(func(c rune) rune {
		if c == '-' {
			return -1
		}
		return c
	}, r.Gapped)
}

// Alignment is an ordered collection of Members with equal gapped column
// count. Row order is significant for deterministic output but carries no
// other semantics; rows are addressed by MemberID.
type Alignment struct {
	Rows []Row

	// Consensus is the alignment's consensus sequence, if computed.
	Consensus alphabet.Letters

	// Description, Score and Source are free-form metadata, e.g. an
	// external aligner's reported alignment score.
	Description string
	Score       float64
	Source      string
}

// Len returns the shared gapped column count, or 0 for an empty alignment.
func (a *Alignment) Len() int {
	if len(a.Rows) == 0 {
		return 0
	}
	return len(a.Rows[0].Gapped)
}

// NumSequences returns the number of rows in the alignment.
func (a *Alignment) NumSequences() int { return len(a.Rows) }

// Validate checks the invariants spec.md §3 places on an Alignment: every
// row has identical column count, start <= end, and member ids are unique.
func (a *Alignment) Validate() error {
	if len(a.Rows) == 0 {
		return nil
	}
	n := len(a.Rows[0].Gapped)
	seen := make(map[string]bool, len(a.Rows))
	for _, r := range a.Rows {
		if len(r.Gapped) != n {
			return errColumnMismatch{id: r.MemberID, want: n, got: len(r.Gapped)}
		}
		if r.Start > r.End {
			return errBadSpan{id: r.MemberID, start: r.Start, end: r.End}
		}
		if seen[r.MemberID] {
			return errDuplicateMember{id: r.MemberID}
		}
		seen[r.MemberID] = true
	}
	return nil
}

// RowFor returns the row for the given member id and whether it was found.
func (a *Alignment) RowFor(id string) (Row, bool) {
	for _, r := range a.Rows {
		if r.MemberID == id {
			return r, true
		}
	}
	return Row{}, false
}

// MemberIDs returns the member ids present in the alignment, in row order.
func (a *Alignment) MemberIDs() []string {
	ids := make([]string, len(a.Rows))
	for i, r := range a.Rows {
		ids[i] = r.MemberID
	}
	return ids
}

// NumResidues returns the sum of ungapped residue counts across every row.
func (a *Alignment) NumResidues() int {
	var n int
	for _, r := range a.Rows {
		for _, c := range r.Gapped {
			if c != '-' {
				n++
			}
		}
	}
	return n
}

// PercentIdentity returns the average pairwise identity across every pair
// of rows, over the full column range, treating a gap-vs-gap column as a
// match (the same convention the overlap engine uses). It returns 0 for
// an alignment of fewer than two rows.
func (a *Alignment) PercentIdentity() float64 {
	n := len(a.Rows)
	if n < 2 {
		return 0
	}
	cols := a.Len()
	var sum float64
	var pairs int
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ri, rj := a.Rows[i].Gapped, a.Rows[j].Gapped
			var matches int
			for c := 0; c < cols; c++ {
				if ri[c] == rj[c] {
					matches++
				}
			}
			if cols > 0 {
				sum += float64(matches) / float64(cols) * 100
			}
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// Bounds returns the first and last non-gap columns (0-based, inclusive) of
// the row. ok is false if the row is entirely gaps.
func (r Row) Bounds() (start, end int, ok bool) {
	start, end = -1, -1
	for i, c := range r.Gapped {
		if c != '-' {
			if start == -1 {
				start = i
			}
			end = i
		}
	}
	return start, end, start != -1
}

type errColumnMismatch struct {
	id        string
	want, got int
}

func (e errColumnMismatch) Error() string {
	return "member: row " + e.id + " column count mismatch"
}

type errBadSpan struct {
	id         string
	start, end int
}

func (e errBadSpan) Error() string {
	return "member: row " + e.id + " has start after end"
}

type errDuplicateMember struct{ id string }

func (e errDuplicateMember) Error() string {
	return "member: duplicate member id " + e.id + " in alignment"
}
