// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package prune implements the four pruning operators of spec.md §4.4
// (C9): prune_by_align, prune_by_strains, prune_by_overlaps and
// prune_by_bootstrap. Each walks a ClusterSet, removing whole families or
// shrinking their membership, and reports what it removed so a caller can
// propagate the change per spec.md §7.
package prune

import (
	"sort"

	"github.com/kortschak/phyg/config"
	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/overlap"
	"github.com/kortschak/phyg/phygerr"
	"github.com/kortschak/phyg/phylo"
	"github.com/kortschak/phyg/strain"
)

// Result reports what a pruning operator did to a ClusterSet: the ids of
// families deleted outright, and for every surviving family whose
// membership shrank, the member ids removed from it.
type Result struct {
	FamiliesRemoved []string
	MembersRemoved  map[string][]string
}

func newResult() *Result {
	return &Result{MembersRemoved: make(map[string][]string)}
}

// AlignField is an alignment property prune_by_align can threshold on.
type AlignField int

const (
	AlignScore AlignField = iota
	AlignLength
	AlignNumResidues
	AlignNumSequences
	AlignPercentIdentity
)

var alignFieldNames = map[string]AlignField{
	"score":              AlignScore,
	"length":             AlignLength,
	"num_residues":       AlignNumResidues,
	"num_sequences":      AlignNumSequences,
	"percentage_identity": AlignPercentIdentity,
}

// ParseAlignField parses one of the five alignment property names
// spec.md §4.4 recognises for prune_by_align.
func ParseAlignField(name string) (AlignField, error) {
	f, ok := alignFieldNames[name]
	if !ok {
		return 0, phygerr.Newf(phygerr.Input, "prune: unknown alignment field %q", name)
	}
	return f, nil
}

func (f AlignField) value(a *member.Alignment) int {
	switch f {
	case AlignScore:
		return int(a.Score)
	case AlignLength:
		return a.Len()
	case AlignNumResidues:
		return a.NumResidues()
	case AlignNumSequences:
		return a.NumSequences()
	case AlignPercentIdentity:
		return int(a.PercentIdentity())
	default:
		return 0
	}
}

// AlignPredicate is one `(field, comparator, threshold)` triple used by
// prune_by_align.
type AlignPredicate struct {
	Field      AlignField
	Comparator config.Comparator
	Threshold  int
}

// Matches reports whether a's property under p.Field satisfies the
// comparison against p.Threshold.
func (p AlignPredicate) Matches(a *member.Alignment) bool {
	return p.Comparator.Eval(p.Field.value(a), p.Threshold)
}

// ByAlign removes every family in cs whose alignment matches any one of
// predicates (disjunction — spec.md §4.4's Open Question (a) is resolved
// this way, matching the tool's existing behaviour). Families with no
// alignment are never removed.
func ByAlign(cs *family.ClusterSet, predicates []AlignPredicate) *Result {
	res := newResult()
	for _, id := range cs.IDs() {
		f := cs.Families[id]
		if f.Alignment == nil {
			continue
		}
		for _, p := range predicates {
			if p.Matches(f.Alignment) {
				cs.Remove(id)
				res.FamiliesRemoved = append(res.FamiliesRemoved, id)
				break
			}
		}
	}
	return res
}

// StrainPair is one of the ordered strain-label pairs named by a
// min_distance or max_distance constraint; the two labels are unordered
// (a pair matches regardless of which member carries which label).
type StrainPair struct {
	A, B string
}

func (sp StrainPair) matches(a, b string) bool {
	return (sp.A == a && sp.B == b) || (sp.A == b && sp.B == a)
}

// StrainsOptions configures prune_by_strains.
type StrainsOptions struct {
	Composition *strain.Composition
	Strains     *strain.Table

	// MinDistance and MaxDistance name strain pairs to prioritise: pairs
	// matching MinDistance[0] come first in ascending-distance order,
	// then MinDistance[1], and so on, followed similarly (but in
	// descending-distance order) by MaxDistance, then every remaining
	// pair.
	MinDistance []StrainPair
	MaxDistance []StrainPair
}

type candidatePair struct {
	a, b string
	d    float64
}

// ByStrains implements prune_by_strains (spec.md §4.4): it orders every
// member pair by the caller's min_distance/max_distance preference lists,
// then walks the ordered list pushing both members of each pair into the
// composition until it is satisfied. A satisfying walk keeps only the
// selected members; an unsatisfiable one deletes the family.
func ByStrains(cs *family.ClusterSet, opts StrainsOptions) *Result {
	res := newResult()
	for _, id := range cs.IDs() {
		f := cs.Families[id]
		if f.Alignment == nil {
			continue
		}
		ids := f.Alignment.MemberIDs()
		if len(ids) < 2 {
			continue
		}
		dist := f.Distance
		pairs := make([]candidatePair, 0, len(ids)*(len(ids)-1)/2)
		for i := 0; i < len(ids); i++ {
			for j := i + 1; j < len(ids); j++ {
				d := 0.0
				if dist != nil && dist.Has(ids[i]) && dist.Has(ids[j]) {
					d = dist.At(ids[i], ids[j])
				}
				pairs = append(pairs, candidatePair{a: ids[i], b: ids[j], d: d})
			}
		}
		ordered := orderPairs(pairs, opts, f.ID, opts.Strains)

		opts.Composition.Reset()
		for _, p := range ordered {
			if opts.Composition.Satisfied() {
				break
			}
			pushPair(opts.Composition, opts.Strains, p.a, p.b)
		}
		if !opts.Composition.Satisfied() {
			cs.Remove(id)
			res.FamiliesRemoved = append(res.FamiliesRemoved, id)
			continue
		}

		selectedSet := make(map[string]bool)
		for _, m := range opts.Composition.Selected() {
			selectedSet[m] = true
		}
		var removed []string
		for _, mid := range ids {
			if !selectedSet[mid] {
				removed = append(removed, mid)
			}
		}
		if len(removed) > 0 {
			f.RemoveMembers(removed)
			res.MembersRemoved[id] = removed
		}
	}
	return res
}

// pushPair offers both members of a candidate pair to the composition;
// Composition.Push silently ignores a member whose strain isn't required
// or is already satisfied, so only members the composition actually
// counts end up in its Selected() set.
func pushPair(c *strain.Composition, strains *strain.Table, a, b string) {
	for _, m := range [2]string{a, b} {
		if s, ok := strains.Strain(m); ok {
			c.Push(m, s)
		}
	}
}

// orderPairs ranks pairs by the min_distance/max_distance preference
// lists in order, each bucket sorted by distance (ascending for
// min_distance, descending for max_distance), ties broken stably by
// input order; pairs matching none of the constraints come last, sorted
// by ascending distance, ties again in input order.
func orderPairs(pairs []candidatePair, opts StrainsOptions, familyID string, strains *strain.Table) []candidatePair {
	rank := make([]int, len(pairs))
	asc := make([]bool, len(pairs))
	constraint := make([]int, len(pairs))
	for i, p := range pairs {
		rank[i] = len(opts.MinDistance) + len(opts.MaxDistance)
		asc[i] = true
		sa, _ := strains.Strain(p.a)
		sb, _ := strains.Strain(p.b)
		matched := false
		for k, sp := range opts.MinDistance {
			if sp.matches(sa, sb) {
				rank[i], asc[i], constraint[i] = k, true, k
				matched = true
				break
			}
		}
		if !matched {
			for k, sp := range opts.MaxDistance {
				if sp.matches(sa, sb) {
					rank[i], asc[i], constraint[i] = len(opts.MinDistance)+k, false, len(opts.MinDistance)+k
					matched = true
					break
				}
			}
		}
	}
	idx := make([]int, len(pairs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if rank[a] != rank[b] {
			return rank[a] < rank[b]
		}
		if asc[a] {
			return pairs[a].d < pairs[b].d
		}
		return pairs[a].d > pairs[b].d
	})
	out := make([]candidatePair, len(pairs))
	for i, j := range idx {
		out[i] = pairs[j]
	}
	return out
}

// OverlapsOptions configures prune_by_overlaps.
type OverlapsOptions struct {
	Composition *strain.Composition
	Strains     *strain.Table
	Seed        overlap.SeedExtendOptions

	// TrimToWindow replaces the surviving alignment's rows with only the
	// overlap-window columns when true; otherwise the full-length rows
	// of the selected members are kept.
	TrimToWindow bool
}

// ByOverlaps implements prune_by_overlaps (spec.md §4.4): it runs
// overlap.SeedAndExtend against each family's current alignment; a
// satisfying selection replaces the alignment with the selected members'
// rows (optionally trimmed to the overlap window), invalidating
// distance/tree/bootstrap. Families with no satisfying selection, or
// fewer than two members, are deleted.
func ByOverlaps(cs *family.ClusterSet, opts OverlapsOptions) *Result {
	res := newResult()
	for _, id := range cs.IDs() {
		f := cs.Families[id]
		if f.Alignment == nil || overlap.RequireMinMembers(f.Alignment) != nil {
			cs.Remove(id)
			res.FamiliesRemoved = append(res.FamiliesRemoved, id)
			continue
		}
		m, err := overlap.Build(f.Alignment)
		if err != nil {
			cs.Remove(id)
			res.FamiliesRemoved = append(res.FamiliesRemoved, id)
			continue
		}
		strainOf := func(memberID string) (string, bool) { return opts.Strains.Strain(memberID) }
		selected, entry, ok := overlap.SeedAndExtend(m, opts.Composition, strainOf, opts.Seed)
		if !ok {
			cs.Remove(id)
			res.FamiliesRemoved = append(res.FamiliesRemoved, id)
			continue
		}

		selectedSet := make(map[string]bool, len(selected))
		for _, s := range selected {
			selectedSet[s] = true
		}
		var removed []string
		for _, mid := range f.Alignment.MemberIDs() {
			if !selectedSet[mid] {
				removed = append(removed, mid)
			}
		}
		if len(removed) > 0 {
			res.MembersRemoved[id] = removed
		}

		newRows := make([]member.Row, 0, len(selected))
		for _, mid := range selected {
			row, _ := f.Alignment.RowFor(mid)
			if opts.TrimToWindow {
				row.Gapped = row.Gapped[entry.Start : entry.End+1]
			}
			newRows = append(newRows, row)
		}
		f.Alignment.Rows = newRows
		f.RemoveMembers(removed)
		f.Invalidate(false)
	}
	return res
}

// ByBootstrap implements prune_by_bootstrap (spec.md §4.4): removes any
// family whose Bootstrap tree carries a non-root node with support below
// cutoff.
func ByBootstrap(cs *family.ClusterSet, cutoff float64) *Result {
	res := newResult()
	for _, id := range cs.IDs() {
		f := cs.Families[id]
		if f.Bootstrap == nil {
			continue
		}
		min, ok := phylo.MinSupport(f.Bootstrap)
		if ok && min < cutoff {
			cs.Remove(id)
			res.FamiliesRemoved = append(res.FamiliesRemoved, id)
		}
	}
	return res
}
