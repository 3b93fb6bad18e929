// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package family implements the SequenceFamily aggregate and the
// ClusterSet that owns a collection of them (spec.md §3, C4).
package family

import (
	"sort"

	"github.com/kortschak/phyg/distmat"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
	"github.com/kortschak/phyg/phylo"
	"github.com/kortschak/phyg/strain"
)

// Family is one sequence family: a set of Members together with whatever
// downstream artifacts have been computed for it. Members are owned by
// the family; the alignment (when present) owns the gapped row for each
// of its rows, per spec.md §3's row-ownership split.
type Family struct {
	ID      string
	Members map[string]*member.Member

	Alignment *member.Alignment
	Distance  *distmat.Matrix
	Tree      *phylo.Tree
	Bootstrap *phylo.Tree
}

// New returns an empty Family with the given id.
func New(id string) *Family {
	return &Family{ID: id, Members: make(map[string]*member.Member)}
}

// AddMember adds m to the family. It does not touch the alignment; the
// caller is responsible for extending the alignment (or leaving m
// unaligned) separately.
func (f *Family) AddMember(m *member.Member) {
	f.Members[m.ID] = m
}

// MemberIDs returns the family's member ids, sorted for determinism.
func (f *Family) MemberIDs() []string {
	ids := make([]string, 0, len(f.Members))
	for id := range f.Members {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Invalidate clears every downstream artifact (distance, tree,
// bootstrap), and optionally the alignment, per spec.md §3 invariant 4:
// mutating membership invalidates everything downstream of it unless an
// operator explicitly preserves it.
func (f *Family) Invalidate(clearAlignment bool) {
	if clearAlignment {
		f.Alignment = nil
	}
	f.Distance = nil
	f.Tree = nil
	f.Bootstrap = nil
}

// RemoveMembers deletes the named member ids from the family, and from
// the alignment if one is present, invalidating distance/tree/bootstrap.
// It reports the ids actually removed (ids not present in the family are
// ignored).
func (f *Family) RemoveMembers(ids []string) []string {
	var removed []string
	for _, id := range ids {
		if _, ok := f.Members[id]; !ok {
			continue
		}
		delete(f.Members, id)
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return nil
	}
	if f.Alignment != nil {
		keep := f.Alignment.Rows[:0]
		removedSet := make(map[string]bool, len(removed))
		for _, id := range removed {
			removedSet[id] = true
		}
		for _, r := range f.Alignment.Rows {
			if !removedSet[r.MemberID] {
				keep = append(keep, r)
			}
		}
		f.Alignment.Rows = keep
	}
	f.Invalidate(false)
	return removed
}

// Validate checks the invariants spec.md §3 places on a Family: alignment
// membership is a subset of family membership, distance labels match
// alignment membership, and tree leaves match alignment membership.
// Artifacts that are nil are trivially consistent.
func (f *Family) Validate() error {
	if f.Alignment != nil {
		for _, id := range f.Alignment.MemberIDs() {
			if _, ok := f.Members[id]; !ok {
				return phygerr.Newf(phygerr.Consistency, "family %s: alignment member %q not in family", f.ID, id)
			}
		}
		if f.Distance != nil && !f.Distance.LabelsEqual(f.Alignment.MemberIDs()) {
			return phygerr.Newf(phygerr.Consistency, "family %s: distance labels diverge from alignment members", f.ID)
		}
		if f.Tree != nil {
			want := make(map[string]bool, len(f.Alignment.Rows))
			for _, id := range f.Alignment.MemberIDs() {
				want[id] = true
			}
			got := f.Tree.LeafNames()
			if len(got) != len(want) {
				return phygerr.Newf(phygerr.Consistency, "family %s: tree leaf count diverges from alignment", f.ID)
			}
			for _, l := range got {
				if !want[l] {
					return phygerr.Newf(phygerr.Consistency, "family %s: tree leaf %q not in alignment", f.ID, l)
				}
			}
		}
	}
	return nil
}

// ClusterSet owns a collection of Families keyed by family id, together
// with the strain table shared across all of them (spec.md §3).
type ClusterSet struct {
	Families map[string]*Family
	Strains  *strain.Table

	// DistanceCache and BootstrapCache, when non-nil, back an optional
	// on-disk global cache keyed by an encoding of (family id, contributing
	// member ids) — see CacheKey in cache.go.
	DistanceCache  Cache
	BootstrapCache Cache
}

// NewClusterSet returns an empty ClusterSet using the given strain table (nil is
// permitted; no member will resolve a strain until one is set).
func NewClusterSet(strains *strain.Table) *ClusterSet {
	if strains == nil {
		strains = strain.NewTable()
	}
	return &ClusterSet{Families: make(map[string]*Family), Strains: strains}
}

// Add inserts f into the set, keyed by f.ID.
func (cs *ClusterSet) Add(f *Family) { cs.Families[f.ID] = f }

// Remove deletes the family with the given id.
func (cs *ClusterSet) Remove(id string) { delete(cs.Families, id) }

// IDs returns the family ids present, sorted for determinism.
func (cs *ClusterSet) IDs() []string {
	ids := make([]string, 0, len(cs.Families))
	for id := range cs.Families {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MemberOwner reports which family owns member id, across the whole set.
// It is read-mostly shared state per spec.md §5's concurrency model:
// mutate only between phases.
func (cs *ClusterSet) MemberOwner(id string) (string, bool) {
	for _, f := range cs.Families {
		if _, ok := f.Members[id]; ok {
			return f.ID, true
		}
	}
	return "", false
}

// CheckConsistency validates every family in the set and additionally
// checks that no member id is owned by more than one family — the
// cross-family leakage precondition named in SPEC_FULL.md's orchestrator
// diagnostics.
func (cs *ClusterSet) CheckConsistency() error {
	seen := make(map[string]string)
	for _, id := range cs.IDs() {
		f := cs.Families[id]
		if err := f.Validate(); err != nil {
			return err
		}
		for m := range f.Members {
			if owner, ok := seen[m]; ok {
				return phygerr.Newf(phygerr.Consistency, "member %q owned by both %s and %s", m, owner, f.ID)
			}
			seen[m] = f.ID
		}
	}
	return nil
}
