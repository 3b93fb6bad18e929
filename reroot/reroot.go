// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reroot implements the three re-rooting policies of spec.md
// §4.5 (C10): midpoint, reference-strain and longest-member. Each
// reduces to a single call of phylo.Tree.RerootOnEdge.
package reroot

import "github.com/kortschak/phyg/phylo"

// Midpoint reroots t at the midpoint of its longest leaf-to-leaf path:
// it walks that path accumulating branch lengths until half the total
// is reached, and inserts the new root there. It is a no-op (ok=false,
// err=nil) when the tree has fewer than two leaves, is missing branch
// lengths, or the longest path has zero length — all "degenerate tree"
// cases spec.md §4.5 leaves undefined.
func Midpoint(t *phylo.Tree) (ok bool, err error) {
	leaves := t.Leaves()
	if len(leaves) < 2 || !t.HasBranchLengths() {
		return false, nil
	}

	var bestA, bestB *phylo.Node
	bestDist := -1.0
	for i, a := range leaves {
		for _, b := range leaves[i+1:] {
			d := phylo.Distance(a, b)
			if d > bestDist {
				bestDist, bestA, bestB = d, a, b
			}
		}
	}
	if bestDist <= 0 {
		return false, nil
	}

	path := phylo.PathBetween(bestA, bestB)
	cum := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		cum[i] = cum[i-1] + phylo.EdgeLength(path[i-1], path[i])
	}
	total := cum[len(cum)-1]
	half := total / 2

	for i := 0; i < len(path)-1; i++ {
		if half < cum[i] || half > cum[i+1] {
			continue
		}
		offset := half - cum[i]
		edgeLen := cum[i+1] - cum[i]

		child, distFromChild := path[i], offset
		if path[i].Parent != path[i+1] {
			// path[i+1] is the child side of this edge.
			child, distFromChild = path[i+1], edgeLen-offset
		}
		if err := t.RerootOnEdge(child, distFromChild); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ReferenceStrain reroots t at the leaf of the given strain furthest
// (by branch-length distance) from the lowest common ancestor of every
// leaf belonging to that strain; if exactly one leaf matches, it is
// used directly. If no leaf belongs to strainName, the family is
// reported as failed and left unchanged, per spec.md §4.5.
func ReferenceStrain(t *phylo.Tree, strainOf func(leafName string) (string, bool), strainName string) (failed bool, err error) {
	var matches []*phylo.Node
	for _, l := range t.Leaves() {
		if s, ok := strainOf(l.Name); ok && s == strainName {
			matches = append(matches, l)
		}
	}
	if len(matches) == 0 {
		return true, nil
	}
	target := matches[0]
	if len(matches) > 1 {
		lca := matches[0]
		for _, m := range matches[1:] {
			lca = phylo.LCA(lca, m)
		}
		bestDist := -1.0
		for _, m := range matches {
			d := phylo.Distance(m, lca)
			if d > bestDist {
				bestDist, target = d, m
			}
		}
	}
	if target.Parent == nil {
		return false, nil
	}
	return false, t.RerootOnEdge(target, 0)
}

// LongestMember reroots t at the leaf whose underlying sequence is
// longest (lengthOf reports that length by leaf name, not branch
// length). Ties keep the first leaf encountered in pre-order.
func LongestMember(t *phylo.Tree, lengthOf func(leafName string) int) (ok bool, err error) {
	leaves := t.Leaves()
	if len(leaves) == 0 {
		return false, nil
	}
	best := leaves[0]
	bestLen := lengthOf(best.Name)
	for _, l := range leaves[1:] {
		if n := lengthOf(l.Name); n > bestLen {
			best, bestLen = l, n
		}
	}
	if best.Parent == nil {
		return false, nil
	}
	return true, t.RerootOnEdge(best, 0)
}
