// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylo

import (
	"fmt"
	"sort"
	"strings"
)

// clade is a canonical, sorted, comma-joined set of leaf names, used as a
// map key representing a bipartition of the full leaf set.
type clade string

func cladeKey(names []string) clade {
	cp := append([]string(nil), names...)
	sort.Strings(cp)
	return clade(strings.Join(cp, ","))
}

// subtreeLeaves returns, for every node in t, the sorted leaf names in its
// subtree.
func subtreeLeaves(t *Tree) map[*Node][]string {
	out := make(map[*Node][]string)
	var walk func(*Node) []string
	walk = func(n *Node) []string {
		if n.IsLeaf() {
			out[n] = []string{n.Name}
			return out[n]
		}
		var names []string
		for _, c := range n.Children {
			names = append(names, walk(c)...)
		}
		sort.Strings(names)
		out[n] = names
		return names
	}
	walk(t.Root)
	return out
}

// Consensus builds a strict majority-rule consensus tree from a set of
// replicate trees sharing the same leaf set (spec.md glossary "Bootstrap
// consensus"). Internal nodes of the result carry a Support value equal
// to the percentage (0-100) of replicates containing that clade; the root
// is left with NoSupport as convention (spec.md §3). Branch lengths in the
// result are not meaningful and are set to 0 — replicate trees only
// contribute topology and clade frequency, not branch length, to a
// majority-rule consensus.
func Consensus(trees []*Tree) (*Tree, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("phylo: no replicate trees to build consensus from")
	}
	leafSet := trees[0].SortedLeafNames()
	if len(leafSet) < 2 {
		return nil, fmt.Errorf("phylo: at least two leaves required for a consensus tree")
	}
	for _, t := range trees[1:] {
		if !sameLeafSet(leafSet, t.SortedLeafNames()) {
			return nil, fmt.Errorf("phylo: replicate trees do not share a common leaf set")
		}
	}

	n := len(trees)
	counts := make(map[clade]int)
	for _, t := range trees {
		leaves := subtreeLeaves(t)
		seen := make(map[clade]bool)
		for node, names := range leaves {
			if node.IsLeaf() || len(names) == len(leafSet) {
				continue // trivial clades carry no information.
			}
			k := cladeKey(names)
			if seen[k] {
				continue
			}
			seen[k] = true
			counts[k]++
		}
	}

	type majorityClade struct {
		names   []string
		support float64
	}
	var kept []majorityClade
	for k, c := range counts {
		if c*2 <= n { // strict majority only; guarantees pairwise compatibility.
			continue
		}
		kept = append(kept, majorityClade{
			names:   strings.Split(string(k), ","),
			support: 100 * float64(c) / float64(n),
		})
	}
	sort.Slice(kept, func(i, j int) bool { return len(kept[i].names) < len(kept[j].names) })

	// groups tracks the current top-level components, keyed by a
	// canonical clade key, as the consensus tree is assembled bottom-up.
	groups := make(map[clade]*Node, len(leafSet))
	groupLeaves := make(map[clade][]string, len(leafSet))
	for _, name := range leafSet {
		k := cladeKey([]string{name})
		groups[k] = NewLeaf(name)
		groupLeaves[k] = []string{name}
	}

	isSubset := func(a, b []string) bool {
		set := make(map[string]bool, len(b))
		for _, x := range b {
			set[x] = true
		}
		for _, x := range a {
			if !set[x] {
				return false
			}
		}
		return true
	}

	for _, mc := range kept {
		var children []*Node
		var matchedKeys []clade
		for k, names := range groupLeaves {
			if isSubset(names, mc.names) {
				children = append(children, groups[k])
				matchedKeys = append(matchedKeys, k)
			}
		}
		if len(children) < 2 {
			continue // nothing new to group (can happen with degenerate input).
		}
		internal := &Node{Support: mc.support}
		for _, c := range children {
			internal.AddChild(c, 0)
		}
		for _, k := range matchedKeys {
			delete(groups, k)
			delete(groupLeaves, k)
		}
		nk := cladeKey(mc.names)
		groups[nk] = internal
		groupLeaves[nk] = mc.names
	}

	root := &Node{Support: NoSupport}
	for _, g := range groups {
		root.AddChild(g, 0)
	}
	return &Tree{Root: root}, nil
}

func sameLeafSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// MinSupport returns the minimum support value across all internal nodes
// of t, excluding the root (which carries no support by convention), and
// whether any qualifying node exists at all. Used directly by
// prune_by_bootstrap (spec.md §4.4).
func MinSupport(t *Tree) (min float64, ok bool) {
	min = 100
	for _, n := range t.Nodes() {
		if n.IsRoot() || n.IsLeaf() || n.Support == NoSupport {
			continue
		}
		if !ok || n.Support < min {
			min = n.Support
			ok = true
		}
	}
	return min, ok
}
