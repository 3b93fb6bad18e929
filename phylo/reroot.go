// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylo

import "fmt"

// RerootOnEdge reroots the tree by splitting the edge between child and
// its parent, inserting a new root node distFromChild along that edge
// (measured from child). The reroot package's midpoint/reference-strain/
// longest-member policies all reduce to a call to this primitive: leaf
// rerooting uses distFromChild == 0 (spec.md §4.5, invariant 6 — "the
// root has that leaf as a direct descendant at branch-length 0"); midpoint
// rerooting uses whatever offset the longest-path walk computed.
func (t *Tree) RerootOnEdge(child *Node, distFromChild float64) error {
	parent := child.Parent
	if parent == nil {
		return fmt.Errorf("phylo: cannot reroot on edge above the root")
	}
	edgeLen := child.ParentBr
	if distFromChild < 0 || distFromChild > edgeLen {
		return fmt.Errorf("phylo: reroot offset %g outside edge length %g", distFromChild, edgeLen)
	}

	parent.Children = removeNode(parent.Children, child)

	// Reverse the path from parent up to the old root.
	var path []*Node
	for cur := parent; cur != nil; cur = cur.Parent {
		path = append(path, cur)
	}
	lengths := make([]float64, len(path))
	for i, n := range path {
		lengths[i] = n.ParentBr
	}
	for i := 0; i < len(path)-1; i++ {
		node := path[i]
		up := path[i+1]
		length := lengths[i]
		up.Children = removeNode(up.Children, node)
		node.Children = append(node.Children, up)
		up.Parent = node
		up.ParentBr = length
	}
	parent.Parent = nil
	parent.ParentBr = 0

	newRoot := &Node{Support: NoSupport}
	newRoot.AddChild(child, distFromChild)
	newRoot.AddChild(parent, edgeLen-distFromChild)
	t.Root = newRoot

	suppressSingleChildren(t.Root)
	return nil
}

// suppressSingleChildren removes degree-2 internal nodes left behind by
// a reroot (the old root, once its far side is folded into the new root,
// may be left with exactly one child and one parent).
func suppressSingleChildren(root *Node) {
	var walk func(*Node)
	walk = func(n *Node) {
		for _, c := range append([]*Node(nil), n.Children...) {
			walk(c)
		}
		if n.Parent == nil {
			return
		}
		if len(n.Children) == 1 {
			only := n.Children[0]
			parent := n.Parent
			combined := only.ParentBr + n.ParentBr
			parent.Children = removeNode(parent.Children, n)
			parent.AddChild(only, combined)
		}
	}
	walk(root)
}
