// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phylo

import (
	"math"
	"testing"
)

func TestNewickRoundTrip(t *testing.T) {
	const nwk = "((L1:0.1,L2:0.2):0.05,(L3:0.3,L4:0.4):0.05);"
	tr, err := ParseNewick(nwk)
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.Newick(); got != nwk {
		t.Errorf("Newick() = %q, want %q", got, nwk)
	}
	names := tr.SortedLeafNames()
	want := []string{"L1", "L2", "L3", "L4"}
	if len(names) != len(want) {
		t.Fatalf("leaf names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("leaf names = %v, want %v", names, want)
		}
	}

	l1, ok := tr.ByName("L1")
	if !ok {
		t.Fatal("L1 not found")
	}
	l4, ok := tr.ByName("L4")
	if !ok {
		t.Fatal("L4 not found")
	}
	d := Distance(l1, l4)
	if math.Abs(d-0.6) > 1e-9 {
		t.Errorf("Distance(L1,L4) = %v, want 0.6", d)
	}
}

func TestRerootOnEdgeLeafZeroLength(t *testing.T) {
	tr, err := ParseNewick("((L1:0.1,L2:0.2):0.05,(L3:0.3,L4:0.4):0.05);")
	if err != nil {
		t.Fatal(err)
	}
	l1, _ := tr.ByName("L1")
	err = tr.RerootOnEdge(l1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Root.Children[0] != l1 {
		t.Fatalf("root's first child should be L1, got %v", tr.Root.Children[0].Name)
	}
	if l1.ParentBr != 0 {
		t.Errorf("L1 branch length from new root = %v, want 0", l1.ParentBr)
	}
	// Every original leaf should still be reachable.
	names := tr.SortedLeafNames()
	if len(names) != 4 {
		t.Fatalf("leaf count after reroot = %d, want 4", len(names))
	}
}

func TestMinSupport(t *testing.T) {
	tr, err := ParseNewick("((L1:0.1,L2:0.2)80:0.1,(L3:0.1,L4:0.1)55:0.1)90:0;")
	if err != nil {
		t.Fatal(err)
	}
	min, ok := MinSupport(tr)
	if !ok {
		t.Fatal("expected a support value")
	}
	if min != 55 {
		t.Errorf("MinSupport() = %v, want 55", min)
	}
}

func TestConsensusMajority(t *testing.T) {
	trees := make([]*Tree, 0, 3)
	for _, nwk := range []string{
		"((A:1,B:1):1,(C:1,D:1):1);",
		"((A:1,B:1):1,(C:1,D:1):1);",
		"((A:1,C:1):1,(B:1,D:1):1);",
	} {
		tr, err := ParseNewick(nwk)
		if err != nil {
			t.Fatal(err)
		}
		trees = append(trees, tr)
	}
	cons, err := Consensus(trees)
	if err != nil {
		t.Fatal(err)
	}
	min, ok := MinSupport(cons)
	if !ok {
		t.Fatal("expected a majority clade to survive")
	}
	if min < 66 {
		t.Errorf("MinSupport() = %v, want >= 66 (2/3 majority)", min)
	}
}
