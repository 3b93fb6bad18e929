// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package orchestrator

import (
	"sort"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
)

func newSet(ids ...string) (*family.ClusterSet, []string) {
	cs := family.NewClusterSet(nil)
	for _, id := range ids {
		cs.Add(family.New(id))
	}
	return cs, ids
}

func TestRunEachRunsEveryFamily(t *testing.T) {
	cs, ids := newSet("a", "b", "c", "d")
	var n int32
	p := NewPool(2)
	failed, err := p.RunEach(ids, cs, func(f *family.Family) error {
		atomic.AddInt32(&n, 1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v, want none", failed)
	}
	if n != 4 {
		t.Errorf("ran %d families, want 4", n)
	}
}

func TestRunEachBoundsConcurrency(t *testing.T) {
	cs, ids := newSet("a", "b", "c", "d", "e", "f")
	var mu sync.Mutex
	var cur, max int
	p := NewPool(2)
	_, err := p.RunEach(ids, cs, func(f *family.Family) error {
		mu.Lock()
		cur++
		if cur > max {
			max = cur
		}
		mu.Unlock()
		mu.Lock()
		cur--
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if max > 2 {
		t.Errorf("observed concurrency %d, want <= 2", max)
	}
}

func TestRunEachIsolatesToolFailure(t *testing.T) {
	cs, ids := newSet("a", "b", "c")
	p := NewPool(3)
	failed, err := p.RunEach(ids, cs, func(f *family.Family) error {
		if f.ID == "b" {
			return phygerr.Newf(phygerr.Tool, "external tool failed for %s", f.ID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunEach() err = %v, want nil (tool failures must not abort the run)", err)
	}
	if len(failed) != 1 || failed[0] != "b" {
		t.Errorf("failed = %v, want [b]", failed)
	}
}

func TestRunEachReturnsFatalError(t *testing.T) {
	cs, ids := newSet("a", "b", "c")
	p := NewPool(3)
	_, err := p.RunEach(ids, cs, func(f *family.Family) error {
		if f.ID == "a" {
			return phygerr.Newf(phygerr.Consistency, "inconsistent state")
		}
		return nil
	})
	if err == nil {
		t.Fatal("expected a fatal error for a non-Tool failure")
	}
	if !phygerr.Is(err, phygerr.Consistency) {
		t.Errorf("err = %v, want Consistency kind", err)
	}
}

func TestRunEachSkipsUnknownIDs(t *testing.T) {
	cs, _ := newSet("a")
	var ran []string
	var mu sync.Mutex
	p := NewPool(2)
	failed, err := p.RunEach([]string{"a", "missing"}, cs, func(f *family.Family) error {
		mu.Lock()
		ran = append(ran, f.ID)
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(failed) != 0 {
		t.Errorf("failed = %v, want none", failed)
	}
	sort.Strings(ran)
	if len(ran) != 1 || ran[0] != "a" {
		t.Errorf("ran = %v, want [a]", ran)
	}
}

func TestCheckPartitionAcceptsDisjointFamilies(t *testing.T) {
	cs, _ := newSet("a", "b")
	cs.Families["a"].AddMember(&member.Member{ID: "m1"})
	cs.Families["a"].AddMember(&member.Member{ID: "m2"})
	cs.Families["b"].AddMember(&member.Member{ID: "m3"})
	if err := CheckPartition(cs); err != nil {
		t.Errorf("CheckPartition() = %v, want nil for disjoint membership", err)
	}
}

func TestCheckPartitionDetectsSharedMember(t *testing.T) {
	cs, _ := newSet("a", "b")
	cs.Families["a"].AddMember(&member.Member{ID: "m1"})
	cs.Families["b"].AddMember(&member.Member{ID: "m1"})
	err := CheckPartition(cs)
	if err == nil {
		t.Fatal("expected a ConsistencyError for a member shared across families")
	}
	if !phygerr.Is(err, phygerr.Consistency) {
		t.Errorf("err = %v, want Consistency kind", err)
	}
}
