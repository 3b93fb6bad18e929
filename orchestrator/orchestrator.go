// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package orchestrator runs per-family work across a ClusterSet using a
// fixed-size worker pool (spec.md §5): the strain table and member index
// stay read-mostly while families are processed, and a ToolFailure on one
// family never stops its siblings. The acquire/release semaphore and
// WaitGroup pairing is the same pattern
// biogo-examples/igor/victor's connector uses for parallel family-pair
// intersection.
package orchestrator

import (
	"sort"
	"strings"
	"sync"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/phygerr"
)

// Stage is one per-family unit of work: alignment, distance, tree,
// bootstrap, or a pruning predicate evaluated per family.
type Stage func(f *family.Family) error

// Pool runs Stages across many families with at most n concurrent.
type Pool struct {
	limit chan struct{}
}

// NewPool returns a Pool that runs at most n families concurrently; n<=0
// is treated as 1.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = 1
	}
	return &Pool{limit: make(chan struct{}, n)}
}

// RunEach runs stage for every family id in ids concurrently, bounded by
// the pool's size. A *phygerr.Error of Kind Tool is collected into the
// returned failed list and does not stop the other families (spec.md §7);
// any other error aborts and is returned directly once every in-flight
// worker has finished — there is no cancellation (spec.md §5: all work is
// batch).
func (p *Pool) RunEach(ids []string, cs *family.ClusterSet, stage Stage) (failed []string, err error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		fatalErr error
	)
	for _, id := range ids {
		id := id
		f, ok := cs.Families[id]
		if !ok {
			continue
		}
		p.limit <- struct{}{}
		mu.Lock()
		stop := fatalErr != nil
		mu.Unlock()
		if stop {
			<-p.limit
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-p.limit }()

			e := stage(f)
			if e == nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if phygerr.Is(e, phygerr.Tool) {
				failed = append(failed, id)
			} else if fatalErr == nil {
				fatalErr = e
			}
		}()
	}
	wg.Wait()
	return failed, fatalErr
}

// CheckPartition verifies that no member id is claimed by more than one
// family in cs — the uniqueness half of spec.md §3's ownership model,
// and a ConsistencyError precondition every per-family stage in this
// package relies on. It links each family to the members it claims in an
// undirected graph and runs connected-component analysis over it
// (gonum/graph/topo, the same analysis biogo-examples/igor/victor runs
// over its repeat-family graph): a component touching more than one
// family node means some member bridges them.
func CheckPartition(cs *family.ClusterSet) error {
	g := simple.NewUndirectedGraph()
	nodeOf := make(map[string]int64)
	familyOf := make(map[int64]string)
	var next int64
	ensure := func(key string) int64 {
		if id, ok := nodeOf[key]; ok {
			return id
		}
		id := next
		next++
		nodeOf[key] = id
		g.AddNode(simple.Node(id))
		return id
	}

	for _, fid := range cs.IDs() {
		f := cs.Families[fid]
		fn := ensure("family:" + fid)
		familyOf[fn] = fid
		for _, mid := range f.MemberIDs() {
			mn := ensure("member:" + mid)
			if fn != mn && !g.HasEdgeBetween(fn, mn) {
				g.SetEdge(simple.Edge{F: simple.Node(fn), T: simple.Node(mn)})
			}
		}
	}

	for _, component := range topo.ConnectedComponents(g) {
		var shared []string
		for _, n := range component {
			if fid, ok := familyOf[n.ID()]; ok {
				shared = append(shared, fid)
			}
		}
		if len(shared) > 1 {
			sort.Strings(shared)
			return phygerr.Newf(phygerr.Consistency, "orchestrator: member shared across families %s", strings.Join(shared, ", "))
		}
	}
	return nil
}
