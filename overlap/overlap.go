// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package overlap computes the pairwise overlap geometry of an
// alignment's rows and the seed-and-extend algorithm used by
// prune-by-overlap to assemble a maximal jointly-overlapping submember
// set (spec.md §4.3, C8).
package overlap

import (
	"sort"

	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
	"github.com/kortschak/phyg/strain"
)

// Entry is one cell of the overlap Matrix: the intersected column range
// of a row pair, its length, and the percentage identity computed over
// the overlap slice (gap-versus-gap columns count as matches, per the
// contract spec.md leaves open).
type Entry struct {
	Start, End int
	Length     int
	Identity   float64
}

// Method selects between the two overlap ranking rules named in spec.md
// §4.3.
type Method int

const (
	// ByLength ranks purely by overlap length ("best-overlap").
	ByLength Method = iota
	// ByScore ranks by length·(identity/100)² ("best-overlap-score"),
	// penalising short high-identity pairs and long low-identity pairs
	// symmetrically.
	ByScore
)

// Score returns e's ranking value under method.
func (e Entry) Score(method Method) float64 {
	switch method {
	case ByScore:
		frac := e.Identity / 100
		return float64(e.Length) * frac * frac
	default:
		return float64(e.Length)
	}
}

// Matrix is the symmetric N×N overlap matrix of an alignment's rows,
// addressed by member id.
type Matrix struct {
	ids    []string
	index  map[string]int
	bounds map[string][2]int // id -> [start,end], 0-based inclusive; end<start means all-gap row.
	rows   map[string]string // id -> gapped row, for identity computation.
	cells  [][]Entry
}

// Build computes the overlap matrix for every row pair in a.
func Build(a *member.Alignment) (*Matrix, error) {
	ids := a.MemberIDs()
	m := &Matrix{
		ids:    ids,
		index:  make(map[string]int, len(ids)),
		bounds: make(map[string][2]int, len(ids)),
		rows:   make(map[string]string, len(ids)),
	}
	for i, id := range ids {
		m.index[id] = i
		r, _ := a.RowFor(id)
		m.rows[id] = r.Gapped
		s, e, ok := r.Bounds()
		if !ok {
			s, e = 0, -1
		}
		m.bounds[id] = [2]int{s, e}
	}
	n := len(ids)
	m.cells = make([][]Entry, n)
	for i := range m.cells {
		m.cells[i] = make([]Entry, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			e := m.compute(ids[i], ids[j])
			m.cells[i][j] = e
			m.cells[j][i] = e
		}
	}
	return m, nil
}

func (m *Matrix) compute(a, b string) Entry {
	ba, bb := m.bounds[a], m.bounds[b]
	s := max(ba[0], bb[0])
	e := min(ba[1], bb[1])
	if e < s {
		return Entry{}
	}
	return Entry{Start: s, End: e, Length: e - s + 1, Identity: m.identity(a, b, s, e)}
}

// identity computes percentage identity over the gapped columns [s,e]
// (0-based inclusive) comparing rows a and b; gap-versus-gap columns
// count as matches.
func (m *Matrix) identity(a, b string, s, e int) float64 {
	if e < s {
		return 0
	}
	ra, rb := m.rows[a], m.rows[b]
	matches, total := 0, 0
	for i := s; i <= e; i++ {
		if i >= len(ra) || i >= len(rb) {
			continue
		}
		total++
		if ra[i] == rb[i] {
			matches++
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(matches) / float64(total)
}

// At returns the overlap Entry for member ids a and b. It panics if
// either id is unknown in the matrix.
func (m *Matrix) At(a, b string) Entry {
	i, iok := m.index[a]
	j, jok := m.index[b]
	if !iok || !jok {
		panic("overlap: unknown member id")
	}
	if i == j {
		return Entry{}
	}
	return m.cells[i][j]
}

// IDs returns the matrix's member ids.
func (m *Matrix) IDs() []string {
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}

// Pair is an unordered pair of member ids together with their overlap
// Entry.
type Pair struct {
	A, B  string
	Entry Entry
}

// BestOverlap returns the pair maximising overlap length. Re-running on
// the same matrix is idempotent (ties broken by id order), per spec.md
// §7 invariant 4.
func (m *Matrix) BestOverlap() (Pair, bool) {
	return m.best(ByLength)
}

// BestOverlapScore returns the pair maximising length·(identity/100)².
func (m *Matrix) BestOverlapScore() (Pair, bool) {
	return m.best(ByScore)
}

func (m *Matrix) best(method Method) (Pair, bool) {
	var (
		best   Pair
		bestOK bool
		bestSc float64
	)
	n := len(m.ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			e := m.cells[i][j]
			if e.Length == 0 {
				continue
			}
			sc := e.Score(method)
			if !bestOK || sc > bestSc {
				best = Pair{A: m.ids[i], B: m.ids[j], Entry: e}
				bestSc = sc
				bestOK = true
			}
		}
	}
	return best, bestOK
}

// SeedExtendOptions configures the seed-and-extend algorithm used by
// prune-by-overlap (spec.md §4.3).
type SeedExtendOptions struct {
	Method Method

	// MinLength and MinIdentity are optional floors a seed pair must
	// clear to be considered; zero disables the corresponding floor.
	MinLength   int
	MinIdentity float64

	// EvalSeed caps how many top-ranked seed pairs are tried; zero
	// means try them all.
	EvalSeed int
}

// strainOf resolves a member id to its strain label.
type strainOf func(memberID string) (string, bool)

// SeedAndExtend builds the maximal jointly-overlapping submember set
// satisfying composition, trying the top-ranked seed pairs of m in turn
// and extending each by repeatedly adding the highest-scoring remaining
// row until composition is satisfied, then keeping whichever attempt's
// final global overlap scores highest under opts.Method. It reports
// false if no seed produced a satisfying, non-empty overlap.
func SeedAndExtend(m *Matrix, composition *strain.Composition, strains strainOf, opts SeedExtendOptions) ([]string, Entry, bool) {
	seeds := m.rankedPairs(opts.Method, opts.MinLength, opts.MinIdentity)
	if opts.EvalSeed > 0 && len(seeds) > opts.EvalSeed {
		seeds = seeds[:opts.EvalSeed]
	}

	var (
		bestSelected []string
		bestEntry    Entry
		bestScore    float64
		found        bool
	)
	for _, seed := range seeds {
		selected, entry, ok := extendFrom(m, composition, strains, seed, opts.Method)
		if !ok {
			continue
		}
		sc := entry.Score(opts.Method)
		if !found || sc > bestScore {
			bestSelected, bestEntry, bestScore, found = selected, entry, sc, true
		}
	}
	return bestSelected, bestEntry, found
}

func extendFrom(m *Matrix, composition *strain.Composition, strains strainOf, seed Pair, method Method) ([]string, Entry, bool) {
	composition.Reset()
	selectedSet := map[string]bool{seed.A: true, seed.B: true}
	selected := []string{seed.A, seed.B}
	s, e := seed.Entry.Start, seed.Entry.End

	pushComposition(composition, strains, seed.A)
	pushComposition(composition, strains, seed.B)

	for !composition.Satisfied() {
		cand, candEntry, ok := bestExtension(m, selectedSet, s, e, method)
		if !ok {
			break
		}
		selected = append(selected, cand)
		selectedSet[cand] = true
		s, e = candEntry.Start, candEntry.End
		pushComposition(composition, strains, cand)
	}
	if !composition.Satisfied() {
		return nil, Entry{}, false
	}

	global := globalOverlap(m, selected, s, e)
	if global.Length <= 0 {
		return nil, Entry{}, false
	}
	return selected, global, true
}

// bestExtension finds the unselected row whose overseed score — the
// score the intersection of [s,e] with that row's bounds would yield —
// is highest, computing identity against every already-selected row
// over the intersected range.
func bestExtension(m *Matrix, selected map[string]bool, s, e int, method Method) (string, Entry, bool) {
	var (
		bestID    string
		bestEntry Entry
		bestSc    float64
		bestOK    bool
	)
	for _, id := range m.ids {
		if selected[id] {
			continue
		}
		b := m.bounds[id]
		ns, ne := max(s, b[0]), min(e, b[1])
		if ne < ns {
			continue
		}
		identitySum, n := 0.0, 0
		for sel := range selected {
			identitySum += m.identity(sel, id, ns, ne)
			n++
		}
		avg := 0.0
		if n > 0 {
			avg = identitySum / float64(n)
		}
		entry := Entry{Start: ns, End: ne, Length: ne - ns + 1, Identity: avg}
		sc := entry.Score(method)
		if !bestOK || sc > bestSc {
			bestID, bestEntry, bestSc, bestOK = id, entry, sc, true
		}
	}
	return bestID, bestEntry, bestOK
}

// globalOverlap computes the final overlap Entry across every selected
// row, restricted to [s,e], with identity averaged over all pairs.
func globalOverlap(m *Matrix, selected []string, s, e int) Entry {
	if e < s {
		return Entry{}
	}
	var sum float64
	n := 0
	for i := 0; i < len(selected); i++ {
		for j := i + 1; j < len(selected); j++ {
			sum += m.identity(selected[i], selected[j], s, e)
			n++
		}
	}
	identity := 0.0
	if n > 0 {
		identity = sum / float64(n)
	}
	return Entry{Start: s, End: e, Length: e - s + 1, Identity: identity}
}

func pushComposition(c *strain.Composition, strains strainOf, id string) {
	if strains == nil {
		return
	}
	if s, ok := strains(id); ok {
		c.Push(id, s)
	}
}

// rankedPairs returns every row pair whose overlap clears minLength and
// minIdentity, sorted by descending score under method, ties broken
// stably by id order.
func (m *Matrix) rankedPairs(method Method, minLength int, minIdentity float64) []Pair {
	var pairs []Pair
	n := len(m.ids)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			e := m.cells[i][j]
			if e.Length == 0 {
				continue
			}
			if minLength > 0 && e.Length < minLength {
				continue
			}
			if minIdentity > 0 && e.Identity < minIdentity {
				continue
			}
			pairs = append(pairs, Pair{A: m.ids[i], B: m.ids[j], Entry: e})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Entry.Score(method) > pairs[j].Entry.Score(method)
	})
	return pairs
}

// RequireMinMembers returns an EmptyInput error if the alignment has
// fewer than two rows, the precondition overlap computation requires
// (spec.md §7).
func RequireMinMembers(a *member.Alignment) error {
	if a.NumSequences() < 2 {
		return phygerr.Newf(phygerr.Empty, "overlap: fewer than two members")
	}
	return nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
