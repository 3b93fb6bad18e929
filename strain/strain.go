// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package strain implements the member-id to strain-label mapping
// (spec.md §4 C5) and the Composition predicate used by the strain-aware
// pruning operators.
package strain

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/kortschak/phyg/phygerr"
)

// Table maps a member id to the strain it belongs to.
type Table struct {
	byMember map[string]string
}

// NewTable returns an empty strain Table.
func NewTable() *Table {
	return &Table{byMember: make(map[string]string)}
}

// Set records that member belongs to strain.
func (t *Table) Set(member, strain string) {
	t.byMember[member] = strain
}

// Strain returns the strain for member, and whether it is known.
func (t *Table) Strain(member string) (string, bool) {
	s, ok := t.byMember[member]
	return s, ok
}

// Len returns the number of members recorded.
func (t *Table) Len() int { return len(t.byMember) }

// Strains returns every distinct strain label recorded in the table,
// sorted for determinism.
func (t *Table) Strains() []string {
	seen := make(map[string]bool)
	for _, s := range t.byMember {
		seen[s] = true
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// ReadTable parses the two-column tab-separated strain table format from
// spec.md §6: "<member-id>\t<strain-label>", one per line.
func ReadTable(r io.Reader) (*Table, error) {
	t := NewTable()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != 2 {
			return nil, phygerr.Newf(phygerr.Input, "strain: malformed line %d: %q", line, text)
		}
		t.Set(fields[0], fields[1])
	}
	if err := sc.Err(); err != nil {
		return nil, phygerr.Wrap(phygerr.Input, err, "strain: reading table")
	}
	if t.Len() == 0 {
		return nil, phygerr.Newf(phygerr.Empty, "strain: no strains loaded")
	}
	return t, nil
}

// Composition is a multiset over strain labels specifying how many members
// of each strain must appear in a selection (spec.md glossary). It is a
// value type owned by the caller and reset between families, per the
// Design Notes item on eliminating global Composition/strain state.
type Composition struct {
	required map[string]int
	have     map[string][]string
}

// NewComposition returns a Composition requiring the given strain counts.
func NewComposition(required map[string]int) *Composition {
	req := make(map[string]int, len(required))
	for k, v := range required {
		req[k] = v
	}
	return &Composition{required: req, have: make(map[string][]string)}
}

// Push records that member belongs to strain, counting it toward the
// composition if strain is required and not yet satisfied for member
// (pushing the same member twice is a no-op).
func (c *Composition) Push(member, strainLabel string) {
	need, ok := c.required[strainLabel]
	if !ok || need <= 0 {
		return
	}
	for _, m := range c.have[strainLabel] {
		if m == member {
			return
		}
	}
	if len(c.have[strainLabel]) >= need {
		return
	}
	c.have[strainLabel] = append(c.have[strainLabel], member)
}

// Satisfied reports whether every required strain count has been met.
func (c *Composition) Satisfied() bool {
	for s, need := range c.required {
		if len(c.have[s]) < need {
			return false
		}
	}
	return true
}

// Selected returns the member ids pushed so far that count toward the
// composition, across all strains, in strain-then-insertion order.
func (c *Composition) Selected() []string {
	var out []string
	for s := range c.required {
		out = append(out, c.have[s]...)
	}
	return out
}

// Reset clears accumulated members, keeping the required counts, so the
// same Composition value can be reused across families.
func (c *Composition) Reset() {
	c.have = make(map[string][]string)
}

// String implements fmt.Stringer for diagnostic output.
func (c *Composition) String() string {
	var b strings.Builder
	first := true
	for s, n := range c.required {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s:%d/%d", s, len(c.have[s]), n)
	}
	return b.String()
}
