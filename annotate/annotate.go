// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package annotate loads the defline and GO-annotation lookup tables
// named in spec.md §6, replacing the shelled-out grep/cut lookups the
// Design Notes (§9) call fragile: both tables are read once into an
// in-memory map keyed by subject or member id, rather than re-scanned
// per lookup.
package annotate

import (
	"bufio"
	"io"
	"strings"

	"github.com/kortschak/phyg/phygerr"
)

// Deflines is a subject-id -> description lookup built from the blast
// defline file (spec.md §6): two tab-separated columns per line.
type Deflines map[string]string

// LoadDeflines reads a defline file into a Deflines table.
func LoadDeflines(r io.Reader) (Deflines, error) {
	out := make(Deflines)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, phygerr.Newf(phygerr.Input, "annotate: line %d: malformed defline record %q", lineNo, line)
		}
		out[parts[0]] = parts[1]
	}
	if err := sc.Err(); err != nil {
		return nil, phygerr.Wrap(phygerr.Input, err, "annotate: reading deflines")
	}
	return out, nil
}

// Description returns id's defline, if indexed.
func (d Deflines) Description(id string) (string, bool) {
	s, ok := d[id]
	return s, ok
}

// GOTerm is one GO-term reference, with its optional inline description.
type GOTerm struct {
	ID          string
	Description string
}

// GOTable maps a member id to the GO terms the annotation table assigns
// it.
type GOTable map[string][]GOTerm

// LoadGOTable reads a GO annotation table (spec.md §6): two
// tab-separated columns, the second a ';'-separated list of terms, each
// optionally carrying an inline `GO:NNNNNNN=<description>` description.
func LoadGOTable(r io.Reader) (GOTable, error) {
	out := make(GOTable)
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			return nil, phygerr.Newf(phygerr.Input, "annotate: line %d: malformed GO annotation record %q", lineNo, line)
		}
		var terms []GOTerm
		for _, raw := range strings.Split(parts[1], ";") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if i := strings.Index(raw, "="); i >= 0 {
				terms = append(terms, GOTerm{ID: raw[:i], Description: raw[i+1:]})
			} else {
				terms = append(terms, GOTerm{ID: raw})
			}
		}
		out[parts[0]] = terms
	}
	if err := sc.Err(); err != nil {
		return nil, phygerr.Wrap(phygerr.Input, err, "annotate: reading GO table")
	}
	return out, nil
}
