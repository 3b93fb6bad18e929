// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package recruit implements the homolog recruiter (spec.md §4.6, C11):
// obtaining a family's consensus sequence, selecting the best hit from a
// consensus-vs-external-database blast search, and splicing the hit into
// the family's alignment as a new member.
package recruit

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/hts/fai"
	"gonum.org/v1/gonum/stat"

	"github.com/kortschak/phyg/blast"
	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
	"github.com/kortschak/phyg/strain"
	"github.com/kortschak/phyg/toolrunner"
)

// Consensus returns f's alignment consensus: the precomputed
// Alignment.Consensus if set, otherwise a majority-rule consensus
// synthesised column by column across the alignment's rows.
func Consensus(a *member.Alignment) (string, error) {
	if len(a.Consensus) > 0 {
		return lettersToString(a.Consensus), nil
	}
	if len(a.Rows) == 0 {
		return "", phygerr.Newf(phygerr.Empty, "recruit: alignment has no rows")
	}
	cols := a.Len()
	out := make([]byte, cols)
	for c := 0; c < cols; c++ {
		out[c] = majorityBase(a, c)
	}
	return string(out), nil
}

// majorityBase finds the modal base at column c across every row, using
// gonum/stat.Mode over the bases mapped to an integer category axis.
func majorityBase(a *member.Alignment, c int) byte {
	const bases = "ACGT-N"
	var values []float64
	byValue := make(map[float64]byte)
	for _, r := range a.Rows {
		if c >= len(r.Gapped) {
			continue
		}
		b := byteUpper(r.Gapped[c])
		idx := strings.IndexByte(bases, b)
		if idx < 0 {
			idx = len(bases) - 1 // unrecognised symbols bucket with N
			b = 'N'
		}
		v := float64(idx)
		values = append(values, v)
		byValue[v] = b
	}
	if len(values) == 0 {
		return 'N'
	}
	mode, _ := stat.Mode(values, nil)
	return byValue[mode]
}

func lettersToString(l alphabet.Letters) string {
	out := make([]byte, len(l))
	for i, c := range l {
		out[i] = byte(c)
	}
	return string(out)
}

func byteUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// SelectHit picks which hit to recruit from a blast search's results: the
// highest-bit-score hit among those the filter admits, or, when filter
// has no predicates configured, the highest-bit-score hit overall —
// spec.md §4.6's "apply ... (or default to best-scoring hit)".
func SelectHit(hits []blast.Record, filter blast.Expr) (blast.Record, bool) {
	var (
		best   blast.Record
		bestOK bool
	)
	for _, h := range hits {
		if len(filter.Predicates) > 0 && !filter.Admits(h) {
			continue
		}
		if !bestOK || h.BitScore > best.BitScore {
			best, bestOK = h, true
		}
	}
	return best, bestOK
}

// LoadSubject reads the raw subject sequence spanned by hit from the
// indexed fasta file idx, reverse-complementing it if the hit's subject
// coordinates run in descending order (spec.md §4.6 step 2).
func LoadSubject(idx *fai.File, hit blast.Record) (string, error) {
	start, end := hit.SubjectStart, hit.SubjectEnd
	if start > end {
		start, end = end, start
	}
	rc, err := idx.SeqRange(hit.SubjectAccVer, start-1, end)
	if err != nil {
		return "", phygerr.Wrap(phygerr.Tool, err, "recruit: reading subject %s:%d-%d", hit.SubjectAccVer, start, end)
	}
	b, err := ioutil.ReadAll(rc)
	if err != nil {
		return "", phygerr.Wrap(phygerr.Tool, err, "recruit: reading subject %s", hit.SubjectAccVer)
	}
	seq := string(b)
	if hit.SubjectStart > hit.SubjectEnd {
		seq = reverseComplement(seq)
	}
	return seq, nil
}

var complement = map[byte]byte{
	'A': 'T', 'C': 'G', 'G': 'C', 'T': 'A',
	'a': 't', 'c': 'g', 'g': 'c', 't': 'a',
	'N': 'N', 'n': 'n', '-': '-',
}

func reverseComplement(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c, ok := complement[s[i]]
		if !ok {
			c = s[i]
		}
		out[len(s)-1-i] = c
	}
	return string(out)
}

// BuildRow gap-pads subjectSeq so it occupies
// `[hit.QueryStart-1, hit.QueryStart-1+len(subjectSeq)-1]` (0-based) of an
// alignment of the given column count, with leading and trailing gaps
// filling the rest — spec.md §4.6 step 3.
func BuildRow(hit blast.Record, subjectSeq string, alignmentLen int) (member.Row, error) {
	start := hit.QueryStart - 1
	end := start + len(subjectSeq) - 1
	if start < 0 || end >= alignmentLen {
		return member.Row{}, phygerr.Newf(phygerr.Input, "recruit: hit placement [%d,%d] outside alignment length %d", start, end, alignmentLen)
	}
	var b strings.Builder
	b.Grow(alignmentLen)
	b.WriteString(strings.Repeat("-", start))
	b.WriteString(subjectSeq)
	b.WriteString(strings.Repeat("-", alignmentLen-end-1))
	return member.Row{
		MemberID: hit.SubjectAccVer,
		Start:    0,
		End:      len(subjectSeq) - 1,
		Strand:   strandOf(hit),
		Gapped:   b.String(),
	}, nil
}

func strandOf(hit blast.Record) member.Strand {
	if hit.SubjectStart > hit.SubjectEnd {
		return member.Minus
	}
	return member.Plus
}

// writeQueryFasta writes a single-record fasta of seq under id to a new
// temporary file and returns its path.
func writeQueryFasta(id, seq string) (string, error) {
	f, err := ioutil.TempFile("", "phyg-recruit-*.fasta")
	if err != nil {
		return "", phygerr.WrapFamily(phygerr.Tool, id, err, "recruit: creating query fasta")
	}
	_, werr := fmt.Fprintf(f, ">%s\n%s\n", id, seq)
	cerr := f.Close()
	if werr != nil {
		os.Remove(f.Name())
		return "", phygerr.WrapFamily(phygerr.Tool, id, werr, "recruit: writing query fasta")
	}
	if cerr != nil {
		os.Remove(f.Name())
		return "", phygerr.WrapFamily(phygerr.Tool, id, cerr, "recruit: closing query fasta")
	}
	return f.Name(), nil
}

// Search runs tool against database with f's alignment consensus as the
// sole query, and parses the tabular hit table from its stdout — spec.md
// §4.6 step 1, "run blast against an external database". tool.Query and
// tool.Database are set by Search; every other field is the caller's to
// configure (evalue, word size, thread count, and so on).
func Search(f *family.Family, database string, tool blast.Nucleic, timeout time.Duration) ([]blast.Record, error) {
	if f.Alignment == nil {
		return nil, phygerr.Newf(phygerr.Empty, "recruit: family %s has no alignment to derive a query from", f.ID)
	}
	consensus, err := Consensus(f.Alignment)
	if err != nil {
		return nil, err
	}
	query, err := writeQueryFasta(f.ID, consensus)
	if err != nil {
		return nil, err
	}
	defer os.Remove(query)

	tool.Query = query
	tool.Database = database
	if tool.OutFormat == 0 {
		tool.OutFormat = 6
	}
	res, err := toolrunner.RunTimeout(f.ID, tool, nil, timeout)
	if err != nil {
		return nil, err
	}
	recs, err := blast.ParseTabular(bytes.NewReader(res.Stdout))
	if err != nil {
		return nil, phygerr.WrapFamily(phygerr.Tool, f.ID, err, "recruit: parsing blast output")
	}
	return recs, nil
}

// Run performs one family's full recruitment cycle (spec.md §4.6): blast
// the consensus against database, select the best hit passing filter,
// load its subject sequence from subjects, and splice it into f's
// alignment under strainLabel. It is a no-op, not an error, when the
// search returns no admissible hit.
func Run(f *family.Family, strains *strain.Table, database string, tool blast.Nucleic, filter blast.Expr, subjects *fai.File, strainLabel string, timeout time.Duration) error {
	hits, err := Search(f, database, tool, timeout)
	if err != nil {
		return err
	}
	hit, ok := SelectHit(hits, filter)
	if !ok {
		return nil
	}
	seq, err := LoadSubject(subjects, hit)
	if err != nil {
		return err
	}
	return Add(f, strains, hit, seq, strainLabel)
}

// Add splices a recruited hit into f: it builds the gap-padded row,
// appends the new member (optionally assigning it a strain), and
// extends the alignment, invalidating distance/tree/bootstrap — spec.md
// §4.6 step 4.
func Add(f *family.Family, strains *strain.Table, hit blast.Record, subjectSeq string, strainLabel string) error {
	if f.Alignment == nil {
		return phygerr.Newf(phygerr.Empty, "recruit: family %s has no alignment to extend", f.ID)
	}
	row, err := BuildRow(hit, subjectSeq, f.Alignment.Len())
	if err != nil {
		return err
	}
	if _, exists := f.Alignment.RowFor(row.MemberID); exists {
		return phygerr.Newf(phygerr.Consistency, "recruit: member %q already present in family %s", row.MemberID, f.ID)
	}

	m := &member.Member{ID: row.MemberID, Strain: strainLabel}
	f.AddMember(m)
	f.Alignment.Rows = append(f.Alignment.Rows, row)
	if strainLabel != "" && strains != nil {
		strains.Set(row.MemberID, strainLabel)
	}
	f.Invalidate(false)
	return nil
}
