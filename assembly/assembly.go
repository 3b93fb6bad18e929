// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assembly parses an ACE-style assembly file into SequenceFamily
// values, one per contig (spec.md §4.2, C7).
package assembly

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/seq/linear"
	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/phygerr"
)

// read accumulates the fields of one RD/AF/QA record triple for a single
// contig read.
type read struct {
	name       string
	complement bool
	padStart   int
	seq        strings.Builder

	hasQA                          bool
	qualClipStart, qualClipEnd     int
	alignClipStart, alignClipEnd   int
}

type contig struct {
	name     string
	nbases   int
	nreads   int
	reads    []*read
	byName   map[string]*read
}

// Options controls assembly ingest.
type Options struct {
	// NoSinglets discards contigs with a single read.
	NoSinglets bool
}

// Parse reads an ACE-style assembly file from r and returns one Family
// per contig, in file order. Malformed tag records are a ParseError
// (phygerr.Input).
func Parse(r io.Reader, opts Options) ([]*family.Family, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		contigs []*contig
		cur     *contig
		curRead *read
		inCO    bool
		inRD    bool
		lineNo  int
	)

	flushSeq := func() {
		inCO, inRD = false, false
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			flushSeq()
			continue
		case strings.HasPrefix(trimmed, "AS "):
			flushSeq()
			continue
		case strings.HasPrefix(trimmed, "CO "):
			flushSeq()
			f := strings.Fields(trimmed)
			if len(f) < 5 {
				return nil, phygerr.Newf(phygerr.Input, "assembly: line %d: malformed CO record: %q", lineNo, trimmed)
			}
			nbases, err := strconv.Atoi(f[2])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad CO base count", lineNo)
			}
			nreads, err := strconv.Atoi(f[3])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad CO read count", lineNo)
			}
			cur = &contig{name: f[1], nbases: nbases, nreads: nreads, byName: make(map[string]*read)}
			contigs = append(contigs, cur)
			inCO = true
			curRead = nil
		case strings.HasPrefix(trimmed, "AF "):
			flushSeq()
			f := strings.Fields(trimmed)
			if len(f) < 4 || cur == nil {
				return nil, phygerr.Newf(phygerr.Input, "assembly: line %d: malformed AF record: %q", lineNo, trimmed)
			}
			start, err := strconv.Atoi(f[3])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad AF pad_start", lineNo)
			}
			rd := &read{name: f[1], complement: f[2] == "C", padStart: start}
			cur.byName[rd.name] = rd
			cur.reads = append(cur.reads, rd)
		case strings.HasPrefix(trimmed, "RD "):
			f := strings.Fields(trimmed)
			if len(f) < 2 || cur == nil {
				return nil, phygerr.Newf(phygerr.Input, "assembly: line %d: malformed RD record: %q", lineNo, trimmed)
			}
			rd, ok := cur.byName[f[1]]
			if !ok {
				rd = &read{name: f[1]}
				cur.byName[rd.name] = rd
				cur.reads = append(cur.reads, rd)
			}
			curRead = rd
			inRD = true
			inCO = false
		case strings.HasPrefix(trimmed, "QA "):
			flushSeq()
			f := strings.Fields(trimmed)
			if len(f) < 5 || curRead == nil {
				return nil, phygerr.Newf(phygerr.Input, "assembly: line %d: malformed QA record: %q", lineNo, trimmed)
			}
			var err error
			curRead.qualClipStart, err = strconv.Atoi(f[1])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad QA field", lineNo)
			}
			curRead.qualClipEnd, err = strconv.Atoi(f[2])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad QA field", lineNo)
			}
			curRead.alignClipStart, err = strconv.Atoi(f[3])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad QA field", lineNo)
			}
			curRead.alignClipEnd, err = strconv.Atoi(f[4])
			if err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "assembly: line %d: bad QA field", lineNo)
			}
			curRead.hasQA = true
		case strings.HasPrefix(trimmed, "BQ") || strings.HasPrefix(trimmed, "BS") || strings.HasPrefix(trimmed, "DS"):
			flushSeq()
			continue
		default:
			if inCO && cur != nil {
				// Contig consensus sequence line; not otherwise used
				// (per-read sequence is what gets placed into rows).
				continue
			}
			if inRD && curRead != nil {
				curRead.seq.WriteString(trimmed)
				continue
			}
			return nil, phygerr.Newf(phygerr.Input, "assembly: line %d: unexpected record: %q", lineNo, trimmed)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, phygerr.Wrap(phygerr.Input, err, "assembly: reading")
	}

	var fams []*family.Family
	for _, c := range contigs {
		if opts.NoSinglets && len(c.reads) <= 1 {
			continue
		}
		f := family.New(c.name)
		var rows []member.Row
		for _, rd := range c.reads {
			raw := rd.seq.String()
			row, ungapped := buildRow(raw, rd, c.nbases)
			strand := member.Plus
			if rd.complement {
				strand = member.Minus
			}
			m := &member.Member{ID: rd.name, Sequence: linear.NewSeq(rd.name, alphabet.BytesToLetters([]byte(ungapped)), alphabet.DNA)}
			f.AddMember(m)
			rows = append(rows, member.Row{
				MemberID: rd.name,
				Start:    0,
				End:      maxInt(len(ungapped)-1, 0),
				Strand:   strand,
				Gapped:   row,
			})
		}
		f.Alignment = &member.Alignment{Rows: rows, Source: "ace"}
		fams = append(fams, f)
	}
	return fams, nil
}

// buildRow computes the trimmed, gap-padded row for a read within its
// contig, per spec.md §4.2: clip to [align_clip_start, align_clip_end]
// (1-based inclusive), prefix with gaps to place it at pad_start_consensus
// (negative start normalised to position 1), suffix with gaps to reach
// contig length, translating '*' to '-'. It returns the padded row and
// the clipped, ungapped sequence stored on the Member.
func buildRow(raw string, rd *read, contigLen int) (row, ungapped string) {
	clipped := raw
	if rd.hasQA && rd.alignClipStart >= 1 && rd.alignClipEnd >= rd.alignClipStart && rd.alignClipEnd <= len(raw) {
		clipped = raw[rd.alignClipStart-1 : rd.alignClipEnd]
	}
	clipped = strings.ReplaceAll(clipped, "*", "-")
	ungapped = strings.ReplaceAll(clipped, "-", "")

	padStart := rd.padStart
	if padStart < 1 {
		padStart = 1
	}
	var b strings.Builder
	b.Grow(contigLen)
	for i := 1; i < padStart; i++ {
		b.WriteByte('-')
	}
	b.WriteString(clipped)
	for b.Len() < contigLen {
		b.WriteByte('-')
	}
	return b.String(), ungapped
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
