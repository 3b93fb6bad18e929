// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assembly

import (
	"strings"
	"testing"
)

// TestParseScenarioS4 reproduces spec.md scenario S4: an ACE contig C1
// with two reads clipped to start=3, end=10, pad_start_consensus=5
// should produce a padded row of 4 leading gaps, 8 clipped bases, and
// trailing gaps out to the contig length.
func TestParseScenarioS4(t *testing.T) {
	const ace = `AS 1 2

CO Contig1 20 2 1 U
ACGTACGTACGTACGTACGT

AF read1 U 5
AF read2 U 1

RD read1 20 0 0
ACGTACGTACGTACGTACGT

QA 1 20 3 10

RD read2 20 0 0
ACGTACGTACGTACGTACGT

QA 1 20 1 20
`
	fams, err := Parse(strings.NewReader(ace), Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(fams) != 1 {
		t.Fatalf("len(fams) = %d, want 1", len(fams))
	}
	f := fams[0]
	if f.ID != "Contig1" {
		t.Errorf("ID = %q, want Contig1", f.ID)
	}
	row, ok := f.Alignment.RowFor("read1")
	if !ok {
		t.Fatal("read1 row not found")
	}
	want := "----" + "GTACGTAC" + strings.Repeat("-", 20-4-8)
	if row.Gapped != want {
		t.Errorf("read1 row = %q, want %q", row.Gapped, want)
	}
	if len(row.Gapped) != 20 {
		t.Errorf("row length = %d, want 20", len(row.Gapped))
	}
}

func TestParseNoSinglets(t *testing.T) {
	const ace = `AS 1 1

CO Solo 10 1 1 U
ACGTACGTAC

AF r1 U 1

RD r1 10 0 0
ACGTACGTAC

QA 1 10 1 10
`
	fams, err := Parse(strings.NewReader(ace), Options{NoSinglets: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(fams) != 0 {
		t.Fatalf("len(fams) = %d, want 0 (singlet discarded)", len(fams))
	}
}

func TestParseMalformedCO(t *testing.T) {
	_, err := Parse(strings.NewReader("CO bad\n"), Options{})
	if err == nil {
		t.Fatal("expected error for malformed CO record")
	}
}

func TestParseComplementStrand(t *testing.T) {
	const ace = `CO C1 10 1 1 U
ACGTACGTAC

AF r1 C 1

RD r1 10 0 0
ACGTACGTAC

QA 1 10 1 10
`
	fams, err := Parse(strings.NewReader(ace), Options{})
	if err != nil {
		t.Fatal(err)
	}
	row, _ := fams[0].Alignment.RowFor("r1")
	if row.Strand != -1 {
		t.Errorf("Strand = %d, want -1 for complement flag", row.Strand)
	}
}
