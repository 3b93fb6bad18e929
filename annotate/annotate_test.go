// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package annotate

import (
	"strings"
	"testing"
)

func TestLoadDeflines(t *testing.T) {
	const in = "s1\tputative reverse transcriptase\ns2\thypothetical protein\n"
	d, err := LoadDeflines(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	desc, ok := d.Description("s1")
	if !ok || desc != "putative reverse transcriptase" {
		t.Errorf("Description(s1) = %q, %v, want %q, true", desc, ok, "putative reverse transcriptase")
	}
	if _, ok := d.Description("missing"); ok {
		t.Error("Description(missing) should report false")
	}
}

func TestLoadDeflinesSkipsBlankLines(t *testing.T) {
	const in = "s1\tdesc one\n\ns2\tdesc two\n"
	d, err := LoadDeflines(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(d) != 2 {
		t.Errorf("len(d) = %d, want 2", len(d))
	}
}

func TestLoadDeflinesMalformed(t *testing.T) {
	_, err := LoadDeflines(strings.NewReader("no-tab-here\n"))
	if err == nil {
		t.Fatal("expected an error for a line with no tab separator")
	}
}

func TestLoadGOTableParsesTermsWithAndWithoutDescription(t *testing.T) {
	const in = "m1\tGO:0003677=DNA binding;GO:0006355\nm2\t\n"
	got, err := LoadGOTable(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	terms := got["m1"]
	if len(terms) != 2 {
		t.Fatalf("terms = %v, want 2 entries", terms)
	}
	if terms[0].ID != "GO:0003677" || terms[0].Description != "DNA binding" {
		t.Errorf("terms[0] = %+v, want {GO:0003677 DNA binding}", terms[0])
	}
	if terms[1].ID != "GO:0006355" || terms[1].Description != "" {
		t.Errorf("terms[1] = %+v, want {GO:0006355 \"\"}", terms[1])
	}
	if len(got["m2"]) != 0 {
		t.Errorf("m2 terms = %v, want none", got["m2"])
	}
}

func TestLoadGOTableMalformed(t *testing.T) {
	_, err := LoadGOTable(strings.NewReader("no-tab-here\n"))
	if err == nil {
		t.Fatal("expected an error for a line with no tab separator")
	}
}
