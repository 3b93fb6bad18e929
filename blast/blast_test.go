// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package blast

import (
	"strings"
	"testing"

	"github.com/kortschak/phyg/config"
)

const tabular = `q1	s1	95.0	120	2	0	1	120	1	120	1e-50	200
q1	s2	70.0	40	10	1	1	40	1	40	1e-5	50
q1	q1	100.0	200	0	0	1	200	1	200	0.0	400
`

func TestParseTabular(t *testing.T) {
	recs, err := ParseTabular(strings.NewReader(tabular))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	if recs[0].PctIdentity != 95.0 || recs[0].AlignmentLength != 120 {
		t.Errorf("recs[0] = %+v", recs[0])
	}
	if !recs[2].SelfHit() {
		t.Error("recs[2] should be a self-hit")
	}
}

func TestParseTabularSkipsCommentsAndBlank(t *testing.T) {
	const in = "# BLASTN 2.10\n\nq1\tq1\t100.0\t10\t0\t0\t1\t10\t1\t10\t0.0\t20\n"
	recs, err := ParseTabular(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
}

func TestParseTabularMalformed(t *testing.T) {
	_, err := ParseTabular(strings.NewReader("q1\tq1\t100.0\n"))
	if err == nil {
		t.Fatal("expected error for short row")
	}
}

func TestParseTabularStrand(t *testing.T) {
	const in = "q1\ts1\t95.0\t10\t0\t0\t1\t10\t100\t91\t0.0\t20\n"
	recs, err := ParseTabular(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Strand != -1 {
		t.Errorf("Strand = %d, want -1 for descending subject coordinates", recs[0].Strand)
	}
}

// TestClusterFilter reproduces spec.md scenario S3: two hits q1->s1
// (pct=95, aln=120) and q1->s2 (pct=70, aln=40) under filter
// pct_identity>75 AND aln_length>60 admits s1 but not s2.
func TestClusterFilterScenarioS3(t *testing.T) {
	recs, err := ParseTabular(strings.NewReader(tabular))
	if err != nil {
		t.Fatal(err)
	}
	pct, err := ParseField("pct_identity")
	if err != nil {
		t.Fatal(err)
	}
	aln, err := ParseField("aln_length")
	if err != nil {
		t.Fatal(err)
	}
	filter := Expr{Predicates: []Predicate{
		{Field: pct, Comparator: config.GT, Threshold: 75},
		{Field: aln, Comparator: config.GT, Threshold: 60},
	}}
	b := NewBuilder(filter)
	b.AddAll(recs)
	clusters := b.Clusters()
	if len(clusters) != 1 {
		t.Fatalf("len(clusters) = %d, want 1", len(clusters))
	}
	c := clusters[0]
	want := map[string]bool{"q1": true, "s1": true}
	if len(c.Members) != 2 {
		t.Fatalf("Members = %v, want 2 entries", c.Members)
	}
	for _, m := range c.Members {
		if !want[m] {
			t.Errorf("unexpected member %q in cluster", m)
		}
	}
}

func TestMaxClusterMembers(t *testing.T) {
	const in = `q1	q1	100.0	10	0	0	1	10	1	10	0.0	20
q1	s1	100.0	10	0	0	1	10	1	10	0.0	20
q1	s2	100.0	10	0	0	1	10	1	10	0.0	20
s2	s3	100.0	10	0	0	1	10	1	10	0.0	20
`
	recs, err := ParseTabular(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(Expr{})
	b.MaxClusterMembers = 2
	b.AddAll(recs)
	clusters := b.Clusters()
	if len(clusters) != 2 {
		t.Fatalf("len(clusters) = %d, want 2 (s2 becomes its own seed)", len(clusters))
	}
	if len(clusters[0].Members) != 2 {
		t.Errorf("first cluster Members = %v, want 2", clusters[0].Members)
	}
	if len(clusters[1].Members) != 2 {
		t.Errorf("second cluster Members = %v, want 2 (s2, s3)", clusters[1].Members)
	}
}

func TestRenumber(t *testing.T) {
	clusters := []Cluster{
		{Members: []string{"a"}},
		{Members: []string{"b", "c", "d"}},
		{Members: []string{"e", "f"}},
	}
	ranked := Renumber(clusters, "fam")
	if ranked[0].ID != "fam_001" || len(ranked[0].Members) != 3 {
		t.Errorf("ranked[0] = %+v", ranked[0])
	}
	if ranked[1].ID != "fam_002" || len(ranked[1].Members) != 2 {
		t.Errorf("ranked[1] = %+v", ranked[1])
	}
	if ranked[2].ID != "fam_003" || len(ranked[2].Members) != 1 {
		t.Errorf("ranked[2] = %+v", ranked[2])
	}
}
