// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package recruit

import (
	"io/ioutil"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/kortschak/phyg/blast"
	"github.com/kortschak/phyg/config"
	"github.com/kortschak/phyg/family"
	"github.com/kortschak/phyg/member"
	"github.com/kortschak/phyg/strain"
)

func TestConsensusMajorityRule(t *testing.T) {
	a := &member.Alignment{Rows: []member.Row{
		{MemberID: "a", Gapped: "AACG"},
		{MemberID: "b", Gapped: "AACG"},
		{MemberID: "c", Gapped: "TTCG"},
	}}
	got, err := Consensus(a)
	if err != nil {
		t.Fatal(err)
	}
	if got != "AACG" {
		t.Errorf("Consensus() = %q, want %q", got, "AACG")
	}
}

func TestSelectHitFiltered(t *testing.T) {
	hits := []blast.Record{
		{QueryAccVer: "q", SubjectAccVer: "s1", PctIdentity: 90, BitScore: 50},
		{QueryAccVer: "q", SubjectAccVer: "s2", PctIdentity: 99, BitScore: 80},
		{QueryAccVer: "q", SubjectAccVer: "s3", PctIdentity: 40, BitScore: 200},
	}
	filter := blast.Expr{Predicates: []blast.Predicate{
		{Field: blast.PctIdentityField, Comparator: config.GE, Threshold: 85},
	}}
	got, ok := SelectHit(hits, filter)
	if !ok {
		t.Fatal("expected a selected hit")
	}
	if got.SubjectAccVer != "s2" {
		t.Errorf("SelectHit() = %q, want s2 (best bit score among filter-passing hits)", got.SubjectAccVer)
	}
}

func TestSelectHitNoFilterDefaultsToBestScore(t *testing.T) {
	hits := []blast.Record{
		{SubjectAccVer: "s1", BitScore: 50},
		{SubjectAccVer: "s2", BitScore: 200},
	}
	got, ok := SelectHit(hits, blast.Expr{})
	if !ok || got.SubjectAccVer != "s2" {
		t.Errorf("SelectHit() = %+v, %v, want s2, true", got, ok)
	}
}

func TestBuildRowPlacement(t *testing.T) {
	hit := blast.Record{QueryStart: 3, SubjectAccVer: "s1", SubjectStart: 1, SubjectEnd: 8}
	row, err := BuildRow(hit, "ACGTACGT", 16)
	if err != nil {
		t.Fatal(err)
	}
	want := "--ACGTACGT------"
	if row.Gapped != want {
		t.Errorf("Gapped = %q, want %q", row.Gapped, want)
	}
	if row.Strand != member.Plus {
		t.Errorf("Strand = %v, want Plus", row.Strand)
	}
}

func TestBuildRowReverseStrand(t *testing.T) {
	hit := blast.Record{QueryStart: 1, SubjectAccVer: "s1", SubjectStart: 8, SubjectEnd: 1}
	row, err := BuildRow(hit, "ACGTACGT", 8)
	if err != nil {
		t.Fatal(err)
	}
	if row.Strand != member.Minus {
		t.Errorf("Strand = %v, want Minus", row.Strand)
	}
}

func TestBuildRowOutOfRange(t *testing.T) {
	hit := blast.Record{QueryStart: 10}
	_, err := BuildRow(hit, "ACGT", 8)
	if err == nil {
		t.Fatal("expected an out-of-range error")
	}
}

func TestAddExtendsFamily(t *testing.T) {
	f := family.New("fam")
	f.AddMember(&member.Member{ID: "a"})
	f.Alignment = &member.Alignment{Rows: []member.Row{
		{MemberID: "a", Gapped: "ACGTACGT"},
	}}
	strains := strain.NewTable()
	hit := blast.Record{QueryStart: 1, SubjectAccVer: "s1", SubjectStart: 1, SubjectEnd: 8}

	err := Add(f, strains, hit, "TTTTTTTT", "StrainX")
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Alignment.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(f.Alignment.Rows))
	}
	if _, ok := f.Members["s1"]; !ok {
		t.Error("s1 should have been added as a member")
	}
	if s, ok := strains.Strain("s1"); !ok || s != "StrainX" {
		t.Errorf("strain(s1) = %q, %v, want StrainX, true", s, ok)
	}
}

func TestWriteQueryFastaContents(t *testing.T) {
	path, err := writeQueryFasta("fam1", "ACGTACGT")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(path)
	b, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := ">fam1\nACGTACGT\n"
	if string(b) != want {
		t.Errorf("query fasta = %q, want %q", string(b), want)
	}
}

func TestSearchNoAlignment(t *testing.T) {
	f := family.New("fam")
	_, err := Search(f, "testdb", blast.Nucleic{}, time.Second)
	if err == nil {
		t.Fatal("expected an error for a family with no alignment")
	}
}

// TestSearchRunsConfiguredTool stands "echo" in for blastn: rather than
// search a real database it reports the argument line Search built,
// which ParseTabular then rejects as malformed. That failure confirms
// Search writes the consensus query, wires Query/Database onto the
// Commander and drives it through toolrunner, rather than short-circuiting.
func TestSearchRunsConfiguredTool(t *testing.T) {
	f := family.New("fam")
	f.Alignment = &member.Alignment{Rows: []member.Row{
		{MemberID: "a", Gapped: "ACGT"},
	}}
	tool := blast.Nucleic{Cmd: "echo"}
	_, err := Search(f, "testdb", tool, time.Second)
	if err == nil {
		t.Fatal("expected a malformed-output error from the echo stand-in")
	}
	if !strings.Contains(err.Error(), "parsing blast output") {
		t.Errorf("err = %v, want a blast-output parsing error", err)
	}
}

func TestRunSkipsWhenNoHitAdmitted(t *testing.T) {
	f := family.New("fam")
	f.AddMember(&member.Member{ID: "a"})
	f.Alignment = &member.Alignment{Rows: []member.Row{
		{MemberID: "a", Gapped: "ACGT"},
	}}
	// "true" stands in for blastn and produces no output at all, so
	// Search returns zero hits and Run must treat that as a no-op.
	tool := blast.Nucleic{Cmd: "true"}
	err := Run(f, strain.NewTable(), "testdb", tool, blast.Expr{}, nil, "", time.Second)
	if err != nil {
		t.Fatalf("Run() = %v, want nil (no admissible hit)", err)
	}
	if len(f.Alignment.Rows) != 1 {
		t.Errorf("alignment rows = %d, want 1 (unchanged)", len(f.Alignment.Rows))
	}
}

func TestAddRejectsDuplicateMember(t *testing.T) {
	f := family.New("fam")
	f.Alignment = &member.Alignment{Rows: []member.Row{
		{MemberID: "s1", Gapped: "ACGTACGT"},
	}}
	hit := blast.Record{QueryStart: 1, SubjectAccVer: "s1", SubjectStart: 1, SubjectEnd: 8}
	err := Add(f, strain.NewTable(), hit, "ACGTACGT", "")
	if err == nil {
		t.Fatal("expected a consistency error for a duplicate member id")
	}
}
