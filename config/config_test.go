// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	const src = `
CLUSTER_DATASOURCE: [blast]
CLUSTER_FILENAME: [hits.tab]
FASTBLASTPARSER: [yes]
DEFLINE_FILENAME: [deflines.tsv]
GO_ANNOTATION_FILENAME: [go.tsv]
1PATH_NAME: [main]
1RUN_ALIGNMENT_PROGRAM: [clustalw]
1RUN_ALIGNMENT_ARGUMENTS: [gapopen => 10; gapext => 0.1]
1PRUNE_STRAINS_ARGUMENTS: [min_distance = A-B, max_distance = A-C]
1RUN_TREE_METHOD: [nj]
1RUN_RECRUIT_ARGUMENTS: [database => /data/refseq; strain => RefStrain]
`
	cfg, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Global.ClusterDatasource != "blast" {
		t.Errorf("ClusterDatasource = %q", cfg.Global.ClusterDatasource)
	}
	if !cfg.Global.FastBlastParser {
		t.Error("FastBlastParser should be true")
	}
	if cfg.Global.DeflineFilename != "deflines.tsv" {
		t.Errorf("DeflineFilename = %q", cfg.Global.DeflineFilename)
	}
	if cfg.Global.GOAnnotationFilename != "go.tsv" {
		t.Errorf("GOAnnotationFilename = %q", cfg.Global.GOAnnotationFilename)
	}
	p, ok := cfg.Paths[1]
	if !ok {
		t.Fatal("path 1 not found")
	}
	if p.PathName != "main" {
		t.Errorf("PathName = %q", p.PathName)
	}
	if p.RunAlignmentArguments["gapopen"] != "10" {
		t.Errorf("RunAlignmentArguments[gapopen] = %q", p.RunAlignmentArguments["gapopen"])
	}
	if p.PruneStrainsArguments["min_distance"] != "A-B" {
		t.Errorf("PruneStrainsArguments[min_distance] = %q", p.PruneStrainsArguments["min_distance"])
	}
	if p.RunRecruitArguments["database"] != "/data/refseq" {
		t.Errorf("RunRecruitArguments[database] = %q", p.RunRecruitArguments["database"])
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(strings.NewReader("this is not a config line\n"))
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestParseComparator(t *testing.T) {
	for _, test := range []struct {
		in      string
		want    Comparator
		wantErr bool
	}{
		{in: "<", want: LT},
		{in: "<=", want: LE},
		{in: "==", want: EQ},
		{in: ">=", want: GE},
		{in: ">", want: GT},
		{in: "!=", wantErr: true},
	} {
		got, err := ParseComparator(test.in)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseComparator(%q) error = %v, wantErr %v", test.in, err, test.wantErr)
			continue
		}
		if err == nil && got != test.want {
			t.Errorf("ParseComparator(%q) = %v, want %v", test.in, got, test.want)
		}
	}
}
