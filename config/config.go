// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/kortschak/phyg/phygerr"
)

// PathConfig is the typed record for one `<N>KEY: [value]` path's worth of
// per-operator configuration, enumerating every recognised option named
// in spec.md §6.
type PathConfig struct {
	PathID int

	PathName string

	RunAlignmentProgram   string
	RunAlignmentArguments map[string]string

	RunDistanceFunction string

	PruneStrainsArguments  map[string]string
	PruneOverlapsArguments map[string]string

	RunTreeMethod    string
	RunTreeArguments map[string]string

	RunBootstrapping    string
	FilterBootstrapping map[string]string

	RunTopoAnalysis string

	RunRecruitArguments map[string]string
}

// GlobalConfig is the typed record for keys that are not scoped to a path.
type GlobalConfig struct {
	ClusterDatasource string
	ClusterFilename   string
	ClusterValues     map[string]string
	FastBlastParser   bool
	MemberseqFilename string
	MemberstrainFilename string

	DeflineFilename      string
	GOAnnotationFilename string
}

// Config is the result of parsing a full configuration file: the globals
// plus every per-path record encountered, keyed by path id.
type Config struct {
	Global GlobalConfig
	Paths  map[int]*PathConfig
}

var lineRE = regexp.MustCompile(`^(\d+)?([A-Za-z_][A-Za-z0-9_]*)\s*:\s*\[(.*)\]\s*$`)

// Parse reads a configuration file in the grammar of spec.md §6: lines of
// the form `<N>KEY: [value]`, grouped by path id N (globals omit N). A
// value is either a bare scalar or a comma/arrow-separated sub-key list
// (`k1 => v1; k2 => v2` or `k1 = v1, k2 = v2`). Blank lines and lines
// starting with '#' are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := &Config{Paths: make(map[int]*PathConfig)}
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := lineRE.FindStringSubmatch(line)
		if m == nil {
			return nil, phygerr.Newf(phygerr.Input, "config: malformed line %d: %q", lineNo, line)
		}
		pathStr, key, value := m[1], strings.ToUpper(m[2]), strings.TrimSpace(m[3])

		if pathStr == "" {
			if err := setGlobal(&cfg.Global, key, value); err != nil {
				return nil, phygerr.Wrap(phygerr.Input, err, "config: line %d", lineNo)
			}
			continue
		}
		id, err := strconv.Atoi(pathStr)
		if err != nil {
			return nil, phygerr.Newf(phygerr.Input, "config: bad path id at line %d: %q", lineNo, pathStr)
		}
		pc, ok := cfg.Paths[id]
		if !ok {
			pc = &PathConfig{PathID: id}
			cfg.Paths[id] = pc
		}
		if err := setPath(pc, key, value); err != nil {
			return nil, phygerr.Wrap(phygerr.Input, err, "config: line %d", lineNo)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, phygerr.Wrap(phygerr.Input, err, "config: reading")
	}
	return cfg, nil
}

// subKeys parses a value that is either a comma-separated or
// semicolon-separated list of "k = v" / "k => v" sub-keys into a map. The
// list is split on ";" whenever the value contains "=>" or ";", and on ","
// otherwise, so "=>" sub-keys are always ";"-separated. A bare scalar value with no recognised separator is returned as a single
// entry keyed "".
func subKeys(value string) map[string]string {
	out := make(map[string]string)
	if value == "" {
		return out
	}
	sep := ","
	if strings.Contains(value, "=>") || strings.Contains(value, ";") {
		sep = ";"
	}
	for _, part := range strings.Split(value, sep) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		var k, v string
		if i := strings.Index(part, "=>"); i >= 0 {
			k, v = part[:i], part[i+2:]
		} else if i := strings.Index(part, "="); i >= 0 {
			k, v = part[:i], part[i+1:]
		} else {
			out[""] = part
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}

func setGlobal(g *GlobalConfig, key, value string) error {
	switch key {
	case "CLUSTER_DATASOURCE":
		g.ClusterDatasource = value
	case "CLUSTER_FILENAME":
		g.ClusterFilename = value
	case "CLUSTER_VALUES":
		g.ClusterValues = subKeys(value)
	case "FASTBLASTPARSER":
		g.FastBlastParser = truthy(value)
	case "MEMBERSEQ_FILENAME":
		g.MemberseqFilename = value
	case "MEMBERSTRAIN_FILENAME":
		g.MemberstrainFilename = value
	case "DEFLINE_FILENAME":
		g.DeflineFilename = value
	case "GO_ANNOTATION_FILENAME":
		g.GOAnnotationFilename = value
	default:
		return fmt.Errorf("unrecognised global key %q", key)
	}
	return nil
}

func setPath(p *PathConfig, key, value string) error {
	switch key {
	case "PATH_NAME":
		p.PathName = value
	case "RUN_ALIGNMENT_PROGRAM":
		p.RunAlignmentProgram = value
	case "RUN_ALIGNMENT_ARGUMENTS":
		p.RunAlignmentArguments = subKeys(value)
	case "RUN_DISTANCE_FUNCTION":
		p.RunDistanceFunction = value
	case "PRUNE_STRAINS_ARGUMENTS":
		p.PruneStrainsArguments = subKeys(value)
	case "PRUNE_OVERLAPS_ARGUMENTS":
		p.PruneOverlapsArguments = subKeys(value)
	case "RUN_TREE_METHOD":
		p.RunTreeMethod = value
	case "RUN_TREE_ARGUMENTS":
		p.RunTreeArguments = subKeys(value)
	case "RUN_BOOTSTRAPPING":
		p.RunBootstrapping = value
	case "FILTER_BOOTSTRAPPING":
		p.FilterBootstrapping = subKeys(value)
	case "RUN_TOPOANALYSIS":
		p.RunTopoAnalysis = value
	case "RUN_RECRUIT_ARGUMENTS":
		p.RunRecruitArguments = subKeys(value)
	default:
		return fmt.Errorf("unrecognised path key %q", key)
	}
	return nil
}

func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
