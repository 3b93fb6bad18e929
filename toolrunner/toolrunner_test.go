// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package toolrunner

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/kortschak/phyg/phygerr"
)

type fakeCmd struct {
	path string
	args []string
}

func (f fakeCmd) BuildCommand() (*exec.Cmd, error) {
	return exec.Command(f.path, f.args...), nil
}

func TestRunSuccess(t *testing.T) {
	res, err := Run(context.Background(), "fam1", fakeCmd{path: "echo", args: []string{"hello"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(bytes.TrimSpace(res.Stdout)) != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello")
	}
}

func TestRunNonZeroExit(t *testing.T) {
	_, err := Run(context.Background(), "fam1", fakeCmd{path: "false"}, nil)
	if err == nil {
		t.Fatal("expected an error for a non-zero exit")
	}
	if !phygerr.Is(err, phygerr.Tool) {
		t.Errorf("error kind = %v, want Tool", err)
	}
}

func TestRunTimeout(t *testing.T) {
	_, err := RunTimeout("fam1", fakeCmd{path: "sleep", args: []string{"5"}}, nil, 10*time.Millisecond)
	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !phygerr.Is(err, phygerr.Tool) {
		t.Errorf("error kind = %v, want Tool", err)
	}
}

func TestRunBuildCommandError(t *testing.T) {
	bad := badCmd{}
	_, err := Run(context.Background(), "fam1", bad, nil)
	if err == nil || !phygerr.Is(err, phygerr.Tool) {
		t.Fatalf("err = %v, want Tool error", err)
	}
}

type badCmd struct{}

func (badCmd) BuildCommand() (*exec.Cmd, error) {
	return nil, errBuild
}

var errBuild = buildErr{}

type buildErr struct{}

func (buildErr) Error() string { return "bad command" }

func TestExternalToolBuildCommandOrdersArgs(t *testing.T) {
	e := ExternalTool{Program: "clustalw", Args: map[string]string{"gapext": "0.1", "gapopen": "10"}}
	cmd, err := e.BuildCommand()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"clustalw", "-gapext", "0.1", "-gapopen", "10"}
	got := append([]string{cmd.Path}, cmd.Args[1:]...)
	if len(got) != len(want) {
		t.Fatalf("args = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExternalToolNoProgram(t *testing.T) {
	_, err := ExternalTool{}.BuildCommand()
	if err == nil {
		t.Fatal("expected an error for a missing program")
	}
}
