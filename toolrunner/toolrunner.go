// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package toolrunner wraps invocation of the external alignment,
// distance, tree, bootstrap and blast binaries the orchestrator shells
// out to, capturing stdout/stderr and converting a non-zero exit,
// timeout or start failure into a phygerr.Tool error, the one error kind
// spec.md §7 requires to be isolated per-family rather than abort the
// whole run.
package toolrunner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"time"

	"github.com/kortschak/phyg/phygerr"
)

// Commander is anything capable of building the *exec.Cmd for an
// external tool invocation — the interface every github.com/biogo/external
// struct-tag type (blast.MakeDB, blast.Nucleic, and any
// alignment/tree/bootstrap equivalent) already implements via its own
// BuildCommand method.
type Commander interface {
	BuildCommand() (*exec.Cmd, error)
}

// Result captures one invocation's outcome.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Run builds cmd's command line, runs it under ctx's deadline (if any),
// and captures its stdout/stderr. A non-zero exit, start failure, or
// context timeout all produce a *phygerr.Error of kind Tool named family,
// carrying the captured output; callers collect these per-family rather
// than treat them as fatal, per spec.md §7.
func Run(ctx context.Context, family string, cmd Commander, logger io.Writer) (Result, error) {
	built, err := cmd.BuildCommand()
	if err != nil {
		return Result{}, phygerr.WrapFamily(phygerr.Tool, family, err, "toolrunner: building command")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	c := exec.CommandContext(ctx, built.Path, built.Args[1:]...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if logger != nil {
		c.Stdout = io.MultiWriter(&stdout, logger)
		c.Stderr = io.MultiWriter(&stderr, logger)
	}

	err = c.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if exitErr, ok := err.(*exec.ExitError); ok {
		res.ExitCode = exitErr.ExitCode()
	}
	if ctx.Err() == context.DeadlineExceeded {
		return res, &phygerr.Error{
			Kind: phygerr.Tool, Family: family, Msg: "toolrunner: timed out", Err: ctx.Err(),
			Stdout: string(res.Stdout), Stderr: string(res.Stderr), ExitCode: res.ExitCode,
		}
	}
	if err != nil {
		return res, &phygerr.Error{
			Kind: phygerr.Tool, Family: family, Msg: "toolrunner: invocation failed", Err: err,
			Stdout: string(res.Stdout), Stderr: string(res.Stderr), ExitCode: res.ExitCode,
		}
	}
	return res, nil
}

// ExternalTool is a Commander built from a configuration path's program
// name and a flat `-key value` argument map — the shape
// RUN_ALIGNMENT_PROGRAM/RUN_ALIGNMENT_ARGUMENTS, RUN_TREE_METHOD/
// RUN_TREE_ARGUMENTS and RUN_BOOTSTRAPPING take in the configuration
// grammar, none of which carry the fixed, named fields a
// github.com/biogo/external struct-tag type needs. Arguments are emitted
// in sorted key order so the built command line is deterministic.
type ExternalTool struct {
	Program string
	Args    map[string]string
}

// BuildCommand implements Commander.
func (e ExternalTool) BuildCommand() (*exec.Cmd, error) {
	if e.Program == "" {
		return nil, fmt.Errorf("toolrunner: no program configured")
	}
	keys := make([]string, 0, len(e.Args))
	for k := range e.Args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, "-"+k, e.Args[k])
	}
	return exec.Command(e.Program, args...), nil
}

// RunTimeout is a convenience wrapping Run with a fixed per-invocation
// deadline, the common case for every orchestrator-driven external tool
// call.
func RunTimeout(family string, cmd Commander, logger io.Writer, timeout time.Duration) (Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return Run(ctx, family, cmd, logger)
}
