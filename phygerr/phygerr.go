// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phygerr defines the error taxonomy shared by the cluster-processing
// engine. Validation and argument errors are meant to be surfaced immediately
// by callers; ToolFailure is meant to be collected per-family and must never
// abort sibling work.
package phygerr

import "fmt"

// Kind classifies an Error.
type Kind int

const (
	// Input is a malformed file, unknown field, non-integer threshold or
	// unknown filter variable.
	Input Kind = iota
	// Argument is a mutually incompatible set of options.
	Argument
	// Empty is missing input the requested operation requires, such as a
	// cluster with fewer than two members where the operation requires
	// at least two.
	Empty
	// Tool is a non-zero exit, timeout or unparsable output from an
	// external binary. Isolated to the family that triggered it.
	Tool
	// Consistency is an internal invariant broken; fatal.
	Consistency
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "InputError"
	case Argument:
		return "ArgumentError"
	case Empty:
		return "EmptyInput"
	case Tool:
		return "ToolFailure"
	case Consistency:
		return "ConsistencyError"
	default:
		return "Error"
	}
}

// Error is the error type produced across the engine.
type Error struct {
	Kind Kind
	// Family is the id of the family this error pertains to, if any.
	Family string
	// Msg is a short human readable description.
	Msg string
	// Err is the underlying cause, if any.
	Err error

	// Stdout, Stderr and ExitCode are populated for Kind == Tool.
	Stdout   string
	Stderr   string
	ExitCode int
}

func (e *Error) Error() string {
	var s string
	if e.Family != "" {
		s = fmt.Sprintf("%s: %s [%s]", e.Kind, e.Msg, e.Family)
	} else {
		s = fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether err is a phygerr.Error of the given kind.
func Is(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}

// Newf constructs an Error of the given kind with a formatted message.
func Newf(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an Error of the given kind wrapping err.
func Wrap(k Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WrapFamily is Wrap with a family id attached.
func WrapFamily(k Kind, family string, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Family: family, Msg: fmt.Sprintf(format, args...), Err: err}
}
